package model

import "time"

// PostStatus は記事の公開状態を表す。
type PostStatus string

const (
	// PostStatusDraft は下書き状態。商品レビュー記事はすべて下書きで投稿される。
	PostStatusDraft PostStatus = "draft"
	// PostStatusPublish は公開状態。
	PostStatusPublish PostStatus = "publish"
)

// MaxContentLength は記事本文の最大文字数（rune単位）。
// 超過分は切り詰められ、末尾に省略マーカーが付与される。
const MaxContentLength = 15000

// MaxTags は記事に付与できるタグの最大数。
const MaxTags = 15

// Article は生成された記事を表す。リクエストごとに生成される一時データで、
// 永続化されるのは投稿ログ（PostLog）のみ。
type Article struct {
	// Title は記事タイトル。SEO最適化済み。
	Title string
	// Content は記事本文のHTMLフラグメント。完全なHTMLドキュメントではない。
	// script/iframe/object/embed、コードフェンス、文書ラッパータグを含まない。
	Content string
	// Category は記事カテゴリ。
	Category CategoryID
	// Tags は付与タグ。最大15件、重複なし、先勝ちの挿入順。
	Tags []string
	// Status は投稿時の公開状態。
	Status PostStatus
	// IsProductReview は商品レビュー記事かどうか。
	IsProductReview bool
	// EyecatchURL はアイキャッチ画像のURL。生成に失敗した場合は空文字列。
	EyecatchURL string
}

// Product は外部の商品検索APIから取得した商品の正規化済みレコードを表す。
// プロバイダごとに異なるフィールド名は正規化関数で吸収される。
type Product struct {
	// Title は商品名。
	Title string
	// Price は価格表示文字列。欠損時は「価格不明」。
	Price string
	// AffiliateURL はアフィリエイトリンク。
	AffiliateURL string
	// ImageURL は商品画像のURL。欠損時は空文字列。
	ImageURL string
	// Description は商品説明（プレーンテキストに正規化済み）。
	Description string
	// Rating は評価値の文字列表現。欠損時は「4.5」。
	Rating string
	// ReviewCount はレビュー件数の文字列表現。欠損時は空文字列。
	ReviewCount string
}

// PostLog は公開済み投稿の記録を表す。
type PostLog struct {
	ID          string
	Category    CategoryID
	Title       string
	PostID      string
	PostURL     string
	Status      PostStatus
	IsAutomatic bool
	CreatedAt   time.Time
}
