// Package sanitize は生成バックエンドの出力と外部コンテンツの正規化を提供する。
//
// 生成バックエンドはコードフェンスや完全なHTML文書を返すことがあるため、
// 投稿前に記事本文をHTMLフラグメントへ正規化する。変換は正規表現ベースの
// ベストエフォートであり、HTMLパーサではない。入れ子や改行をまたぐ破損
// マークアップは完全には除去できない。
package sanitize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TruncationMarker は切り詰め時に本文末尾へ付与する省略マーカー。
const TruncationMarker = "..."

// Cleaner は記事本文の正規化インターフェースを定義する。
type Cleaner interface {
	// CleanHTML はコードフェンス・文書ラッパー・危険タグを除去した
	// HTMLフラグメントを返す。純粋で、同一入力に対して常に同一出力を返す。
	CleanHTML(content string) string

	// Sanitize はCleanHTMLを適用した上で、本文をmaxRunesに切り詰める。
	// 切り詰めが発生した場合は末尾に省略マーカーを付与する。
	Sanitize(content string, maxRunes int) string

	// StripTags は全てのHTMLタグを除去したプレーンテキストを返す。
	StripTags(content string) string
}

var (
	codeFenceRe = regexp.MustCompile("(?i)```(?:html)?")
	doctypeRe   = regexp.MustCompile(`(?i)<!DOCTYPE[^>]*>`)
	htmlTagRe   = regexp.MustCompile(`(?i)</?html[^>]*>`)
	headRe      = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	bodyTagRe   = regexp.MustCompile(`(?i)</?body[^>]*>`)
	metaRe      = regexp.MustCompile(`(?i)<meta[^>]*/?>`)
	titleRe     = regexp.MustCompile(`(?is)<title[^>]*>.*?</title>`)

	// 危険タグは内容ごと除去する。閉じタグの照合に後方参照は使えないため
	// 開閉とも候補の選言で照合する。取りこぼした単独タグは2パス目で落とす。
	dangerPairRe = regexp.MustCompile(`(?is)<(?:script|iframe|object|embed)\b[^>]*>.*?</(?:script|iframe|object|embed)\s*>`)
	dangerLoneRe = regexp.MustCompile(`(?i)</?(?:script|iframe|object|embed)\b[^>]*/?>`)
)

// RegexCleaner は正規表現ベースのCleaner実装。
type RegexCleaner struct {
	strict *bluemonday.Policy
}

// NewRegexCleaner はRegexCleanerを生成する。
func NewRegexCleaner() *RegexCleaner {
	return &RegexCleaner{
		strict: bluemonday.StrictPolicy(),
	}
}

// CleanHTML はコードフェンス・文書ラッパー・危険タグを除去する。
func (c *RegexCleaner) CleanHTML(content string) string {
	out := content
	out = codeFenceRe.ReplaceAllString(out, "")
	out = doctypeRe.ReplaceAllString(out, "")
	out = headRe.ReplaceAllString(out, "")
	out = htmlTagRe.ReplaceAllString(out, "")
	out = bodyTagRe.ReplaceAllString(out, "")
	out = metaRe.ReplaceAllString(out, "")
	out = titleRe.ReplaceAllString(out, "")
	out = dangerPairRe.ReplaceAllString(out, "")
	out = dangerLoneRe.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// Sanitize はCleanHTML適用後の本文をmaxRunesに切り詰める。
// 切り詰めが発生した場合は省略マーカーを付与する。
func (c *RegexCleaner) Sanitize(content string, maxRunes int) string {
	out := c.CleanHTML(content)
	if maxRunes <= 0 {
		return out
	}
	runes := []rune(out)
	if len(runes) <= maxRunes {
		return out
	}
	return string(runes[:maxRunes]) + TruncationMarker
}

// StripTags は全てのHTMLタグを除去したプレーンテキストを返す。
func (c *RegexCleaner) StripTags(content string) string {
	return strings.TrimSpace(c.strict.Sanitize(content))
}

// compile-time interface check
var _ Cleaner = (*RegexCleaner)(nil)
