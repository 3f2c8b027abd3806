// Package generator は記事生成のオーケストレーションを提供する。
//
// カテゴリ記事とレビュー記事で失敗時の扱いが異なる。カテゴリ記事は
// バックエンド失敗をそのまま呼び出し元へ返す。レビュー記事は深刻度判定で
// 安全テンプレートへ迂回し、バックエンド不在時は決定的なフォールバック
// 記事（FallbackProductArticle）で補完できる。
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/xxx-bye7709/blogpilot/internal/llm"
	"github.com/xxx-bye7709/blogpilot/internal/model"
	"github.com/xxx-bye7709/blogpilot/internal/policy"
	"github.com/xxx-bye7709/blogpilot/internal/sanitize"
	"github.com/xxx-bye7709/blogpilot/internal/seo"
)

// AgeGateNotice は安全テンプレート記事の冒頭に挿入する年齢確認の注意書き。
const AgeGateNotice = "※この記事には成人向けの内容が含まれる可能性があります。18歳未満の方の閲覧はご遠慮ください。"

// reviewCountPlaceholder はレビュー件数が欠損している場合にタイトルへ使う代替表記。
const reviewCountPlaceholder = "多数"

// defaultMetaPatterns は生成バックエンドの出力から除去するメタ言及文のパターン。
// 行単位で照合し、一致した行を丸ごと取り除く。
var defaultMetaPatterns = []string{
	`(?m)^.*このHTML(は|を).*$`,
	`(?m)^.*上記のHTML.*$`,
	`(?m)^.*記事を(作成|生成)(しました|いたしました).*$`,
	`(?m)^.*ご要望(に応じて|があれば).*$`,
	`(?m)^.*参考になれば幸いです.*$`,
}

// ImageGenerator はアイキャッチ画像生成のインターフェース。
type ImageGenerator interface {
	Available() bool
	// GenerateURL は生成画像のURLを返す。失敗時は空文字列。
	GenerateURL(ctx context.Context, prompt string) string
}

// Options は生成時のパラメータ。
type Options struct {
	// Model は使用するモデル名。空の場合はバックエンドのデフォルト。
	Model string
	// Temperature は生成の温度パラメータ。
	Temperature float64
	// MaxOutputTokens は最大出力トークン数。
	MaxOutputTokens int
	// MetaPatterns はメタ言及文の除去パターン。nilの場合は組み込みを使用する。
	MetaPatterns []string
}

// Generator は記事生成のオーケストレータ。
type Generator struct {
	backend    llm.TextGenerator
	classifier *policy.Classifier
	cleaner    sanitize.Cleaner
	optimizer  *seo.Optimizer
	images     ImageGenerator
	logger     *slog.Logger
	opts       Options
	metaRes    []*regexp.Regexp
}

// New はGeneratorを生成する。imagesはnil可（アイキャッチ生成なし）。
func New(backend llm.TextGenerator, classifier *policy.Classifier, cleaner sanitize.Cleaner, optimizer *seo.Optimizer, images ImageGenerator, logger *slog.Logger, opts Options) *Generator {
	patterns := opts.MetaPatterns
	if patterns == nil {
		patterns = defaultMetaPatterns
	}
	metaRes := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		metaRes = append(metaRes, regexp.MustCompile(p))
	}

	return &Generator{
		backend:    backend,
		classifier: classifier,
		cleaner:    cleaner,
		optimizer:  optimizer,
		images:     images,
		logger:     logger,
		opts:       opts,
		metaRes:    metaRes,
	}
}

// GenerateArticle はカテゴリ記事を生成する。
// バックエンド失敗はそのまま返す（カテゴリ記事にフォールバックはない）。
func (g *Generator) GenerateArticle(ctx context.Context, category model.CategoryID) (*model.Article, error) {
	text, err := g.backend.Generate(ctx, &llm.Request{
		Model:           g.opts.Model,
		Messages:        buildArticleMessages(category),
		Temperature:     g.opts.Temperature,
		MaxOutputTokens: g.opts.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}

	title, body := splitTitleAndBody(text)
	if title == "" || body == "" {
		return nil, model.NewBackendUnavailableError("生成結果からタイトルと本文を分離できませんでした")
	}

	article := &model.Article{
		Title:    g.optimizer.OptimizeTitle(title, category),
		Content:  g.cleaner.Sanitize(body, model.MaxContentLength),
		Category: category,
		Tags:     g.optimizer.OptimizeTags(nil, category),
		Status:   model.PostStatusPublish,
	}
	article.EyecatchURL = g.generateEyecatch(ctx, article.Title)

	return article, nil
}

// GenerateProductReview は商品レビュー記事を生成する。
// 商品のいずれかが高深刻度の場合は生成バックエンドを呼び出さず、
// 安全テンプレート記事を返す。いずれの経路でも公開状態は下書きになる。
func (g *Generator) GenerateProductReview(ctx context.Context, products []model.Product, keyword string) (*model.Article, error) {
	if len(products) == 0 {
		return nil, model.NewInvalidRequestError("商品が指定されていません")
	}

	if g.isHighSeverity(products, keyword) {
		g.logger.Info("高深刻度と判定されたため安全テンプレートへ迂回します",
			slog.String("keyword", keyword),
			slog.Int("product_count", len(products)),
		)
		return g.safeTemplateArticle(products, keyword), nil
	}

	text, err := g.backend.Generate(ctx, &llm.Request{
		Model:           g.opts.Model,
		Messages:        buildReviewMessages(products, keyword),
		Temperature:     g.opts.Temperature,
		MaxOutputTokens: g.opts.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}

	_, body := splitTitleAndBody(text)
	if body == "" {
		body = text
	}
	body = g.filterMetaCommentary(body)

	article := &model.Article{
		Title:           g.optimizer.OptimizeTitle(productReviewTitle(products, keyword), model.CategoryProductReview),
		Content:         g.cleaner.Sanitize(body, model.MaxContentLength),
		Category:        model.CategoryProductReview,
		Tags:            g.optimizer.OptimizeTags([]string{keyword}, model.CategoryProductReview),
		Status:          model.PostStatusDraft,
		IsProductReview: true,
	}
	article.EyecatchURL = g.generateEyecatch(ctx, article.Title)

	return article, nil
}

// isHighSeverity は商品リストとキーワードの深刻度を判定する。
func (g *Generator) isHighSeverity(products []model.Product, keyword string) bool {
	texts := make([]string, 0, len(products)*2+1)
	texts = append(texts, keyword)
	for _, p := range products {
		texts = append(texts, p.Title, p.Description)
	}
	return g.classifier.AnyHighSeverity(texts...)
}

// safeTemplateArticle は高深刻度商品向けの固定テンプレート記事を構築する。
// 年齢確認の注意書きと価格のみの商品ブロックで構成し、説明文は載せない。
func (g *Generator) safeTemplateArticle(products []model.Product, keyword string) *model.Article {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<p>%s</p>\n", AgeGateNotice))
	sb.WriteString(fmt.Sprintf("<h2>「%s」の商品情報</h2>\n", keyword))

	for _, p := range products {
		sb.WriteString("<div class=\"product-item\">\n")
		sb.WriteString(fmt.Sprintf("<h3>%s</h3>\n", p.Title))
		sb.WriteString(fmt.Sprintf("<p>価格: %s</p>\n", p.Price))
		if p.AffiliateURL != "" {
			sb.WriteString(fmt.Sprintf("<p><a href=\"%s\" class=\"purchase-button\" rel=\"nofollow\">詳細を見る</a></p>\n", p.AffiliateURL))
		}
		sb.WriteString("</div>\n")
	}

	return &model.Article{
		Title:           g.optimizer.OptimizeTitle(productReviewTitle(products, keyword), model.CategoryProductReview),
		Content:         g.cleaner.Sanitize(sb.String(), model.MaxContentLength),
		Category:        model.CategoryProductReview,
		Tags:            g.optimizer.OptimizeTags([]string{keyword}, model.CategoryProductReview),
		Status:          model.PostStatusDraft,
		IsProductReview: true,
	}
}

// filterMetaCommentary はメタ言及文のパターンに一致する行を除去する。
func (g *Generator) filterMetaCommentary(content string) string {
	out := content
	for _, re := range g.metaRes {
		out = re.ReplaceAllString(out, "")
	}
	// 除去で生じた連続空行を詰める
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}

// generateEyecatch はアイキャッチ画像を生成する。失敗しても記事生成は継続する。
func (g *Generator) generateEyecatch(ctx context.Context, title string) string {
	if g.images == nil || !g.images.Available() {
		return ""
	}
	return g.images.GenerateURL(ctx, fmt.Sprintf("ブログ記事「%s」のアイキャッチ画像", title))
}

// productReviewTitle はレビュー記事のタイトルを規則で決定する。
// 複数商品は比較形式、単一商品はレビュー件数を使った訴求形式になる。
func productReviewTitle(products []model.Product, keyword string) string {
	if len(products) > 1 {
		return fmt.Sprintf("%sおすすめTOP%d徹底比較", keyword, len(products))
	}

	count := products[0].ReviewCount
	if count == "" {
		count = reviewCountPlaceholder
	}
	return fmt.Sprintf("%s【%s人が購入】", products[0].Title, count)
}
