package generator

import (
	"fmt"
	"strings"

	"github.com/xxx-bye7709/blogpilot/internal/model"
)

// FallbackProductArticle は生成バックエンドを使わない決定的なレビュー記事を構築する。
// バックエンドの認証情報がない場合や呼び出しが失敗した場合の代替経路で、
// 整形済みの商品データに対しては決して失敗しない。
func (g *Generator) FallbackProductArticle(products []model.Product, keyword string) *model.Article {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<p>「%s」で人気の商品を%d件ご紹介します。</p>\n", keyword, len(products)))

	for i, p := range products {
		sb.WriteString("<div class=\"product-card\">\n")
		sb.WriteString(fmt.Sprintf("<h2>%d. %s</h2>\n", i+1, p.Title))
		if p.ImageURL != "" {
			sb.WriteString(fmt.Sprintf("<p><img src=\"%s\" alt=\"%s\" /></p>\n", p.ImageURL, p.Title))
		}
		if p.Description != "" {
			sb.WriteString(fmt.Sprintf("<p>%s</p>\n", p.Description))
		}
		sb.WriteString(fmt.Sprintf("<p>価格: %s ／ 評価: %s</p>\n", p.Price, p.Rating))
		if p.AffiliateURL != "" {
			sb.WriteString(fmt.Sprintf("<p><a href=\"%s\" class=\"purchase-button\" rel=\"nofollow\">購入はこちら</a></p>\n", p.AffiliateURL))
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
