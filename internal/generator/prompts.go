package generator

import (
	"fmt"
	"strings"

	"github.com/xxx-bye7709/blogpilot/internal/llm"
	"github.com/xxx-bye7709/blogpilot/internal/model"
)

// systemPrompt は生成バックエンドへ渡す共通のシステム指示。
const systemPrompt = "あなたは日本語ブログの専門ライターです。" +
	"読者の興味を引く記事をHTMLフラグメント（h2/h3/p/ul/liタグのみ）で執筆してください。" +
	"1行目に記事タイトルのみを書き、2行目以降に本文を書いてください。" +
	"コードフェンスやHTML文書の枠組み（DOCTYPE、html、head、bodyタグ）は出力しないでください。"

// topicBriefs はカテゴリごとの話題指示。
var topicBriefs = map[model.CategoryID]string{
	model.CategoryEntertainment: "最近話題のエンタメニュースやトレンドについて",
	model.CategoryAnime:         "注目のアニメ作品や業界の最新動向について",
	model.CategoryGame:          "人気ゲームタイトルやゲーム業界のニュースについて",
	model.CategoryMovie:         "話題の映画作品や映画館での注目作について",
	model.CategoryMusic:         "注目のアーティストや新曲、音楽シーンの動向について",
	model.CategoryTech:          "最新のテクノロジーやガジェット、ITトレンドについて",
	model.CategoryBeauty:        "美容・コスメの最新トレンドやスキンケアの話題について",
	model.CategoryGourmet:       "グルメ情報や話題の飲食店、料理のトレンドについて",
}

// genericBrief は未知カテゴリ向けの汎用話題指示。
const genericBrief = "読者の関心が高い最新の話題について"

// buildArticleMessages はカテゴリ記事生成のメッセージ列を構築する。
func buildArticleMessages(category model.CategoryID) []llm.Message {
	brief, ok := topicBriefs[category]
	if !ok {
		brief = genericBrief
	}

	return []llm.Message{
		{Role: "system", Text: systemPrompt},
		{Role: "user", Text: fmt.Sprintf(
			"%s、1500〜2500文字程度のブログ記事を書いてください。"+
				"見出しを2〜4個使い、読者が行動したくなる締めくくりにしてください。", brief)},
	}
}

// buildReviewMessages は商品レビュー記事生成のメッセージ列を構築する。
func buildReviewMessages(products []model.Product, keyword string) []llm.Message {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("「%s」に関する以下の商品を紹介するレビュー記事を書いてください。\n\n", keyword))

	for i, p := range products {
		sb.WriteString(fmt.Sprintf("商品%d: %s\n価格: %s\n評価: %s\n", i+1, p.Title, p.Price, p.Rating))
		if p.Description != "" {
			sb.WriteString(fmt.Sprintf("説明: %s\n", p.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("各商品の特徴と魅力を紹介し、どんな人におすすめかを書いてください。" +
		"商品情報の出典や生成過程への言及は不要です。")

	return []llm.Message{
		{Role: "system", Text: systemPrompt},
		{Role: "user", Text: sb.String()},
	}
}

// splitTitleAndBody は生成テキストの1行目をタイトル、残りを本文として分離する。
// タイトル行の井桁・引用符・ラベルは取り除く。
func splitTitleAndBody(text string) (title, body string) {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		title = cleanTitleLine(trimmed)
		body = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		return title, body
	}
	return "", ""
}

// cleanTitleLine はタイトル行から装飾を取り除く。
func cleanTitleLine(line string) string {
	out := strings.TrimSpace(line)
	out = strings.TrimSpace(strings.TrimLeft(out, "#"))
	out = strings.TrimPrefix(out, "タイトル:")
	out = strings.TrimPrefix(out, "タイトル：")
	out = strings.Trim(out, "「」\"『』")
	return strings.TrimSpace(out)
}
