// Package seo は記事タイトル・タグのSEO補強を提供する。
package seo

import (
	"fmt"
	"strings"
	"time"

	"github.com/xxx-bye7709/blogpilot/internal/model"
)

// MaxTags は付与するタグの上限。
const MaxTags = model.MaxTags

// categoryPrefixes はカテゴリごとのタイトル接頭辞。
var categoryPrefixes = map[model.CategoryID]string{
	model.CategoryEntertainment: "【エンタメ】",
	model.CategoryAnime:         "【アニメ】",
	model.CategoryGame:          "【ゲーム】",
	model.CategoryMovie:         "【映画】",
	model.CategoryMusic:         "【音楽】",
	model.CategoryTech:          "【テック】",
	model.CategoryBeauty:        "【美容】",
	model.CategoryGourmet:       "【グルメ】",
	model.CategoryProductReview: "【レビュー】",
}

// categoryTags はカテゴリごとのテンプレートタグ。
var categoryTags = map[model.CategoryID][]string{
	model.CategoryEntertainment: {"エンタメ", "芸能", "話題"},
	model.CategoryAnime:         {"アニメ", "漫画", "オタク"},
	model.CategoryGame:          {"ゲーム", "eスポーツ", "攻略"},
	model.CategoryMovie:         {"映画", "レビュー", "洋画", "邦画"},
	model.CategoryMusic:         {"音楽", "新曲", "ライブ"},
	model.CategoryTech:          {"テクノロジー", "ガジェット", "IT"},
	model.CategoryBeauty:        {"美容", "コスメ", "スキンケア"},
	model.CategoryGourmet:       {"グルメ", "食べ歩き", "レシピ"},
	model.CategoryProductReview: {"商品レビュー", "おすすめ", "比較"},
}

// commonTags は全カテゴリ共通で付与するタグ。
var commonTags = []string{"トレンド", "最新情報", "まとめ"}

// Optimizer はタイトル・タグ・本文のSEO補強を行う。
type Optimizer struct {
	now func() time.Time
}

// NewOptimizer はOptimizerを生成する。
func NewOptimizer() *Optimizer {
	return &Optimizer{now: time.Now}
}

// OptimizeTitle は年月マーカーとカテゴリ接頭辞を付与する。
// すでに現在の年を含む場合は年月マーカーを、すでに接頭辞を含む場合は
// 接頭辞を付与しない。冪等であり、最適化済みタイトルへの再適用は無変更。
func (o *Optimizer) OptimizeTitle(title string, category model.CategoryID) string {
	now := o.now()
	out := title

	year := fmt.Sprintf("%d年", now.Year())
	if !strings.Contains(out, year) {
		marker := fmt.Sprintf("【%d年%d月】", now.Year(), int(now.Month()))
		out = marker + out
	}

	prefix := categoryPrefixes[category]
	if prefix != "" && !strings.Contains(out, prefix) {
		out = prefix + out
	}

	return out
}

// OptimizeTags は呼び出し側のタグ・カテゴリテンプレート・共通タグを統合する。
// 先に現れたものを優先して重複を除き、最大15件に切り詰める。純粋で決定的。
func (o *Optimizer) OptimizeTags(tags []string, category model.CategoryID) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, MaxTags)

	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] || len(out) >= MaxTags {
			return
		}
		seen[tag] = true
		out = append(out, tag)
	}

	for _, t := range tags {
		add(t)
	}
	for _, t := range categoryTags[category] {
		add(t)
	}
	for _, t := range commonTags {
		add(t)
	}

	return out
}

// OptimizeKeywordDensity はキーワードの出現率を目標値へ近づける。
// 文の区切りごとに括弧書きのキーワード言及を挿入するヒューリスティックで、
// 厳密な密度は保証しない。targetRatioは0より大きい比率（例: 0.02）。
func (o *Optimizer) OptimizeKeywordDensity(content, keyword string, targetRatio float64) string {
	if keyword == "" || targetRatio <= 0 || content == "" {
		return content
	}

	sentences := strings.Split(content, "。")
	total := len(sentences)
	if total < 2 {
		return content
	}

	current := strings.Count(content, keyword)
	want := int(float64(total) * targetRatio)
	if current >= want {
		return content
	}

	// 不足分を等間隔の文末に挿入する
	deficit := want - current
	interval := total / (deficit + 1)
	if interval < 1 {
		interval = 1
	}

	inserted := 0
	for i := interval; i < total && inserted < deficit; i += interval {
		if sentences[i] == "" {
			continue
		}
		sentences[i] = sentences[i] + "（" + keyword + "）"
		inserted++
	}

	return strings.Join(sentences, "。")
}
