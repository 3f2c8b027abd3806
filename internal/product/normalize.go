package product

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/xxx-bye7709/blogpilot/internal/model"
	"github.com/xxx-bye7709/blogpilot/internal/sanitize"
)

// 欠損フィールドの既定値。
const (
	defaultPrice  = "価格不明"
	defaultRating = "4.5"
)

// provider はrawItemがどのプロバイダの形かを示すタグ。
type provider int

const (
	providerDMM provider = iota
	providerGeneric
)

// rawDMMItem はDMMアフィリエイトAPIの商品レコード。
type rawDMMItem struct {
	Title        string `json:"title"`
	AffiliateURL string `json:"affiliateURL"`
	URL          string `json:"URL"`
	ImageURL     struct {
		Large string `json:"large"`
		Small string `json:"small"`
	} `json:"imageURL"`
	Prices struct {
		Price string `json:"price"`
	} `json:"prices"`
	Review struct {
		Count   int    `json:"count"`
		Average string `json:"average"`
	} `json:"review"`
	Comment string `json:"comment"`
}

// rawGenericItem は汎用JSON APIの商品レコード。
// プロバイダごとに揺れるフィールド名を受け口で吸収する。
type rawGenericItem struct {
	Title        string      `json:"title"`
	Name         string      `json:"name"`
	Price        string      `json:"price"`
	AffiliateURL string      `json:"affiliate_url"`
	URL          string      `json:"url"`
	ImageURL     string      `json:"image_url"`
	Image        string      `json:"image"`
	Description  string      `json:"description"`
	Rating       json.Number `json:"rating"`
	ReviewCount  json.Number `json:"review_count"`
}

// rawItem はプロバイダ別の生レコードのタグ付きユニオン。
// フィールドアクセスの分岐を呼び出し側へ散らさず、Normalizeに集約する。
type rawItem struct {
	provider provider
	dmm      rawDMMItem
	generic  rawGenericItem
}

// Normalize は生の商品レコードを正規化済みのProductに変換する。
// 欠損フィールドは既定値（価格→「価格不明」、評価→「4.5」、他→空文字列）
// で補完し、説明文はタグを除去したプレーンテキストにする。
func Normalize(item rawItem, cleaner sanitize.Cleaner) model.Product {
	var p model.Product

	switch item.provider {
	case providerDMM:
		raw := item.dmm
		p.Title = strings.TrimSpace(raw.Title)
		p.Price = raw.Prices.Price
		p.AffiliateURL = firstNonEmpty(raw.AffiliateURL, raw.URL)
		p.ImageURL = firstNonEmpty(raw.ImageURL.Large, raw.ImageURL.Small)
		p.Description = cleaner.StripTags(raw.Comment)
		p.Rating = raw.Review.Average
		if raw.Review.Count > 0 {
			p.ReviewCount = strconv.Itoa(raw.Review.Count)
		}
	case providerGeneric:
		raw := item.generic
		p.Title = strings.TrimSpace(firstNonEmpty(raw.Title, raw.Name))
		p.Price = raw.Price
		p.AffiliateURL = firstNonEmpty(raw.AffiliateURL, raw.URL)
		p.ImageURL = firstNonEmpty(raw.ImageURL, raw.Image)
		p.Description = cleaner.StripTags(raw.Description)
		p.Rating = raw.Rating.String()
		p.ReviewCount = raw.ReviewCount.String()
	}

	if p.Price == "" {
		p.Price = defaultPrice
	}
	if p.Rating == "" || p.Rating == "0" {
		p.Rating = defaultRating
	}
	if p.ReviewCount == "0" {
		p.ReviewCount = ""
	}

	return p
}

// firstNonEmpty は最初の空でない文字列を返す。
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
