// Package policy は商品コンテンツの深刻度分類を提供する。
//
// 分類結果はルーティング信号であり、エラーとして扱わない。高深刻度と
// 判定された商品は生成バックエンドへ送らず、安全なテンプレート経路へ
// 迂回させる。
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DefaultMediumThreshold は中程度キーワードの既定の閾値。
// 異なる中程度キーワードがこの数以上出現した場合に高深刻度とする。
const DefaultMediumThreshold = 3

// Config は分類に使用するキーワード設定を表す。
type Config struct {
	// StrongTerms は1つでも含まれたら高深刻度とするキーワード。
	StrongTerms []string `json:"strong_terms"`
	// MediumTerms は閾値以上の異なり数で高深刻度とするキーワード。
	MediumTerms []string `json:"medium_terms"`
	// MediumThreshold は中程度キーワードの異なり数の閾値。
	MediumThreshold int `json:"medium_threshold"`
}

// DefaultConfig は組み込みのキーワード設定を返す。
func DefaultConfig() *Config {
	return &Config{
		StrongTerms: []string{
			"アダルト", "成人向け", "18禁", "R18", "R-18",
			"風俗", "出会い系", "ギャンブル", "オンラインカジノ",
		},
		MediumTerms: []string{
			"セクシー", "過激", "露出", "官能", "グラビア",
			"ランジェリー", "下着", "水着",
		},
		MediumThreshold: DefaultMediumThreshold,
	}
}

// LoadConfig はJSONファイルからキーワード設定を読み込む。
// pathが空の場合は組み込みデフォルトを返す。
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("キーワード設定の読み込みに失敗しました: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("キーワード設定の解析に失敗しました: %w", err)
	}
	if cfg.MediumThreshold <= 0 {
		cfg.MediumThreshold = DefaultMediumThreshold
	}
	return cfg, nil
}

// Classifier はテキストの深刻度を判定する。
type Classifier struct {
	cfg *Config
}

// NewClassifier はClassifierを生成する。cfgがnilの場合はデフォルトを使用する。
func NewClassifier(cfg *Config) *Classifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Classifier{cfg: cfg}
}

// IsHighSeverity はテキストが高深刻度かどうかを判定する。
// 強キーワードが1つでも含まれるか、異なる中程度キーワードが閾値以上
// 含まれる場合にtrueを返す。大文字小文字は区別しない。
func (c *Classifier) IsHighSeverity(text string) bool {
	lower := strings.ToLower(text)

	for _, term := range c.cfg.StrongTerms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}

	distinct := 0
	for _, term := range c.cfg.MediumTerms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			distinct++
			if distinct >= c.cfg.MediumThreshold {
				return true
			}
		}
	}
	return false
}

// AnyHighSeverity は複数テキストのいずれかが高深刻度かどうかを判定する。
func (c *Classifier) AnyHighSeverity(texts ...string) bool {
	for _, t := range texts {
		if c.IsHighSeverity(t) {
			return true
		}
	}
	return false
}
