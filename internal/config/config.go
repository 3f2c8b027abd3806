// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// WordPress（投稿先）
	WordPressURL      string // サイトURL（例: https://blog.example.com）。XML-RPCパスは自動で付与される
	WordPressUsername string
	WordPressPassword string
	WordPressBlogID   string
	WordPressAuthorID int
	PublishTimeout    time.Duration

	// 生成バックエンド（Gemini）
	GeminiAPIKey       string // 未設定の場合はオフラインフォールバックに切り替わる
	GeminiModel        string
	GenTemperature     float64
	GenMaxOutputTokens int

	// 画像生成バックエンド（任意）
	ImageAPIEndpoint string // 未設定の場合はアイキャッチ生成をスキップ
	ImageAPIKey      string
	ImageSize        string
	ImageQuality     string

	// 商品検索バックエンド（任意）
	ProductAPIEndpoint string
	ProductAPIID       string
	ProductAffiliateID string
	ProductSearchLimit int

	// 重複チェック（任意）
	BlogFeedURL   string // 未設定の場合は重複チェックをスキップ
	DupCheckLimit int

	// ポリシー分類
	PolicyKeywordsFile string // JSONファイルパス。未設定の場合は組み込みデフォルト

	// スケジュール
	Timezone           string
	WorkerPollInterval time.Duration

	// Rate Limit（req/min）
	RateLimitGeneral  int
	RateLimitGenerate int

	// Logging
	LogRetentionDays int

	// Server
	ServerPort        string
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.WordPressURL = os.Getenv("WORDPRESS_URL")
	if cfg.WordPressURL == "" {
		missing = append(missing, "WORDPRESS_URL")
	}

	cfg.WordPressUsername = os.Getenv("WORDPRESS_USERNAME")
	if cfg.WordPressUsername == "" {
		missing = append(missing, "WORDPRESS_USERNAME")
	}

	cfg.WordPressPassword = os.Getenv("WORDPRESS_PASSWORD")
	if cfg.WordPressPassword == "" {
		missing = append(missing, "WORDPRESS_PASSWORD")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.WordPressBlogID = getEnvString("WORDPRESS_BLOG_ID", "1")
	cfg.WordPressAuthorID = getEnvInt("WORDPRESS_AUTHOR_ID", 1)
	cfg.PublishTimeout = getEnvDuration("PUBLISH_TIMEOUT", 30*time.Second)

	cfg.GeminiAPIKey = getEnvString("GEMINI_API_KEY", "")
	cfg.GeminiModel = getEnvString("GEMINI_MODEL", "gemini-1.5-flash")
	cfg.GenTemperature = getEnvFloat("GEN_TEMPERATURE", 0.7)
	cfg.GenMaxOutputTokens = getEnvInt("GEN_MAX_OUTPUT_TOKENS", 4096)

	cfg.ImageAPIEndpoint = getEnvString("IMAGE_API_ENDPOINT", "")
	cfg.ImageAPIKey = getEnvString("IMAGE_API_KEY", "")
	cfg.ImageSize = getEnvString("IMAGE_SIZE", "1024x1024")
	cfg.ImageQuality = getEnvString("IMAGE_QUALITY", "standard")

	cfg.ProductAPIEndpoint = getEnvString("PRODUCT_API_ENDPOINT", "https://api.dmm.com/affiliate/v3/ItemList")
	cfg.ProductAPIID = getEnvString("PRODUCT_API_ID", "")
	cfg.ProductAffiliateID = getEnvString("PRODUCT_AFFILIATE_ID", "")
	cfg.ProductSearchLimit = getEnvInt("PRODUCT_SEARCH_LIMIT", 5)

	cfg.BlogFeedURL = getEnvString("BLOG_FEED_URL", "")
	cfg.DupCheckLimit = getEnvInt("DUP_CHECK_LIMIT", 20)

	cfg.PolicyKeywordsFile = getEnvString("POLICY_KEYWORDS_FILE", "")

	cfg.Timezone = getEnvString("TIMEZONE", "Asia/Tokyo")
	cfg.WorkerPollInterval = getEnvDuration("WORKER_POLL_INTERVAL", time.Minute)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitGenerate = getEnvInt("RATE_LIMIT_GENERATE", 10)

	cfg.LogRetentionDays = getEnvInt("LOG_RETENTION_DAYS", 90)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// Location はTimezone設定からtime.Locationを解決する。
// 解決できない場合はUTCを返す。
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
