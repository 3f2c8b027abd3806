// Package dupcheck はブログRSSフィードを使った重複トピックの検出を提供する。
//
// 検出は助言的な機能であり、フィード取得や解析の失敗は「重複なし」として
// 扱う。自動投稿が止まるよりも、まれに似た話題が重なるほうが害が小さい。
package dupcheck

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
)

// DefaultRecentLimit は照合対象とする直近投稿数の既定値。
const DefaultRecentLimit = 20

// markerRe はタイトル正規化で取り除く装飾（年月マーカー・カテゴリ接頭辞）。
var markerRe = regexp.MustCompile(`【[^】]*】`)

// Checker は候補タイトルが直近の投稿と重複していないかを判定する。
type Checker struct {
	parser  *gofeed.Parser
	logger  *slog.Logger
	feedURL string
	limit   int
}

// NewChecker はCheckerを生成する。
// feedURLが空の場合は無効化され、IsDuplicateは常にfalseを返す。
// httpClientにはSSRF防止付きクライアントを渡す。
func NewChecker(httpClient *http.Client, logger *slog.Logger, feedURL string, limit int) *Checker {
	parser := gofeed.NewParser()
	parser.Client = httpClient
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &Checker{
		parser:  parser,
		logger:  logger,
		feedURL: feedURL,
		limit:   limit,
	}
}

// IsDuplicate は候補タイトルが直近の投稿タイトルと重複するかを判定する。
// フィード未設定・取得失敗・解析失敗はすべて「重複なし」として扱い、
// エラーはログに記録するのみ。
func (c *Checker) IsDuplicate(ctx context.Context, title string) bool {
	if c.feedURL == "" {
		return false
	}

	feed, err := c.parser.ParseURLWithContext(c.feedURL, ctx)
	if err != nil {
		c.logger.Warn("ブログフィードの取得に失敗したため重複チェックをスキップします",
			slog.String("feed_url", c.feedURL),
			slog.String("error", err.Error()),
		)
		return false
	}

	candidate := normalizeTitle(title)
	if candidate == "" {
		return false
	}

	items := feed.Items
	if len(items) > c.limit {
		items = items[:c.limit]
	}

	for _, item := range items {
		if normalizeTitle(item.Title) == candidate {
			c.logger.Info("重複トピックを検出しました",
				slog.String("title", title),
				slog.String("existing_title", item.Title),
			)
			return true
		}
	}
	return false
}

// normalizeTitle は装飾と空白を取り除いた比較用のタイトルを返す。
func normalizeTitle(title string) string {
	out := markerRe.ReplaceAllString(title, "")
	out = strings.ReplaceAll(out, " ", "")
	out = strings.ReplaceAll(out, "　", "")
	return strings.ToLower(strings.TrimSpace(out))
}
