package dupcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func rssFeed(titles ...string) string {
	items := ""
	for _, t := range titles {
		items += fmt.Sprintf("<item><title>%s</title><link>https://blog.example.com/post</link></item>\n", t)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>テストブログ</title>
<link>https://blog.example.com</link>
%s</channel>
</rss>`, items)
}

// TestIsDuplicate_Match は一致タイトルの検出をテストする。
func TestIsDuplicate_Match(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFeed("【アニメ】【2026年9月】注目の新作情報", "別の記事")))
	}))
	defer ts.Close()

	c := NewChecker(ts.Client(), discardLogger(), ts.URL, 20)

	// 装飾の有無によらず同一トピックとみなす
	if !c.IsDuplicate(context.Background(), "注目の新作情報") {
		t.Error("装飾を除いた同一タイトルは重複と判定されるべき")
	}
	if !c.IsDuplicate(context.Background(), "【ゲーム】注目の新作情報") {
		t.Error("異なる装飾でも本体が同じなら重複と判定されるべき")
	}
	if c.IsDuplicate(context.Background(), "まったく別の話題") {
		t.Error("異なるタイトルは重複と判定されるべきではない")
	}
}

// TestIsDuplicate_LimitRespected は照合対象が直近N件に限られることをテストする。
func TestIsDuplicate_LimitRespected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssFeed("新しい記事1", "新しい記事2", "古い記事")))
	}))
	defer ts.Close()

	c := NewChecker(ts.Client(), discardLogger(), ts.URL, 2)

	if c.IsDuplicate(context.Background(), "古い記事") {
		t.Error("照合範囲外の古い記事は重複と判定されるべきではない")
	}
	if !c.IsDuplicate(context.Background(), "新しい記事1") {
		t.Error("照合範囲内の記事は重複と判定されるべき")
	}
}

// TestIsDuplicate_FeedUnavailable はフィード取得失敗が「重複なし」になることをテストする。
func TestIsDuplicate_FeedUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewChecker(ts.Client(), discardLogger(), ts.URL, 20)

	if c.IsDuplicate(context.Background(), "タイトル") {
		t.Error("フィード取得失敗時は重複なしとして扱うべき")
	}
}

// TestIsDuplicate_NotConfigured はフィード未設定時に常にfalseを返すことをテストする。
func TestIsDuplicate_NotConfigured(t *testing.T) {
	c := NewChecker(http.DefaultClient, discardLogger(), "", 20)

	if c.IsDuplicate(context.Background(), "タイトル") {
		t.Error("フィード未設定時は重複なしとして扱うべき")
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"装飾を除去", "【アニメ】【2026年9月】注目の新作", "注目の新作"},
		{"空白を除去", "注目 の　新作", "注目の新作"},
		{"英字は小文字化", "Tech News", "technews"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeTitle(tt.title); got != tt.want {
				t.Errorf("normalizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
