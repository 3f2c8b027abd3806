package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xxx-bye7709/blogpilot/internal/middleware"
	"github.com/xxx-bye7709/blogpilot/internal/model"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) PingContext(ctx context.Context) error {
	return f.err
}

func newTestRouter(pingErr error) http.Handler {
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	return NewRouter(&RouterDeps{
		CORSAllowedOrigin: "https://dashboard.example.com",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		ScheduleService:   &fakeScheduleService{schedule: testSchedule()},
		Pipeline:          &fakePipeline{result: successResult()},
		PostLogs:          &fakePostLogLister{},
		ProductSearcher:   &fakeSearcher{},
		DB:                &fakePinger{err: pingErr},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics"))
		}),
	})
}

// TestRouter_Routes は主要エンドポイントのルーティングを検証する。
func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"ヘルスチェック", http.MethodGet, "/health", "", http.StatusOK},
		{"メトリクス", http.MethodGet, "/metrics", "", http.StatusOK},
		{"スケジュール取得", http.MethodGet, "/api/schedule", "", http.StatusOK},
		{"スケジュール更新", http.MethodPut, "/api/schedule", `{"enabled": true}`, http.StatusOK},
		{"トグル", http.MethodPost, "/api/schedule/toggle", `{"enabled": false}`, http.StatusOK},
		{"自動投稿", http.MethodPost, "/api/posts/auto", "", http.StatusOK},
		{"カテゴリ記事", http.MethodPost, "/api/posts/article", `{"category": "anime"}`, http.StatusOK},
		{"商品レビュー", http.MethodPost, "/api/posts/product-review", `{"keyword": "イヤホン"}`, http.StatusOK},
		{"投稿履歴", http.MethodGet, "/api/posts/logs", "", http.StatusOK},
		{"商品検索(q未指定)", http.MethodGet, "/api/products/search", "", http.StatusBadRequest},
		{"未定義ルート", http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.RemoteAddr = "203.0.113.1:12345"
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

// TestRouter_HealthDegraded はDB疎通失敗時に503になることを検証する。
func TestRouter_HealthDegraded(t *testing.T) {
	router := newTestRouter(errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// TestRouter_SecurityHeaders はAPIレスポンスにセキュリティヘッダーが付くことを検証する。
func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
	req.RemoteAddr = "203.0.113.2:12345"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("X-Content-Type-Optionsが設定されるべき")
	}
}

// TestRouter_GenerateRateLimit は生成系エンドポイントの厳しいレート制限を検証する。
func TestRouter_GenerateRateLimit(t *testing.T) {
	config := middleware.DefaultRateLimiterConfig()
	config.GenerateBurst = 1
	rl := middleware.NewRateLimiter(config)
	defer rl.Stop()

	router := NewRouter(&RouterDeps{
		CORSAllowedOrigin: "https://dashboard.example.com",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		ScheduleService:   &fakeScheduleService{schedule: testSchedule()},
		Pipeline:          &fakePipeline{result: successResult()},
		PostLogs:          &fakePostLogLister{},
		ProductSearcher:   &fakeSearcher{},
		DB:                &fakePinger{},
		MetricsHandler:    http.NotFoundHandler(),
	})

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/posts/auto", nil)
		req.RemoteAddr = "203.0.113.9:12345"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := post(); got != http.StatusOK {
		t.Fatalf("1回目: status = %d, want 200", got)
	}
	if got := post(); got != http.StatusTooManyRequests {
		t.Errorf("2回目: status = %d, want 429", got)
	}
}

// TestRouter_EmptyCategoryRejected はカテゴリ未指定が統一エラーで拒否されることを検証する。
func TestRouter_EmptyCategoryRejected(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/article", strings.NewReader(`{"category": ""}`))
	req.RemoteAddr = "203.0.113.3:12345"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), model.ErrCodeInvalidRequest) {
		t.Errorf("body = %q", rec.Body.String())
	}
}
