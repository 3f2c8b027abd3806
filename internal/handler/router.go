package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xxx-bye7709/blogpilot/internal/middleware"
	"github.com/xxx-bye7709/blogpilot/internal/product"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// スケジュール
	ScheduleService ScheduleServiceInterface

	// 記事生成・投稿
	Pipeline PipelineInterface
	PostLogs PostLogLister

	// 商品検索
	ProductSearcher product.Searcher

	// ヘルスチェック
	DB Pinger

	// Prometheusメトリクス
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → RecoveryMiddleware → SecurityHeadersMiddleware → LoggingMiddleware → RateLimit
//
// /healthと/metricsはレート制限の外に配置する。生成系エンドポイントには
// 全般レート制限に加えて生成専用のより厳しい制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	scheduleHandler := NewScheduleHandler(deps.ScheduleService)
	postHandler := NewPostHandler(deps.Pipeline, deps.PostLogs)
	productHandler := NewProductHandler(deps.ProductSearcher)
	healthHandler := NewHealthHandler(deps.DB)

	// --- 監視用ルート（レート制限の外） ---

	r.Get("/health", healthHandler.Check)
	r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)、生成系はさらにGenerate制限
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// スケジュール管理
		r.Route("/api/schedule", func(r chi.Router) {
			r.Get("/", scheduleHandler.GetSchedule)
			r.Put("/", scheduleHandler.UpdateSchedule)
			r.Post("/toggle", scheduleHandler.Toggle)
		})

		// 記事生成・投稿
		r.Route("/api/posts", func(r chi.Router) {
			r.Get("/logs", postHandler.ListPostLogs)

			// 生成系は生成専用レート制限を追加
			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.GenerateMiddleware())
				r.Post("/auto", postHandler.AutoPost)
				r.Post("/article", postHandler.GenerateArticle)
				r.Post("/product-review", postHandler.GenerateProductReview)
			})
		})

		// 商品検索
		r.Get("/api/products/search", productHandler.Search)
	})

	return r
}
