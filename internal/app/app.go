package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/xxx-bye7709/blogpilot/internal/config"
	"github.com/xxx-bye7709/blogpilot/internal/cta"
	"github.com/xxx-bye7709/blogpilot/internal/database"
	"github.com/xxx-bye7709/blogpilot/internal/dupcheck"
	"github.com/xxx-bye7709/blogpilot/internal/generator"
	"github.com/xxx-bye7709/blogpilot/internal/handler"
	"github.com/xxx-bye7709/blogpilot/internal/imagegen"
	"github.com/xxx-bye7709/blogpilot/internal/llm"
	"github.com/xxx-bye7709/blogpilot/internal/logger"
	"github.com/xxx-bye7709/blogpilot/internal/metrics"
	"github.com/xxx-bye7709/blogpilot/internal/middleware"
	"github.com/xxx-bye7709/blogpilot/internal/pipeline"
	"github.com/xxx-bye7709/blogpilot/internal/policy"
	"github.com/xxx-bye7709/blogpilot/internal/product"
	"github.com/xxx-bye7709/blogpilot/internal/publisher"
	"github.com/xxx-bye7709/blogpilot/internal/repository"
	"github.com/xxx-bye7709/blogpilot/internal/sanitize"
	"github.com/xxx-bye7709/blogpilot/internal/schedule"
	"github.com/xxx-bye7709/blogpilot/internal/security"
	"github.com/xxx-bye7709/blogpilot/internal/seo"
	"github.com/xxx-bye7709/blogpilot/internal/worker/autopost"
	"github.com/xxx-bye7709/blogpilot/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// .envファイルの読み込み（存在する場合のみ）、JSON構造化ログのセットアップ、
// 環境変数からのConfig読み込みを行う。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envの読み込み（存在しない場合は無視）
	_ = godotenv.Load()

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("wordpress_url", cfg.WordPressURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// buildPipeline はDB接続から記事生成パイプラインまでの依存関係を構築する。
// serveとworkerの両モードで共用する。
func buildPipeline(ctx context.Context, cfg *config.Config, scheduleService *schedule.Service, postLogRepo repository.PostLogRepository, collector *metrics.Collector) (*pipeline.Pipeline, product.Searcher, error) {
	guard := security.NewSSRFGuard()
	cleaner := sanitize.NewRegexCleaner()

	// ポリシー分類器（キーワードファイルは任意）
	policyCfg := policy.DefaultConfig()
	if cfg.PolicyKeywordsFile != "" {
		loaded, err := policy.LoadConfig(cfg.PolicyKeywordsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load policy keywords: %w", err)
		}
		policyCfg = loaded
	}
	classifier := policy.NewClassifier(policyCfg)

	// 生成バックエンド（APIキー未設定の場合は無効状態で生成される）
	llmClient, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize generation backend: %w", err)
	}
	if !llmClient.Available() {
		slog.Warn("生成バックエンドが無効です。商品レビューはフォールバック記事になります")
	}

	imageClient := imagegen.NewClient(
		guard.NewSafeClient(30*time.Second), slog.Default(),
		cfg.ImageAPIEndpoint, cfg.ImageAPIKey, cfg.ImageSize, cfg.ImageQuality,
	)

	productClient := product.NewClient(
		guard.NewSafeClient(15*time.Second), slog.Default(), cleaner,
		cfg.ProductAPIEndpoint, cfg.ProductAPIID, cfg.ProductAffiliateID,
		cfg.ProductSearchLimit,
	)

	gen := generator.New(llmClient, classifier, cleaner, seo.NewOptimizer(), imageClient,
		slog.Default(), generator.Options{
			Model:           cfg.GeminiModel,
			Temperature:     cfg.GenTemperature,
			MaxOutputTokens: cfg.GenMaxOutputTokens,
		})

	pub, err := publisher.NewWordPressPublisher(
		cfg.WordPressURL, cfg.WordPressBlogID,
		cfg.WordPressUsername, cfg.WordPressPassword,
		cfg.WordPressAuthorID, cfg.PublishTimeout, slog.Default(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize publisher: %w", err)
	}

	checker := dupcheck.NewChecker(
		guard.NewSafeClient(10*time.Second), slog.Default(),
		cfg.BlogFeedURL, cfg.DupCheckLimit,
	)

	pipe := pipeline.New(scheduleService, gen, pub, cta.NewInjector(), checker,
		productClient, classifier, postLogRepo, collector, slog.Default())

	return pipe, productClient, nil
}

// rateLimiterConfig はreq/min単位の設定値からレートリミッター設定に変換する。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	rlCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rlCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rlCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitGenerate > 0 {
		rlCfg.GenerateRate = rate.Limit(float64(cfg.RateLimitGenerate) / 60.0)
		rlCfg.GenerateBurst = cfg.RateLimitGenerate
	}
	return rlCfg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリとスケジュールサービス
	scheduleRepo := repository.NewPostgresScheduleRepo(db)
	postLogRepo := repository.NewPostgresPostLogRepo(db)
	scheduleService := schedule.NewService(scheduleRepo, cfg.Location())

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 記事生成パイプライン
	pipe, searcher, err := buildPipeline(ctx, cfg, scheduleService, postLogRepo, collector)
	if err != nil {
		return err
	}

	// 5. ルーターの構築
	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterConfig(cfg)),
		Logger:            slog.Default(),
		ScheduleService:   scheduleService,
		Pipeline:          pipe,
		PostLogs:          postLogRepo,
		ProductSearcher:   searcher,
		DB:                db,
		MetricsHandler:    metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // 記事生成リクエストはLLM応答を待つ
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 自動投稿スケジューラと投稿履歴クリーンアップジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリとスケジュールサービス
	scheduleRepo := repository.NewPostgresScheduleRepo(db)
	postLogRepo := repository.NewPostgresPostLogRepo(db)
	scheduleService := schedule.NewService(scheduleRepo, cfg.Location())

	// 3. メトリクス（ワーカーでも記録する。エクスポートはserve側のみ）
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 記事生成パイプライン
	pipe, _, err := buildPipeline(ctx, cfg, scheduleService, postLogRepo, collector)
	if err != nil {
		return err
	}

	// 5. スケジューラとクリーンアップジョブ
	scheduler := autopost.NewScheduler(scheduleService, pipe, slog.Default())

	cleanupJob := cleanup.NewJob(postLogRepo, slog.Default())
	if cfg.LogRetentionDays > 0 {
		cleanupJob.RetentionDays = cfg.LogRetentionDays
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("poll_interval", cfg.WorkerPollInterval),
		slog.Int("log_retention_days", cleanupJob.RetentionDays),
	)

	// クリーンアップジョブをバックグラウンドで起動（起動直後に1回実行）
	go func() {
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}
		cleanupJob.Start(ctx, 24*time.Hour)
	}()

	// 自動投稿スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.WorkerPollInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
