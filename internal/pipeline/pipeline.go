// Package pipeline は記事生成から投稿までのオーケストレーションを提供する。
//
// パイプラインはエラーを外へ投げない最終境界であり、すべての失敗は
// Resultに畳み込まれる。自動投稿経路では投稿枠の予約（Reserve）が
// 先頭に立ち、下流の失敗時は補償解放（Release）で枠を返す。
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xxx-bye7709/blogpilot/internal/cta"
	"github.com/xxx-bye7709/blogpilot/internal/metrics"
	"github.com/xxx-bye7709/blogpilot/internal/model"
	"github.com/xxx-bye7709/blogpilot/internal/policy"
	"github.com/xxx-bye7709/blogpilot/internal/product"
	"github.com/xxx-bye7709/blogpilot/internal/publisher"
	"github.com/xxx-bye7709/blogpilot/internal/repository"
)

// Result はパイプライン実行の構造化された結果。
// 失敗してもエラーは返さず、Errorフィールドにメッセージを畳み込む。
type Result struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id,omitempty"`
	PostURL string `json:"post_url,omitempty"`
	Title   string `json:"title,omitempty"`
	Error   string `json:"error,omitempty"`
}

// slotReserver は自動投稿の投稿枠を予約・解放する。
type slotReserver interface {
	Reserve(ctx context.Context) (model.CategoryID, error)
	Release(ctx context.Context) error
}

// articleGenerator は記事生成のオーケストレータ。
type articleGenerator interface {
	GenerateArticle(ctx context.Context, category model.CategoryID) (*model.Article, error)
	GenerateProductReview(ctx context.Context, products []model.Product, keyword string) (*model.Article, error)
	FallbackProductArticle(products []model.Product, keyword string) *model.Article
}

// duplicateChecker は候補タイトルの重複トピックを判定する。
type duplicateChecker interface {
	IsDuplicate(ctx context.Context, title string) bool
}

// Pipeline は記事生成から投稿までの一連の流れを実行する。
type Pipeline struct {
	slots      slotReserver
	generator  articleGenerator
	publisher  publisher.Publisher
	injector   *cta.Injector
	dup        duplicateChecker
	searcher   product.Searcher
	classifier *policy.Classifier
	postLogs   repository.PostLogRepository
	metrics    metrics.MetricsCollector
	logger     *slog.Logger
}

// New はPipelineを生成する。dupはnil可（重複チェックなし）。
func New(slots slotReserver, generator articleGenerator, pub publisher.Publisher, injector *cta.Injector, dup duplicateChecker, searcher product.Searcher, classifier *policy.Classifier, postLogs repository.PostLogRepository, collector metrics.MetricsCollector, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		slots:      slots,
		generator:  generator,
		publisher:  pub,
		injector:   injector,
		dup:        dup,
		searcher:   searcher,
		classifier: classifier,
		postLogs:   postLogs,
		metrics:    collector,
		logger:     logger,
	}
}

// RunAutoPost は自動投稿の1サイクルを実行する。
// 投稿枠の予約とカテゴリ選択は1トランザクションで確定し、以降の
// 生成・投稿が失敗した場合は予約を解放して枠を返す。
func (p *Pipeline) RunAutoPost(ctx context.Context) *Result {
	category, err := p.slots.Reserve(ctx)
	if err != nil {
		p.metrics.RecordSlotBlocked(errorCode(err))
		p.logger.Info("自動投稿の実行が見送られました", slog.String("reason", err.Error()))
		return failure(err)
	}

	article, err := p.generator.GenerateArticle(ctx, category)
	if err != nil {
		p.releaseSlot(ctx)
		p.metrics.RecordPostFailed(string(category), errorCode(err))
		p.logger.Error("記事生成に失敗しました",
			slog.String("category", string(category)),
			slog.String("error", err.Error()),
		)
		return failure(err)
	}

	if p.dup != nil && p.dup.IsDuplicate(ctx, article.Title) {
		p.releaseSlot(ctx)
		p.metrics.RecordDuplicateSkipped(string(category))
		p.logger.Info("重複トピックのため自動投稿をスキップしました",
			slog.String("title", article.Title),
		)
		return &Result{Success: false, Title: article.Title, Error: "直近の投稿と重複するトピックのためスキップしました"}
	}

	result, err := p.publish(ctx, article)
	if err != nil {
		p.releaseSlot(ctx)
		p.metrics.RecordPostFailed(string(category), errorCode(err))
		return failure(err)
	}

	p.recordPostLog(ctx, article, result, true)
	p.metrics.RecordPostPublished(string(category), true)

	return success(article, result)
}

// RunCategoryArticle は指定カテゴリの記事を手動生成・投稿する。
// 手動経路のため投稿枠の予約は行わない。
func (p *Pipeline) RunCategoryArticle(ctx context.Context, category model.CategoryID) *Result {
	if !model.KnownCategories[category] {
		return failure(model.NewInvalidRequestError("未知のカテゴリです: " + string(category)))
	}

	article, err := p.generator.GenerateArticle(ctx, category)
	if err != nil {
		p.metrics.RecordPostFailed(string(category), errorCode(err))
		return failure(err)
	}

	result, err := p.publish(ctx, article)
	if err != nil {
		p.metrics.RecordPostFailed(string(category), errorCode(err))
		return failure(err)
	}

	p.recordPostLog(ctx, article, result, false)
	p.metrics.RecordPostPublished(string(category), false)

	return success(article, result)
}

// RunProductReview は商品レビュー記事を生成し、下書きとして投稿する。
// 商品リストが空の場合はキーワードで検索する。生成バックエンドが利用
// できない場合は決定的なフォールバック記事で補完する。
func (p *Pipeline) RunProductReview(ctx context.Context, keyword string, products []model.Product) *Result {
	if keyword == "" {
		return failure(model.NewInvalidRequestError("キーワードが指定されていません"))
	}

	if len(products) == 0 {
		var err error
		products, err = p.searcher.Search(ctx, keyword, 0)
		if err != nil {
			return failure(err)
		}
		if len(products) == 0 {
			return failure(model.NewProductSearchFailedError("該当する商品が見つかりませんでした"))
		}
	}

	p.metrics.RecordSeverityRouting(p.isHighSeverity(products, keyword))

	article, err := p.generator.GenerateProductReview(ctx, products, keyword)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeBackendUnavailable {
			p.metrics.RecordGenerationFallback("offline_product")
			p.logger.Warn("生成バックエンドが利用できないためフォールバック記事を使用します",
				slog.String("keyword", keyword),
			)
			article = p.generator.FallbackProductArticle(products, keyword)
		} else {
			return failure(err)
		}
	}

	article.Content = p.injector.IntegrateWithProductArticle(article.Content)

	result, err := p.publish(ctx, article)
	if err != nil {
		p.metrics.RecordPostFailed(string(article.Category), errorCode(err))
		return failure(err)
	}

	p.recordPostLog(ctx, article, result, false)
	p.metrics.RecordPostPublished(string(article.Category), false)

	return success(article, result)
}

// publish は記事を投稿し、レイテンシを記録する。
func (p *Pipeline) publish(ctx context.Context, article *model.Article) (*publisher.Result, error) {
	start := time.Now()
	result, err := p.publisher.Publish(ctx, article)
	p.metrics.RecordPublishLatency(time.Since(start))
	return result, err
}

// releaseSlot は予約済みの投稿枠を解放する。解放の失敗はログのみ。
func (p *Pipeline) releaseSlot(ctx context.Context) {
	if err := p.slots.Release(ctx); err != nil {
		p.logger.Error("投稿枠の解放に失敗しました", slog.String("error", err.Error()))
	}
}

// recordPostLog は投稿ログを記録する。記録の失敗は投稿成功を覆さない。
func (p *Pipeline) recordPostLog(ctx context.Context, article *model.Article, result *publisher.Result, automatic bool) {
	log := &model.PostLog{
		Category:    article.Category,
		Title:       article.Title,
		PostID:      result.PostID,
		PostURL:     result.URL,
		Status:      article.Status,
		IsAutomatic: automatic,
	}
	if err := p.postLogs.Create(ctx, log); err != nil {
		p.logger.Error("投稿ログの記録に失敗しました",
			slog.String("post_id", result.PostID),
			slog.String("error", err.Error()),
		)
	}
}

// isHighSeverity は深刻度ルーティングのメトリクス記録用の再判定。
func (p *Pipeline) isHighSeverity(products []model.Product, keyword string) bool {
	texts := make([]string, 0, len(products)*2+1)
	texts = append(texts, keyword)
	for _, pr := range products {
		texts = append(texts, pr.Title, pr.Description)
	}
	return p.classifier.AnyHighSeverity(texts...)
}

// failure はエラーを畳み込んだ失敗結果を返す。
func failure(err error) *Result {
	return &Result{Success: false, Error: err.Error()}
}

// success は投稿成功の結果を返す。
func success(article *model.Article, result *publisher.Result) *Result {
	return &Result{
		Success: true,
		PostID:  result.PostID,
		PostURL: result.URL,
		Title:   article.Title,
	}
}

// errorCode はAPIErrorのコードを取り出す。それ以外はUNKNOWN。
func errorCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return "UNKNOWN"
}
