package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/xxx-bye7709/blogpilot/internal/middleware"
	"github.com/xxx-bye7709/blogpilot/internal/model"
	"github.com/xxx-bye7709/blogpilot/internal/pipeline"
)

// PipelineInterface は投稿ハンドラーが必要とするパイプラインインターフェース。
type PipelineInterface interface {
	// RunAutoPost は自動投稿の1サイクルを実行する。
	RunAutoPost(ctx context.Context) *pipeline.Result
	// RunCategoryArticle は指定カテゴリの記事を手動生成・投稿する。
	RunCategoryArticle(ctx context.Context, category model.CategoryID) *pipeline.Result
	// RunProductReview は商品レビュー記事を生成し、下書きとして投稿する。
	RunProductReview(ctx context.Context, keyword string, products []model.Product) *pipeline.Result
}

// PostLogLister は投稿履歴の取得インターフェース。
type PostLogLister interface {
	ListRecent(ctx context.Context, limit int) ([]*model.PostLog, error)
}

// PostHandler は記事生成・投稿のHTTPハンドラー。
type PostHandler struct {
	pipeline PipelineInterface
	postLogs PostLogLister
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(p PipelineInterface, postLogs PostLogLister) *PostHandler {
	return &PostHandler{
		pipeline: p,
		postLogs: postLogs,
	}
}

// generateArticleRequest はカテゴリ記事生成リクエストのボディ。
type generateArticleRequest struct {
	Category string `json:"category"`
}

// productInput は商品レビューリクエストに含める商品情報。
type productInput struct {
	Title        string `json:"title"`
	Price        string `json:"price"`
	AffiliateURL string `json:"affiliate_url"`
	ImageURL     string `json:"image_url"`
	Description  string `json:"description"`
	Rating       string `json:"rating"`
	ReviewCount  string `json:"review_count"`
}

// productReviewRequest は商品レビュー記事生成リクエストのボディ。
// productsを省略した場合はキーワードで検索する。
type productReviewRequest struct {
	Keyword  string         `json:"keyword"`
	Products []productInput `json:"products"`
}

// postLogResponse は投稿履歴1件のAPIレスポンス。
type postLogResponse struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	PostID      string `json:"post_id"`
	PostURL     string `json:"post_url"`
	Status      string `json:"status"`
	IsAutomatic bool   `json:"is_automatic"`
	CreatedAt   string `json:"created_at"`
}

// AutoPost は自動投稿の1サイクルを実行する。スケジューラーや外部cronからの
// トリガーを受け付けるエンドポイント。
// POST /api/posts/auto
func (h *PostHandler) AutoPost(w http.ResponseWriter, r *http.Request) {
	result := h.pipeline.RunAutoPost(r.Context())
	writePipelineResult(w, result)
}

// GenerateArticle は指定カテゴリの記事を生成・投稿する。
// POST /api/posts/article
func (h *PostHandler) GenerateArticle(w http.ResponseWriter, r *http.Request) {
	var req generateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestBody(w)
		return
	}
	if req.Category == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("categoryが指定されていません"))
		return
	}

	result := h.pipeline.RunCategoryArticle(r.Context(), model.CategoryID(req.Category))
	writePipelineResult(w, result)
}

// GenerateProductReview は商品レビュー記事を生成・投稿する。
// POST /api/posts/product-review
func (h *PostHandler) GenerateProductReview(w http.ResponseWriter, r *http.Request) {
	var req productReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestBody(w)
		return
	}
	if req.Keyword == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("keywordが指定されていません"))
		return
	}

	products := make([]model.Product, len(req.Products))
	for i, p := range req.Products {
		products[i] = model.Product{
			Title:        p.Title,
			Price:        p.Price,
			AffiliateURL: p.AffiliateURL,
			ImageURL:     p.ImageURL,
			Description:  p.Description,
			Rating:       p.Rating,
			ReviewCount:  p.ReviewCount,
		}
	}

	result := h.pipeline.RunProductReview(r.Context(), req.Keyword, products)
	writePipelineResult(w, result)
}

// ListPostLogs は直近の投稿履歴を返す。
// GET /api/posts/logs
func (h *PostHandler) ListPostLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("limitは正の整数で指定してください"))
			return
		}
		limit = parsed
	}

	logs, err := h.postLogs.ListRecent(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]postLogResponse, len(logs))
	for i, log := range logs {
		responses[i] = postLogResponse{
			ID:          log.ID,
			Category:    string(log.Category),
			Title:       log.Title,
			PostID:      log.PostID,
			PostURL:     log.PostURL,
			Status:      string(log.Status),
			IsAutomatic: log.IsAutomatic,
			CreatedAt:   log.CreatedAt.Format(time.RFC3339),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"logs": responses})
}

// writePipelineResult はパイプラインの実行結果を書き込む。
// 失敗もResultに畳み込まれているため、ステータスは常に200を返す。
func writePipelineResult(w http.ResponseWriter, result *pipeline.Result) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
