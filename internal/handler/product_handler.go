package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/xxx-bye7709/blogpilot/internal/middleware"
	"github.com/xxx-bye7709/blogpilot/internal/model"
	"github.com/xxx-bye7709/blogpilot/internal/product"
)

// ProductHandler は商品検索のHTTPハンドラー。
type ProductHandler struct {
	searcher product.Searcher
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(searcher product.Searcher) *ProductHandler {
	return &ProductHandler{searcher: searcher}
}

// productResponse は商品1件のAPIレスポンス。
type productResponse struct {
	Title        string `json:"title"`
	Price        string `json:"price"`
	AffiliateURL string `json:"affiliate_url"`
	ImageURL     string `json:"image_url"`
	Description  string `json:"description"`
	Rating       string `json:"rating"`
	ReviewCount  string `json:"review_count"`
}

// Search は商品をキーワード検索する。
// GET /api/products/search?q=&limit=
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("qが指定されていません"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("limitは正の整数で指定してください"))
			return
		}
		limit = parsed
	}

	products, err := h.searcher.Search(r.Context(), keyword, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]productResponse, len(products))
	for i, p := range products {
		responses[i] = productResponse{
			Title:        p.Title,
			Price:        p.Price,
			AffiliateURL: p.AffiliateURL,
			ImageURL:     p.ImageURL,
			Description:  p.Description,
			Rating:       p.Rating,
			ReviewCount:  p.ReviewCount,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"products": responses})
}
