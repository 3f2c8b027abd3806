package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xxx-bye7709/blogpilot/internal/model"
)

type fakeSearcher struct {
	products  []model.Product
	err       error
	lastQuery string
	lastLimit int
}

func (f *fakeSearcher) Search(ctx context.Context, keyword string, limit int) ([]model.Product, error) {
	f.lastQuery = keyword
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

// TestProductSearch は商品検索の正常系を検証する。
func TestProductSearch(t *testing.T) {
	searcher := &fakeSearcher{products: []model.Product{
		{Title: "イヤホンA", Price: "12,800円", AffiliateURL: "https://example.com/a", Rating: "4.5"},
	}}
	h := NewProductHandler(searcher)

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/products/search?q=イヤホン&limit=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if searcher.lastQuery != "イヤホン" {
		t.Errorf("query = %q", searcher.lastQuery)
	}
	if searcher.lastLimit != 5 {
		t.Errorf("limit = %d, want 5", searcher.lastLimit)
	}

	var resp struct {
		Products []productResponse `json:"products"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("JSONパースに失敗: %v", err)
	}
	if len(resp.Products) != 1 || resp.Products[0].Title != "イヤホンA" {
		t.Errorf("products = %+v", resp.Products)
	}
}

// TestProductSearch_MissingQuery はキーワード未指定の拒否を検証する。
func TestProductSearch_MissingQuery(t *testing.T) {
	h := NewProductHandler(&fakeSearcher{})

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/products/search", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestProductSearch_InvalidLimit は不正なlimitの拒否を検証する。
func TestProductSearch_InvalidLimit(t *testing.T) {
	h := NewProductHandler(&fakeSearcher{})

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/products/search?q=a&limit=-1", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestProductSearch_BackendFailure は検索失敗が502になることを検証する。
func TestProductSearch_BackendFailure(t *testing.T) {
	h := NewProductHandler(&fakeSearcher{err: model.NewProductSearchFailedError("接続できませんでした")})

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/products/search?q=a", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var errResp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("JSONパースに失敗: %v", err)
	}
	if errResp.Code != model.ErrCodeProductSearchFailed {
		t.Errorf("Code = %q", errResp.Code)
	}
}
