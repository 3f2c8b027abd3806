// Package product は商品検索APIのクライアントと商品レコードの正規化を提供する。
package product

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/xxx-bye7709/blogpilot/internal/model"
	"github.com/xxx-bye7709/blogpilot/internal/sanitize"
)

// maxSearchLimit は1回の検索で取得できる商品数の上限。
const maxSearchLimit = 20

// Searcher は商品検索機能のインターフェースを定義する。
type Searcher interface {
	// Search はキーワードで商品を検索し、正規化済みの商品リストを返す。
	Search(ctx context.Context, keyword string, limit int) ([]model.Product, error)
}

// Client はDMMアフィリエイトAPI互換の商品検索クライアント。
type Client struct {
	httpClient   *http.Client
	logger       *slog.Logger
	cleaner      sanitize.Cleaner
	endpoint     string
	apiID        string
	affiliateID  string
	defaultLimit int
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, cleaner sanitize.Cleaner, endpoint, apiID, affiliateID string, defaultLimit int) *Client {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	return &Client{
		httpClient:   httpClient,
		logger:       logger,
		cleaner:      cleaner,
		endpoint:     endpoint,
		apiID:        apiID,
		affiliateID:  affiliateID,
		defaultLimit: defaultLimit,
	}
}

// dmmResponse はDMMアフィリエイトAPIのレスポンス。
type dmmResponse struct {
	Result struct {
		Items []rawDMMItem `json:"items"`
	} `json:"result"`
}

// genericResponse は汎用JSON APIのレスポンス。
type genericResponse struct {
	Items []rawGenericItem `json:"items"`
}

// Search はキーワードで商品を検索し、正規化済みの商品リストを返す。
// limitが0以下の場合は設定の既定値を使用する。
// プロバイダのレスポンス形式（DMM形式・汎用形式）はレスポンス構造から判別する。
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]model.Product, error) {
	if keyword == "" {
		return nil, model.NewInvalidRequestError("検索キーワードが空です")
	}
	if limit <= 0 {
		limit = c.defaultLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, model.NewProductSearchFailedError(fmt.Sprintf("エンドポイントURLが不正です: %v", err))
	}

	q := reqURL.Query()
	q.Set("api_id", c.apiID)
	q.Set("affiliate_id", c.affiliateID)
	q.Set("keyword", keyword)
	q.Set("hits", strconv.Itoa(limit))
	q.Set("output", "json")
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, model.NewProductSearchFailedError(err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("商品検索APIの呼び出しに失敗しました",
			slog.String("keyword", keyword),
			slog.String("error", err.Error()),
		)
		return nil, model.NewProductSearchFailedError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("商品検索APIがエラーステータスを返しました",
			slog.String("keyword", keyword),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewProductSearchFailedError(fmt.Sprintf("ステータス %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewProductSearchFailedError(fmt.Sprintf("レスポンスの読み取りに失敗しました: %v", err))
	}

	products, err := c.decodeItems(body)
	if err != nil {
		c.logger.Error("商品検索APIのレスポンスのパースに失敗しました",
			slog.String("keyword", keyword),
			slog.String("error", err.Error()),
		)
		return nil, model.NewProductSearchFailedError(err.Error())
	}

	return products, nil
}

// decodeItems はレスポンスボディを正規化済みの商品リストに変換する。
// DMM形式（result.itemsあり）を先に試し、なければ汎用形式として扱う。
func (c *Client) decodeItems(body []byte) ([]model.Product, error) {
	var dmm dmmResponse
	if err := json.Unmarshal(body, &dmm); err == nil && len(dmm.Result.Items) > 0 {
		products := make([]model.Product, 0, len(dmm.Result.Items))
		for _, item := range dmm.Result.Items {
			products = append(products, Normalize(rawItem{provider: providerDMM, dmm: item}, c.cleaner))
		}
		return products, nil
	}

	var generic genericResponse
	if err := json.Unmarshal(body, &generic); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	products := make([]model.Product, 0, len(generic.Items))
	for _, item := range generic.Items {
		products = append(products, Normalize(rawItem{provider: providerGeneric, generic: item}, c.cleaner))
	}
	return products, nil
}

// compile-time interface check
var _ Searcher = (*Client)(nil)
