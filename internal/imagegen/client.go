// Package imagegen はアイキャッチ画像生成APIのクライアントを提供する。
// 画像生成は記事生成の任意工程であり、失敗しても記事生成自体は継続する。
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Client は画像生成APIのクライアント。
// プロンプトを送信して生成画像のURLを受け取る。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
	apiKey     string
	size       string
	quality    string
}

// NewClient はClientの新しいインスタンスを生成する。
// endpointが空の場合は無効化されたクライアントとなり、
// GenerateURLは常に空文字列を返す。
func NewClient(httpClient *http.Client, logger *slog.Logger, endpoint, apiKey, size, quality string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
		apiKey:     apiKey,
		size:       size,
		quality:    quality,
	}
}

// Available は画像生成APIが設定されているかどうかを返す。
func (c *Client) Available() bool {
	return c.endpoint != ""
}

// generateRequest は画像生成APIへのリクエストボディ。
type generateRequest struct {
	Prompt  string `json:"prompt"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
}

// generateResponse は画像生成APIのレスポンスボディ。
type generateResponse struct {
	URL string `json:"url"`
}

// GenerateURL はプロンプトから画像を生成し、画像URLを返す。
// 未設定・通信失敗・不正レスポンスのいずれの場合も空文字列を返す。
// エラーはログに記録するのみで呼び出し元へは返さない（画像は任意要素のため）。
func (c *Client) GenerateURL(ctx context.Context, prompt string) string {
	if c.endpoint == "" {
		return ""
	}

	body, err := json.Marshal(generateRequest{
		Prompt:  prompt,
		Size:    c.size,
		Quality: c.quality,
	})
	if err != nil {
		c.logger.Error("画像生成リクエストのエンコードに失敗しました",
			slog.String("error", err.Error()),
		)
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("画像生成リクエストの作成に失敗しました",
			slog.String("error", err.Error()),
		)
		return ""
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("画像生成APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("画像生成APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return ""
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("画像生成APIのレスポンスの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return ""
	}

	var result generateResponse
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("画像生成APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return ""
	}

	return result.URL
}
