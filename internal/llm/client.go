// Package llm は記事生成バックエンド（Gemini）のクライアントを提供する。
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/xxx-bye7709/blogpilot/internal/model"
)

// Message は生成リクエストの1メッセージを表す。
type Message struct {
	// Role は "system" または "user"。
	Role string
	// Text はメッセージ本文。
	Text string
}

// Request はテキスト生成のリクエストを表す。
type Request struct {
	// Model は使用するモデル名。空の場合はクライアントのデフォルト。
	Model string
	// Messages はsystem/userロールのメッセージ列。
	Messages []Message
	// Temperature は0より大きい場合のみ指定として扱う。
	Temperature float64
	// MaxOutputTokens は0より大きい場合のみ指定として扱う。
	MaxOutputTokens int
}

// TextGenerator はテキスト生成バックエンドのインターフェース。
type TextGenerator interface {
	// Generate はリクエストに対する生成テキストを返す。
	Generate(ctx context.Context, req *Request) (string, error)

	// Available はバックエンドが利用可能（認証情報あり）かどうかを返す。
	Available() bool
}

// GeminiClient はGemini APIを使用したTextGenerator実装。
// APIキーが未設定の場合は無効化された状態で生成され、
// GenerateはBACKEND_UNAVAILABLEエラーを返す。呼び出し側は
// これを合図にフォールバック経路へ迂回する。
type GeminiClient struct {
	client       *genai.Client
	defaultModel string
}

// NewGeminiClient はGeminiClientを生成する。
// apiKeyが空の場合はエラーにせず、無効化されたクライアントを返す。
func NewGeminiClient(ctx context.Context, apiKey, defaultModel string) (*GeminiClient, error) {
	if apiKey == "" {
		return &GeminiClient{defaultModel: defaultModel}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの生成に失敗しました: %w", err)
	}

	return &GeminiClient{client: client, defaultModel: defaultModel}, nil
}

// Available はAPIキーが設定されているかどうかを返す。
func (c *GeminiClient) Available() bool {
	return c.client != nil
}

// Generate はGemini APIでテキストを生成する。
// コンテキストのデッドラインはAPI呼び出しに伝播する。
func (c *GeminiClient) Generate(ctx context.Context, req *Request) (string, error) {
	if c.client == nil {
		return "", model.NewBackendUnavailableError("APIキーが設定されていません")
	}

	modelName := req.Model
	if modelName == "" {
		modelName = c.defaultModel
	}

	contents, config := buildRequest(req)

	resp, err := c.client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", model.NewBackendUnavailableError(err.Error())
	}

	text := resp.Text()
	if text == "" {
		return "", model.NewBackendUnavailableError("バックエンドの応答が空です")
	}

	return text, nil
}

// buildRequest はRequestをgenaiのコンテンツと生成設定に変換する。
// systemロールはSystemInstructionに、それ以外はuserコンテンツに割り当てる。
func buildRequest(req *Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	var contents []*genai.Content
	var system string

	for _, m := range req.Messages {
		if m.Role == "system" {
			if system != "" {
				system += "\n"
			}
			system += m.Text
			continue
		}
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: m.Text}},
			Role:  "user",
		})
	}

	var config *genai.GenerateContentConfig
	if system != "" || req.MaxOutputTokens > 0 || req.Temperature > 0 {
		config = &genai.GenerateContentConfig{}
		if system != "" {
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: system}},
			}
		}
		if req.MaxOutputTokens > 0 {
			config.MaxOutputTokens = int32(req.MaxOutputTokens)
		}
		if req.Temperature > 0 {
			config.Temperature = genai.Ptr(float32(req.Temperature))
		}
	}

	return contents, config
}

// compile-time interface check
var _ TextGenerator = (*GeminiClient)(nil)
