// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, generation, publish, storage, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeBackendUnavailable   = "BACKEND_UNAVAILABLE"
	ErrCodeInvalidConfiguration = "INVALID_CONFIGURATION"
	ErrCodeStorageError         = "STORAGE_ERROR"
	ErrCodePublishFailed        = "PUBLISH_FAILED"
	ErrCodePublishTimeout       = "PUBLISH_TIMEOUT"
	ErrCodeProductSearchFailed  = "PRODUCT_SEARCH_FAILED"
	ErrCodeScheduleDisabled     = "SCHEDULE_DISABLED"
	ErrCodeDailyLimitReached    = "DAILY_LIMIT_REACHED"
	ErrCodeEmptyCategories      = "EMPTY_CATEGORIES"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
)

// NewBackendUnavailableError は生成バックエンド呼び出し失敗エラーを生成する。
func NewBackendUnavailableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeBackendUnavailable,
		Message:  fmt.Sprintf("生成バックエンドの呼び出しに失敗しました: %s", reason),
		Category: "generation",
		Action:   "APIキーの設定を確認し、しばらく待ってから再度お試しください。",
	}
}

// NewInvalidConfigurationError は設定不正エラーを生成する。
func NewInvalidConfigurationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidConfiguration,
		Message:  fmt.Sprintf("スケジュール設定が不正です: %s", reason),
		Category: "validation",
		Action:   "スケジュール設定の内容を確認してください。",
	}
}

// NewStorageError はストア読み書き失敗エラーを生成する。
func NewStorageError(op string, err error) *APIError {
	return &APIError{
		Code:     ErrCodeStorageError,
		Message:  fmt.Sprintf("スケジュールストアの%sに失敗しました: %v", op, err),
		Category: "storage",
		Action:   "データベース接続を確認してください。",
	}
}

// NewPublishFailedError は投稿先への公開失敗エラーを生成する。
func NewPublishFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodePublishFailed,
		Message:  fmt.Sprintf("WordPressへの投稿に失敗しました: %s", reason),
		Category: "publish",
		Action:   "WordPressの接続設定と認証情報を確認してください。",
	}
}

// NewPublishTimeoutError は投稿タイムアウトエラーを生成する。
func NewPublishTimeoutError() *APIError {
	return &APIError{
		Code:     ErrCodePublishTimeout,
		Message:  "WordPressへの投稿がタイムアウトしました。",
		Category: "publish",
		Action:   "WordPressサーバーの応答状況を確認してください。",
	}
}

// NewProductSearchFailedError は商品検索失敗エラーを生成する。
func NewProductSearchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeProductSearchFailed,
		Message:  fmt.Sprintf("商品検索に失敗しました: %s", reason),
		Category: "generation",
		Action:   "検索キーワードとAPI認証情報を確認してください。",
	}
}

// NewScheduleDisabledError は自動投稿無効エラーを生成する。
func NewScheduleDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeScheduleDisabled,
		Message:  "自動投稿が無効です。",
		Category: "validation",
		Action:   "スケジュール設定から自動投稿を有効にしてください。",
	}
}

// NewDailyLimitReachedError は日次投稿上限到達エラーを生成する。
func NewDailyLimitReachedError(max int) *APIError {
	return &APIError{
		Code:     ErrCodeDailyLimitReached,
		Message:  fmt.Sprintf("1日の投稿上限（%d件）に達しました。", max),
		Category: "validation",
		Action:   "日付が変わるまで待つか、投稿上限を引き上げてください。",
	}
}

// NewEmptyCategoriesError はカテゴリローテーション空エラーを生成する。
func NewEmptyCategoriesError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyCategories,
		Message:  "カテゴリローテーションが空です。",
		Category: "validation",
		Action:   "スケジュール設定に少なくとも1つのカテゴリを追加してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}
