package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/xxx-bye7709/blogpilot/internal/middleware"
	"github.com/xxx-bye7709/blogpilot/internal/model"
)

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidConfiguration, model.ErrCodeEmptyCategories:
		return http.StatusBadRequest
	case model.ErrCodeScheduleDisabled, model.ErrCodeDailyLimitReached:
		return http.StatusConflict
	case model.ErrCodeProductSearchFailed, model.ErrCodePublishFailed:
		return http.StatusBadGateway
	case model.ErrCodePublishTimeout:
		return http.StatusGatewayTimeout
	case model.ErrCodeBackendUnavailable:
		return http.StatusServiceUnavailable
	case model.ErrCodeStorageError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeBadRequestBody はリクエストボディの解析失敗レスポンスを書き込む。
func writeBadRequestBody(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     model.ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}
