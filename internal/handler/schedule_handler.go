package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/xxx-bye7709/blogpilot/internal/model"
	"github.com/xxx-bye7709/blogpilot/internal/schedule"
)

// ScheduleServiceInterface はスケジュールハンドラーが必要とするサービスインターフェース。
type ScheduleServiceInterface interface {
	// GetSchedule は現在のスケジュールを返す。決して失敗しない。
	GetSchedule(ctx context.Context) *model.Schedule
	// SetSchedule は部分更新を検証・マージして保存する。
	SetSchedule(ctx context.Context, input *schedule.UpdateInput) (*model.Schedule, error)
	// Toggle は自動投稿の有効/無効を切り替える。
	Toggle(ctx context.Context, enabled bool) (*model.Schedule, error)
}

// ScheduleHandler はスケジュール管理のHTTPハンドラー。
type ScheduleHandler struct {
	service ScheduleServiceInterface
}

// NewScheduleHandler はScheduleHandlerを生成する。
func NewScheduleHandler(service ScheduleServiceInterface) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// updateScheduleRequest はスケジュール更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateScheduleRequest struct {
	Enabled       *bool    `json:"enabled"`
	Interval      *string  `json:"post_interval"`
	Categories    []string `json:"categories"`
	MaxDailyPosts *int     `json:"max_daily_posts"`
}

// toggleRequest は自動投稿トグルリクエストのボディ。
type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

// scheduleResponse はスケジュールのAPIレスポンス。
type scheduleResponse struct {
	Enabled        bool     `json:"enabled"`
	Interval       string   `json:"post_interval"`
	Categories     []string `json:"categories"`
	CategoryIndex  int      `json:"category_index"`
	MaxDailyPosts  int      `json:"max_daily_posts"`
	TodayPostCount int      `json:"today_post_count"`
	LastPostDate   *string  `json:"last_post_date"`
	UpdatedAt      string   `json:"updated_at"`
}

// GetSchedule は現在のスケジュールを返す。
// GET /api/schedule
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sch := h.service.GetSchedule(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toScheduleResponse(sch))
}

// UpdateSchedule はスケジュールを部分更新する。
// PUT /api/schedule
func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req updateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestBody(w)
		return
	}

	input := &schedule.UpdateInput{
		Enabled:       req.Enabled,
		MaxDailyPosts: req.MaxDailyPosts,
	}
	if req.Interval != nil {
		interval := model.PostInterval(*req.Interval)
		input.Interval = &interval
	}
	if req.Categories != nil {
		input.Categories = make([]model.CategoryID, len(req.Categories))
		for i, c := range req.Categories {
			input.Categories[i] = model.CategoryID(c)
		}
	}

	updated, err := h.service.SetSchedule(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toScheduleResponse(updated))
}

// Toggle は自動投稿の有効/無効を切り替える。
// POST /api/schedule/toggle
func (h *ScheduleHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestBody(w)
		return
	}

	updated, err := h.service.Toggle(r.Context(), req.Enabled)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toScheduleResponse(updated))
}

// toScheduleResponse はmodel.ScheduleからAPIレスポンスに変換する。
func toScheduleResponse(sch *model.Schedule) scheduleResponse {
	categories := make([]string, len(sch.Categories))
	for i, c := range sch.Categories {
		categories[i] = string(c)
	}

	resp := scheduleResponse{
		Enabled:        sch.Enabled,
		Interval:       string(sch.Interval),
		Categories:     categories,
		CategoryIndex:  sch.CategoryIndex,
		MaxDailyPosts:  sch.MaxDailyPosts,
		TodayPostCount: sch.TodayPostCount,
		UpdatedAt:      sch.UpdatedAt.Format(time.RFC3339),
	}
	if sch.LastPostDate != nil {
		last := sch.LastPostDate.Format(time.RFC3339)
		resp.LastPostDate = &last
	}
	return resp
}
