package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xxx-bye7709/blogpilot/internal/model"
	"github.com/xxx-bye7709/blogpilot/internal/schedule"
)

type fakeScheduleService struct {
	schedule  *model.Schedule
	err       error
	lastInput *schedule.UpdateInput
	toggled   *bool
}

func (f *fakeScheduleService) GetSchedule(ctx context.Context) *model.Schedule {
	return f.schedule
}

func (f *fakeScheduleService) SetSchedule(ctx context.Context, input *schedule.UpdateInput) (*model.Schedule, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.schedule, nil
}

func (f *fakeScheduleService) Toggle(ctx context.Context, enabled bool) (*model.Schedule, error) {
	f.toggled = &enabled
	if f.err != nil {
		return nil, f.err
	}
	f.schedule.Enabled = enabled
	return f.schedule, nil
}

func testSchedule() *model.Schedule {
	last := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.Schedule{
		Enabled:        true,
		Interval:       model.IntervalHourly,
		Categories:     []model.CategoryID{model.CategoryAnime, model.CategoryGame},
		CategoryIndex:  1,
		MaxDailyPosts:  5,
		TodayPostCount: 2,
		LastPostDate:   &last,
		UpdatedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// TestGetSchedule はスケジュール取得の正常系を検証する。
func TestGetSchedule(t *testing.T) {
	h := NewScheduleHandler(&fakeScheduleService{schedule: testSchedule()})

	rec := httptest.NewRecorder()
	h.GetSchedule(rec, httptest.NewRequest(http.MethodGet, "/api/schedule", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp scheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("JSONパースに失敗: %v", err)
	}
	if !resp.Enabled {
		t.Error("Enabled = false, want true")
	}
	if resp.Interval != "hourly" {
		t.Errorf("Interval = %q, want hourly", resp.Interval)
	}
	if len(resp.Categories) != 2 || resp.Categories[0] != "anime" {
		t.Errorf("Categories = %v", resp.Categories)
	}
	if resp.TodayPostCount != 2 {
		t.Errorf("TodayPostCount = %d, want 2", resp.TodayPostCount)
	}
	if resp.LastPostDate == nil {
		t.Error("LastPostDateが設定されるべき")
	}
}

// TestUpdateSchedule_PartialUpdate は部分更新リクエストの変換を検証する。
func TestUpdateSchedule_PartialUpdate(t *testing.T) {
	svc := &fakeScheduleService{schedule: testSchedule()}
	h := NewScheduleHandler(svc)

	body := `{"post_interval": "daily", "max_daily_posts": 3}`
	rec := httptest.NewRecorder()
	h.UpdateSchedule(rec, httptest.NewRequest(http.MethodPut, "/api/schedule", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.lastInput == nil {
		t.Fatal("SetScheduleが呼ばれていない")
	}
	if svc.lastInput.Enabled != nil {
		t.Error("省略されたenabledはnilであるべき")
	}
	if svc.lastInput.Interval == nil || *svc.lastInput.Interval != model.IntervalDaily {
		t.Errorf("Interval = %v", svc.lastInput.Interval)
	}
	if svc.lastInput.Categories != nil {
		t.Error("省略されたcategoriesはnilであるべき")
	}
	if svc.lastInput.MaxDailyPosts == nil || *svc.lastInput.MaxDailyPosts != 3 {
		t.Errorf("MaxDailyPosts = %v", svc.lastInput.MaxDailyPosts)
	}
}

// TestUpdateSchedule_InvalidBody は不正なボディの拒否を検証する。
func TestUpdateSchedule_InvalidBody(t *testing.T) {
	h := NewScheduleHandler(&fakeScheduleService{schedule: testSchedule()})

	rec := httptest.NewRecorder()
	h.UpdateSchedule(rec, httptest.NewRequest(http.MethodPut, "/api/schedule", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestUpdateSchedule_ValidationError はサービス層の検証エラーが400になることを検証する。
func TestUpdateSchedule_ValidationError(t *testing.T) {
	svc := &fakeScheduleService{
		schedule: testSchedule(),
		err:      model.NewInvalidConfigurationError("post_intervalが不正です"),
	}
	h := NewScheduleHandler(svc)

	body := `{"post_interval": "every_5_minutes"}`
	rec := httptest.NewRecorder()
	h.UpdateSchedule(rec, httptest.NewRequest(http.MethodPut, "/api/schedule", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var errResp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("JSONパースに失敗: %v", err)
	}
	if errResp.Code != model.ErrCodeInvalidConfiguration {
		t.Errorf("Code = %q", errResp.Code)
	}
}

// TestToggle は有効/無効の切り替えを検証する。
func TestToggle(t *testing.T) {
	svc := &fakeScheduleService{schedule: testSchedule()}
	h := NewScheduleHandler(svc)

	rec := httptest.NewRecorder()
	h.Toggle(rec, httptest.NewRequest(http.MethodPost, "/api/schedule/toggle", strings.NewReader(`{"enabled": false}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.toggled == nil || *svc.toggled != false {
		t.Errorf("toggled = %v, want false", svc.toggled)
	}

	var resp scheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("JSONパースに失敗: %v", err)
	}
	if resp.Enabled {
		t.Error("Enabled = true, want false")
	}
}

// TestToggle_StorageError はストア障害が500になることを検証する。
func TestToggle_StorageError(t *testing.T) {
	svc := &fakeScheduleService{
		schedule: testSchedule(),
		err:      model.NewStorageError("保存", context.DeadlineExceeded),
	}
	h := NewScheduleHandler(svc)

	rec := httptest.NewRecorder()
	h.Toggle(rec, httptest.NewRequest(http.MethodPost, "/api/schedule/toggle", strings.NewReader(`{"enabled": true}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
