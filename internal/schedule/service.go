// Package schedule は自動投稿スケジュールの状態管理を提供する。
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xxx-bye7709/blogpilot/internal/model"
	"github.com/xxx-bye7709/blogpilot/internal/repository"
)

// 投稿ゲートの拒否理由。
const (
	ReasonDisabled   = "自動投稿が無効です"
	ReasonDailyLimit = "1日の投稿上限に達しました"
)

// Service はスケジュールの読み書きと投稿ゲート判定を提供する。
// 日付変更の判定はタイマーを使わず、アクセス時に遅延評価する。
type Service struct {
	repo repository.ScheduleRepository
	loc  *time.Location
	now  func() time.Time
}

// NewService はServiceを生成する。locは日付変更判定に使用するタイムゾーン。
func NewService(repo repository.ScheduleRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo: repo,
		loc:  loc,
		now:  time.Now,
	}
}

// UpdateInput はSetScheduleの部分更新内容を表す。
// nilのフィールドは変更しない。
type UpdateInput struct {
	Enabled       *bool
	Interval      *model.PostInterval
	Categories    []model.CategoryID
	MaxDailyPosts *int
}

// GetSchedule は現在のスケジュールを返す。保存されていない場合は
// デフォルトを永続化して返す。ストアの障害時もデフォルトを返し、
// 決して失敗しない。
func (s *Service) GetSchedule(ctx context.Context) *model.Schedule {
	stored, err := s.repo.Find(ctx)
	if err != nil {
		slog.Warn("スケジュールの読み込みに失敗、デフォルトを返します", slog.String("error", err.Error()))
		return model.DefaultSchedule()
	}
	if stored != nil {
		return stored
	}

	def := model.DefaultSchedule()
	def.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, def); err != nil {
		slog.Warn("デフォルトスケジュールの保存に失敗", slog.String("error", err.Error()))
	}
	return def
}

// SetSchedule は部分更新を検証・マージして保存する。
// 不正な値はINVALID_CONFIGURATION、保存失敗はSTORAGE_ERRORを返す。
func (s *Service) SetSchedule(ctx context.Context, input *UpdateInput) (*model.Schedule, error) {
	if input.Interval != nil && !input.Interval.IsValid() {
		return nil, model.NewInvalidConfigurationError("post_intervalが不正です: " + string(*input.Interval))
	}
	if input.Categories != nil {
		if len(input.Categories) == 0 {
			return nil, model.NewInvalidConfigurationError("categoriesを空にすることはできません")
		}
		for _, c := range input.Categories {
			if !model.KnownCategories[c] {
				return nil, model.NewInvalidConfigurationError("未知のカテゴリです: " + string(c))
			}
		}
	}
	if input.MaxDailyPosts != nil && *input.MaxDailyPosts < 1 {
		return nil, model.NewInvalidConfigurationError("max_daily_postsは1以上である必要があります")
	}

	var updated *model.Schedule
	err := s.repo.WithLock(ctx, func(sch *model.Schedule) error {
		if input.Enabled != nil {
			sch.Enabled = *input.Enabled
		}
		if input.Interval != nil {
			sch.Interval = *input.Interval
		}
		if input.Categories != nil {
			sch.Categories = make([]model.CategoryID, len(input.Categories))
			copy(sch.Categories, input.Categories)
			// ローテーションのカーソルは新リストの先頭に戻す
			sch.CategoryIndex = 0
		}
		if input.MaxDailyPosts != nil {
			sch.MaxDailyPosts = *input.MaxDailyPosts
		}
		updated = sch.Clone()
		return nil
	})
	if err != nil {
		return nil, s.asStorageError("保存", err)
	}
	return updated, nil
}

// Toggle は自動投稿の有効/無効を切り替える。
func (s *Service) Toggle(ctx context.Context, enabled bool) (*model.Schedule, error) {
	var updated *model.Schedule
	err := s.repo.WithLock(ctx, func(sch *model.Schedule) error {
		sch.Enabled = enabled
		updated = sch.Clone()
		return nil
	})
	if err != nil {
		return nil, s.asStorageError("保存", err)
	}
	return updated, nil
}

// NextCategory はローテーションの現在カテゴリを返し、カーソルを1つ進める。
// ローテーションが空の場合はEMPTY_CATEGORIESエラーを返す。
func (s *Service) NextCategory(ctx context.Context) (model.CategoryID, error) {
	var category model.CategoryID
	err := s.repo.WithLock(ctx, func(sch *model.Schedule) error {
		if len(sch.Categories) == 0 {
			return model.NewEmptyCategoriesError()
		}
		idx := sch.CategoryIndex % len(sch.Categories)
		category = sch.Categories[idx]
		sch.CategoryIndex = (idx + 1) % len(sch.Categories)
		return nil
	})
	if err != nil {
		return "", s.asStorageError("更新", err)
	}
	return category, nil
}

// CanExecute は自動投稿を実行できるかを判定する。
// 拒否の場合は理由を返す。日付が変わっていた場合はカウンタをリセットし、
// その日最初の投稿として無条件に許可する。
func (s *Service) CanExecute(ctx context.Context) (bool, string, error) {
	allowed := false
	reason := ""
	err := s.repo.WithLock(ctx, func(sch *model.Schedule) error {
		if !sch.Enabled {
			reason = ReasonDisabled
			return nil
		}
		if s.rollover(sch) {
			allowed = true
			return nil
		}
		if sch.TodayPostCount >= sch.MaxDailyPosts {
			reason = ReasonDailyLimit
			return nil
		}
		allowed = true
		return nil
	})
	if err != nil {
		return false, "", s.asStorageError("判定", err)
	}
	return allowed, reason, nil
}

// RecordPost は投稿1件を記録する。投稿ごとに高々1回呼ぶのは呼び出し側の責務。
func (s *Service) RecordPost(ctx context.Context) error {
	err := s.repo.WithLock(ctx, func(sch *model.Schedule) error {
		now := s.now()
		sch.TodayPostCount++
		sch.LastPostDate = &now
		return nil
	})
	if err != nil {
		return s.asStorageError("記録", err)
	}
	return nil
}

// Reserve はゲート判定・投稿記録・カテゴリ選定を単一の行ロック内で行い、
// 選ばれたカテゴリを返す。2つのトリガーが同時に発火しても上限を
// 超えないことを保証する。失敗した下流処理はReleaseで枠を返却すること。
func (s *Service) Reserve(ctx context.Context) (model.CategoryID, error) {
	var category model.CategoryID
	err := s.repo.WithLock(ctx, func(sch *model.Schedule) error {
		if !sch.Enabled {
			return model.NewScheduleDisabledError()
		}
		rolled := s.rollover(sch)
		if !rolled && sch.TodayPostCount >= sch.MaxDailyPosts {
			return model.NewDailyLimitReachedError(sch.MaxDailyPosts)
		}
		if len(sch.Categories) == 0 {
			return model.NewEmptyCategoriesError()
		}

		idx := sch.CategoryIndex % len(sch.Categories)
		category = sch.Categories[idx]
		sch.CategoryIndex = (idx + 1) % len(sch.Categories)

		now := s.now()
		sch.TodayPostCount++
		sch.LastPostDate = &now
		return nil
	})
	if err != nil {
		return "", s.asStorageError("予約", err)
	}
	return category, nil
}

// Release はReserveで確保した枠を返却する。下流の生成・公開が失敗した
// 場合の補償処理として呼ぶ。カウンタが0の場合は何もしない。
func (s *Service) Release(ctx context.Context) error {
	err := s.repo.WithLock(ctx, func(sch *model.Schedule) error {
		if sch.TodayPostCount > 0 {
			sch.TodayPostCount--
		}
		return nil
	})
	if err != nil {
		return s.asStorageError("返却", err)
	}
	return nil
}

// ShouldFire はワーカーのポーリングから呼ばれ、名目上の投稿間隔が
// 経過しているかを判定する。一度も投稿していない場合は発火する。
func (s *Service) ShouldFire(ctx context.Context) bool {
	sch := s.GetSchedule(ctx)
	if !sch.Enabled {
		return false
	}
	if sch.LastPostDate == nil {
		return true
	}
	return s.now().Sub(*sch.LastPostDate) >= sch.Interval.Duration()
}

// rollover は日付が変わっていた場合にカウンタをリセットする。
// リセットした場合はtrueを返す。一度も投稿していない場合は何もしない。
func (s *Service) rollover(sch *model.Schedule) bool {
	if sch.LastPostDate == nil {
		return false
	}
	now := s.now().In(s.loc)
	last := sch.LastPostDate.In(s.loc)
	if now.Year() == last.Year() && now.YearDay() == last.YearDay() {
		return false
	}
	sch.TodayPostCount = 0
	t := s.now()
	sch.LastPostDate = &t
	return true
}

// asStorageError はドメインエラーをそのまま通し、それ以外を
// STORAGE_ERRORに包んで返す。
func (s *Service) asStorageError(op string, err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return model.NewStorageError(op, err)
}
