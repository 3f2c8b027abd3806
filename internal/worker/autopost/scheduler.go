// Package autopost は自動投稿のバックグラウンド実行を提供する。
// 短い間隔のポーリングで投稿間隔の経過を監視し、パイプラインを起動する。
package autopost

import (
	"context"
	"log/slog"
	"time"

	"github.com/xxx-bye7709/blogpilot/internal/pipeline"
)

// ScheduleChecker は投稿間隔の経過判定インターフェース。
type ScheduleChecker interface {
	// ShouldFire は名目上の投稿間隔が経過しているかを返す。
	ShouldFire(ctx context.Context) bool
}

// AutoPoster は自動投稿1サイクルの実行インターフェース。
type AutoPoster interface {
	RunAutoPost(ctx context.Context) *pipeline.Result
}

// Scheduler は自動投稿のポーリングと直列実行制御を行う。
// パイプラインの実行は同時に1つまでで、前回の実行が終わっていない
// ティックはスキップする。
type Scheduler struct {
	checker ScheduleChecker
	poster  AutoPoster
	logger  *slog.Logger
	running chan struct{}
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(checker ScheduleChecker, poster AutoPoster, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		checker: checker,
		poster:  poster,
		logger:  logger,
		running: make(chan struct{}, 1),
	}
}

// Start はポーリング間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	s.logger.Info("自動投稿スケジューラを開始しました",
		slog.Duration("poll_interval", pollInterval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("自動投稿スケジューラを停止しました")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce は投稿間隔の経過を確認し、経過していればパイプラインを1回実行する。
// 前回の実行が継続中の場合は何もしない。
func (s *Scheduler) RunOnce(ctx context.Context) {
	if !s.checker.ShouldFire(ctx) {
		return
	}

	select {
	case s.running <- struct{}{}:
	default:
		s.logger.Warn("前回の自動投稿が実行中のためスキップします")
		return
	}
	defer func() { <-s.running }()

	start := time.Now()
	result := s.poster.RunAutoPost(ctx)
	duration := time.Since(start)

	if result.Success {
		s.logger.Info("自動投稿サイクルが完了しました",
			slog.String("post_id", result.PostID),
			slog.String("title", result.Title),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
		return
	}
	s.logger.Warn("自動投稿サイクルは投稿なしで終了しました",
		slog.String("reason", result.Error),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
}
