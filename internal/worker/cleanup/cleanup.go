// Package cleanup は投稿履歴の自動削除ジョブを提供する。
// 保持期間（デフォルト90日）を超過したpost_logsを日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// PostLogDeleter は投稿履歴の削除インターフェース。
type PostLogDeleter interface {
	// DeleteOlderThan はcutoffより古い投稿履歴を削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job は保持期間を超過した投稿履歴の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type Job struct {
	postLogs      PostLogDeleter
	logger        *slog.Logger
	RetentionDays int // 投稿履歴の保持日数（デフォルト: 90）
	now           func() time.Time
}

// NewJob は新しいJobを生成する。デフォルトの保持日数は90日。
func NewJob(postLogs PostLogDeleter, logger *slog.Logger) *Job {
	return &Job{
		postLogs:      postLogs,
		logger:        logger,
		RetentionDays: 90,
		now:           time.Now,
	}
}

// Start は指定間隔のティッカーでジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("投稿履歴クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Int("retention_days", j.RetentionDays),
	)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("投稿履歴クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("投稿履歴クリーンアップの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Run は保持期間を超過した投稿履歴を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *Job) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.AddDate(0, 0, -j.RetentionDays)

	deletedCount, err := j.postLogs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("投稿履歴クリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("投稿履歴クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
