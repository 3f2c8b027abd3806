// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/xxx-bye7709/blogpilot/internal/model"
)

// ScheduleRepository はスケジュール設定の永続化インターフェース。
// スケジュールはストアにシングルトンとして1件だけ保存される。
type ScheduleRepository interface {
	// Find はスケジュールを取得する。保存されていない場合はnilを返す。
	Find(ctx context.Context) (*model.Schedule, error)

	// Save はスケジュールを保存する。既存行がある場合は上書きする。
	Save(ctx context.Context, s *model.Schedule) error

	// WithLock はスケジュール行を行ロックで排他確保した上でfnを実行する。
	// fnがnilを返した場合、fn内で変更されたスケジュールを書き戻してコミットする。
	// fnがエラーを返した場合はロールバックし、そのエラーをそのまま返す。
	// 行が存在しない場合はデフォルトスケジュールを挿入してからロックする。
	// 投稿ゲート判定とカウンタ更新を単一の直列化ポイントで行うために使用する。
	WithLock(ctx context.Context, fn func(s *model.Schedule) error) error
}

// PostLogRepository は投稿ログの永続化インターフェース。
type PostLogRepository interface {
	// Create は投稿ログを作成する。
	Create(ctx context.Context, log *model.PostLog) error

	// ListRecent は投稿ログを作成日時の降順でlimit件まで取得する。
	ListRecent(ctx context.Context, limit int) ([]*model.PostLog, error)

	// DeleteOlderThan はcutoffより古い投稿ログを削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
