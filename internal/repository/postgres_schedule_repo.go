package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/xxx-bye7709/blogpilot/internal/model"
)

// scheduleRowID はシングルトン行の固定ID。
const scheduleRowID = 1

// PostgresScheduleRepo はPostgreSQLを使用したスケジュールリポジトリ。
type PostgresScheduleRepo struct {
	db *sql.DB
}

// NewPostgresScheduleRepo はPostgresScheduleRepoを生成する。
func NewPostgresScheduleRepo(db *sql.DB) *PostgresScheduleRepo {
	return &PostgresScheduleRepo{db: db}
}

// Find はスケジュールを取得する。保存されていない場合はnilを返す。
func (r *PostgresScheduleRepo) Find(ctx context.Context) (*model.Schedule, error) {
	s, err := scanSchedule(r.db.QueryRowContext(ctx,
		`SELECT enabled, post_interval, categories, category_index,
		        max_daily_posts, today_post_count, last_post_date, updated_at
		 FROM schedules WHERE id = $1`,
		scheduleRowID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スケジュールの取得に失敗しました: %w", err)
	}
	return s, nil
}

// Save はスケジュールを保存する。既存行がある場合は上書きする。
func (r *PostgresScheduleRepo) Save(ctx context.Context, s *model.Schedule) error {
	if err := r.upsert(ctx, r.db, s); err != nil {
		return fmt.Errorf("スケジュールの保存に失敗しました: %w", err)
	}
	return nil
}

// WithLock はスケジュール行をFOR UPDATEで排他確保した上でfnを実行する。
// fnが成功した場合は変更後のスケジュールを書き戻してコミットする。
func (r *PostgresScheduleRepo) WithLock(ctx context.Context, fn func(s *model.Schedule) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	s, err := scanSchedule(tx.QueryRowContext(ctx,
		`SELECT enabled, post_interval, categories, category_index,
		        max_daily_posts, today_post_count, last_post_date, updated_at
		 FROM schedules WHERE id = $1
		 FOR UPDATE`,
		scheduleRowID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		// 初回アクセス時はデフォルトを挿入してからロックを取り直す
		def := model.DefaultSchedule()
		def.UpdatedAt = time.Now()
		if err := r.upsert(ctx, tx, def); err != nil {
			return fmt.Errorf("デフォルトスケジュールの作成に失敗しました: %w", err)
		}
		s = def
	} else if err != nil {
		return fmt.Errorf("スケジュールのロック取得に失敗しました: %w", err)
	}

	if err := fn(s); err != nil {
		return err
	}

	s.UpdatedAt = time.Now()
	if err := r.upsert(ctx, tx, s); err != nil {
		return fmt.Errorf("スケジュールの書き戻しに失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// execer はsql.DBとsql.Txの共通インターフェース。
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *PostgresScheduleRepo) upsert(ctx context.Context, e execer, s *model.Schedule) error {
	categories := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		categories[i] = string(c)
	}

	var lastPostDate sql.NullTime
	if s.LastPostDate != nil {
		lastPostDate = sql.NullTime{Time: *s.LastPostDate, Valid: true}
	}

	_, err := e.ExecContext(ctx,
		`INSERT INTO schedules (id, enabled, post_interval, categories, category_index,
		                        max_daily_posts, today_post_count, last_post_date, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		    enabled = EXCLUDED.enabled,
		    post_interval = EXCLUDED.post_interval,
		    categories = EXCLUDED.categories,
		    category_index = EXCLUDED.category_index,
		    max_daily_posts = EXCLUDED.max_daily_posts,
		    today_post_count = EXCLUDED.today_post_count,
		    last_post_date = EXCLUDED.last_post_date,
		    updated_at = EXCLUDED.updated_at`,
		scheduleRowID, s.Enabled, string(s.Interval), pq.Array(categories),
		s.CategoryIndex, s.MaxDailyPosts, s.TodayPostCount, lastPostDate, s.UpdatedAt,
	)
	return err
}

// rowScanner はQueryRowContextの結果スキャン用インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSchedule は1行をスキャンし正規化済みスケジュールを返す。
func scanSchedule(row rowScanner) (*model.Schedule, error) {
	s := &model.Schedule{}
	var interval string
	var categories []string
	var lastPostDate sql.NullTime

	err := row.Scan(
		&s.Enabled, &interval, pq.Array(&categories), &s.CategoryIndex,
		&s.MaxDailyPosts, &s.TodayPostCount, &lastPostDate, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Interval = model.PostInterval(interval)
	s.Categories = make([]model.CategoryID, len(categories))
	for i, c := range categories {
		s.Categories[i] = model.CategoryID(c)
	}
	if lastPostDate.Valid {
		t := lastPostDate.Time
		s.LastPostDate = &t
	}

	normalizeSchedule(s)
	return s, nil
}

// normalizeSchedule は手動変更などで壊れた値を読み取り境界でデフォルトに丸める。
func normalizeSchedule(s *model.Schedule) {
	if !s.Interval.IsValid() {
		s.Interval = model.IntervalHourly
	}
	if s.CategoryIndex < 0 || (len(s.Categories) > 0 && s.CategoryIndex >= len(s.Categories)) {
		s.CategoryIndex = 0
	}
	if s.MaxDailyPosts <= 0 {
		s.MaxDailyPosts = 10
	}
	if s.TodayPostCount < 0 {
		s.TodayPostCount = 0
	}
}

// compile-time interface check
var _ ScheduleRepository = (*PostgresScheduleRepo)(nil)
