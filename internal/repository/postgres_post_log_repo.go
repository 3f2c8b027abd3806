package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xxx-bye7709/blogpilot/internal/model"
)

// PostgresPostLogRepo はPostgreSQLを使用した投稿ログリポジトリ。
type PostgresPostLogRepo struct {
	db *sql.DB
}

// NewPostgresPostLogRepo はPostgresPostLogRepoを生成する。
func NewPostgresPostLogRepo(db *sql.DB) *PostgresPostLogRepo {
	return &PostgresPostLogRepo{db: db}
}

// Create は投稿ログを作成する。IDが未設定の場合は新規UUIDを採番する。
func (r *PostgresPostLogRepo) Create(ctx context.Context, log *model.PostLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO post_logs (id, category, title, post_id, post_url, status, is_automatic, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, string(log.Category), log.Title,
		nullString(log.PostID), nullString(log.PostURL),
		string(log.Status), log.IsAutomatic, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿ログの作成に失敗しました: %w", err)
	}
	return nil
}

// ListRecent は投稿ログを作成日時の降順でlimit件まで取得する。
func (r *PostgresPostLogRepo) ListRecent(ctx context.Context, limit int) ([]*model.PostLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, title, post_id, post_url, status, is_automatic, created_at
		 FROM post_logs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("投稿ログの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var logs []*model.PostLog
	for rows.Next() {
		log := &model.PostLog{}
		var category, status string
		var postID, postURL sql.NullString

		if err := rows.Scan(
			&log.ID, &category, &log.Title, &postID, &postURL,
			&status, &log.IsAutomatic, &log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("投稿ログの読み取りに失敗しました: %w", err)
		}

		log.Category = model.CategoryID(category)
		log.Status = model.PostStatus(status)
		log.PostID = nullStringValue(postID)
		log.PostURL = nullStringValue(postURL)

		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿ログの走査に失敗しました: %w", err)
	}

	return logs, nil
}

// DeleteOlderThan はcutoffより古い投稿ログを削除し、削除件数を返す。
func (r *PostgresPostLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM post_logs WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("投稿ログの削除に失敗しました: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return deleted, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ PostLogRepository = (*PostgresPostLogRepo)(nil)
