package repository

import (
	"context"

	"vidhub/internal/domain/moderation/model"

	"github.com/jmoiron/sqlx"
)

const pendingReportsQuery = `
SELECT r.id, r.reporter_id, u.name AS reporter_name,
       r.video_id, v.title AS video_title,
       r.comment_id, c.text AS comment_text,
       r.reason, COALESCE(r.description, '') AS description, r.status, r.created_at
FROM reports r
LEFT JOIN users u ON r.reporter_id = u.id
LEFT JOIN videos v ON r.video_id = v.id
LEFT JOIN comments c ON r.comment_id = c.id
WHERE r.status = ?
ORDER BY r.created_at DESC
LIMIT ?`

const statsQuery = `
SELECT
  (SELECT COUNT(*) FROM users WHERE deleted_at IS NULL) AS total_users,
  (SELECT COUNT(*) FROM videos WHERE deleted_at IS NULL) AS total_videos,
  (SELECT COUNT(*) FROM comments WHERE deleted_at IS NULL) AS total_comments,
  (SELECT COUNT(*) FROM reports WHERE status = ?) AS pending_reports`

// ReportQuery 审核后台读模型，直接使用 SQL 关联查询
type ReportQuery interface {
	ListPending(ctx context.Context, limit int) ([]model.PendingReport, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

type reportQuery struct {
	db *sqlx.DB
}

// NewReportQuery db 与 gorm 共用同一个连接池
func NewReportQuery(db *sqlx.DB) ReportQuery {
	return &reportQuery{db: db}
}

func (q *reportQuery) ListPending(ctx context.Context, limit int) ([]model.PendingReport, error) {
	reports := make([]model.PendingReport, 0, limit)
	if err := q.db.SelectContext(ctx, &reports, q.db.Rebind(pendingReportsQuery), model.StatusPending, limit); err != nil {
		return nil, err
	}
	return reports, nil
}

func (q *reportQuery) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := q.db.GetContext(ctx, &stats, q.db.Rebind(statsQuery), model.StatusPending); err != nil {
		return nil, err
	}
	return &stats, nil
}
