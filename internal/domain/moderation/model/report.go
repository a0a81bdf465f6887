package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 举报状态：pending -> resolved | rejected，终态不可再变更
const (
	StatusPending  = "pending"
	StatusResolved = "resolved"
	StatusRejected = "rejected"
)

// IsTerminal 是否为终态
func IsTerminal(status string) bool {
	return status == StatusResolved || status == StatusRejected
}

// Report 举报，视频与评论二选一
type Report struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	ReporterID  string    `gorm:"type:uuid;not null" json:"reporterId"`
	VideoID     *string   `gorm:"type:uuid" json:"videoId"`
	CommentID   *string   `gorm:"type:uuid" json:"commentId"`
	Reason      string    `gorm:"type:varchar(100);not null" json:"reason"`
	Description string    `gorm:"type:text" json:"description"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedBy  *string   `gorm:"type:uuid" json:"reviewedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BeforeCreate 钩子：生成 UUID
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// PendingReport 待处理举报列表行，关联举报人、视频标题与评论内容
type PendingReport struct {
	ID           string    `db:"id" json:"id"`
	ReporterID   string    `db:"reporter_id" json:"reporterId"`
	ReporterName *string   `db:"reporter_name" json:"reporterName"`
	VideoID      *string   `db:"video_id" json:"videoId"`
	VideoTitle   *string   `db:"video_title" json:"videoTitle"`
	CommentID    *string   `db:"comment_id" json:"commentId"`
	CommentText  *string   `db:"comment_text" json:"commentText"`
	Reason       string    `db:"reason" json:"reason"`
	Description  string    `db:"description" json:"description"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Stats 管理后台统计
type Stats struct {
	TotalUsers     int64 `db:"total_users" json:"totalUsers"`
	TotalVideos    int64 `db:"total_videos" json:"totalVideos"`
	TotalComments  int64 `db:"total_comments" json:"totalComments"`
	PendingReports int64 `db:"pending_reports" json:"pendingReports"`
}
