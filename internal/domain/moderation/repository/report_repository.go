package repository

import (
	"context"
	"errors"

	commentModel "vidhub/internal/domain/comment/model"
	"vidhub/internal/domain/moderation/model"
	videoModel "vidhub/internal/domain/video/model"

	"gorm.io/gorm"
)

var (
	ErrTargetNotFound   = errors.New("report target not found")
	ErrReportNotFound   = errors.New("report not found")
	ErrReportNotPending = errors.New("report already reviewed")
)

// ReportRepository 举报与审核操作的写模型
type ReportRepository interface {
	// Create 校验被举报对象存在后写入
	Create(ctx context.Context, report *model.Report) error
	GetByID(ctx context.Context, id string) (*model.Report, error)
	// Resolve 仅当举报仍为 pending 时更新
	Resolve(ctx context.Context, reportID, status, reviewerID string) error
	SetVideoStatus(ctx context.Context, videoID, status string) error
	RemoveComment(ctx context.Context, commentID string) error
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		var err error
		switch {
		case report.VideoID != nil:
			err = tx.Model(&videoModel.Video{}).Where("id = ?", *report.VideoID).Count(&n).Error
		case report.CommentID != nil:
			err = tx.Model(&commentModel.Comment{}).Where("id = ?", *report.CommentID).Count(&n).Error
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrTargetNotFound
		}

		report.Status = model.StatusPending
		report.ReviewedBy = nil
		return tx.Create(report).Error
	})
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) Resolve(ctx context.Context, reportID, status, reviewerID string) error {
	db := r.db.WithContext(ctx)

	// 乐观条件更新：只有 pending 状态才能流转
	result := db.Model(&model.Report{}).
		Where("id = ? AND status = ?", reportID, model.StatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewerID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := db.Model(&model.Report{}).Where("id = ?", reportID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrReportNotFound
	}
	return ErrReportNotPending
}

func (r *reportRepository) SetVideoStatus(ctx context.Context, videoID, status string) error {
	result := r.db.WithContext(ctx).Model(&videoModel.Video{}).
		Where("id = ?", videoID).
		Updates(map[string]interface{}{
			"status":       status,
			"is_moderated": true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RemoveComment 软删除评论
func (r *reportRepository) RemoveComment(ctx context.Context, commentID string) error {
	result := r.db.WithContext(ctx).Where("id = ?", commentID).Delete(&commentModel.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
