package repository

import (
	"context"

	userModel "vidhub/internal/domain/user/model"
	"vidhub/internal/domain/video/model"

	"gorm.io/gorm"
)

// ListFilter 公开列表筛选条件
type ListFilter struct {
	OwnerID  string
	Category string
	Limit    int
}

// VideoRepository 视频存储
type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	GetOwner(ctx context.Context, ownerID string) (*userModel.User, error)
	ListPublished(ctx context.Context, filter ListFilter) ([]model.Video, error)
	// GetPublishedAndCountView 读取已发布视频并在同一事务内累加播放数
	GetPublishedAndCountView(ctx context.Context, id string) (*model.Video, error)
	// GetByID 不限状态读取，不计播放
	GetByID(ctx context.Context, id string) (*model.Video, error)
	ListAll(ctx context.Context, limit int) ([]model.Video, error)
}

type videoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(ctx context.Context, video *model.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

func (r *videoRepository) GetOwner(ctx context.Context, ownerID string) (*userModel.User, error) {
	var user userModel.User
	if err := r.db.WithContext(ctx).Where("id = ?", ownerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *videoRepository) ListPublished(ctx context.Context, filter ListFilter) ([]model.Video, error) {
	var videos []model.Video
	query := withChannel(r.db.WithContext(ctx)).Where("status = ?", model.StatusPublished)
	if filter.OwnerID != "" {
		query = query.Where("user_id = ?", filter.OwnerID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	err := query.Order("created_at DESC").Limit(filter.Limit).Find(&videos).Error
	return videos, err
}

func (r *videoRepository) GetPublishedAndCountView(ctx context.Context, id string) (*model.Video, error) {
	var video model.Video
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Video{}).
			Where("id = ? AND status = ?", id, model.StatusPublished).
			UpdateColumn("views_count", gorm.Expr("views_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return withChannel(tx).Where("id = ?", id).First(&video).Error
	})
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	var video model.Video
	if err := withChannel(r.db.WithContext(ctx)).Where("id = ?", id).First(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) ListAll(ctx context.Context, limit int) ([]model.Video, error) {
	var videos []model.Video
	err := withChannel(r.db.WithContext(ctx)).Order("created_at DESC").Limit(limit).Find(&videos).Error
	return videos, err
}

// withChannel 仅加载频道的公开字段
func withChannel(db *gorm.DB) *gorm.DB {
	return db.Preload("Channel", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "avatar_url", "is_verified", "subscribers_count")
	})
}
