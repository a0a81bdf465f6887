package repository

import (
	"context"
	"errors"

	"vidhub/internal/domain/comment/model"
	videoModel "vidhub/internal/domain/video/model"

	"gorm.io/gorm"
)

var (
	ErrVideoNotFound  = errors.New("video not found")
	ErrParentNotFound = errors.New("parent comment not found")
	ErrParentMismatch = errors.New("parent comment belongs to another video")
)

type CommentRepository interface {
	// Create 在同一事务内校验视频与父评论后写入
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListRoots(ctx context.Context, videoID string, limit int) ([]model.Comment, error)
	ListReplies(ctx context.Context, parentID string, limit int) ([]model.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var videos int64
		if err := tx.Model(&videoModel.Video{}).Where("id = ?", comment.VideoID).Count(&videos).Error; err != nil {
			return err
		}
		if videos == 0 {
			return ErrVideoNotFound
		}

		if comment.ParentCommentID != nil {
			var parent model.Comment
			err := tx.Select("id", "video_id").Where("id = ?", *comment.ParentCommentID).First(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParentNotFound
			}
			if err != nil {
				return err
			}
			// 回复必须与父评论属于同一视频
			if parent.VideoID != comment.VideoID {
				return ErrParentMismatch
			}
		}

		return tx.Create(comment).Error
	})
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListRoots 一级评论，最新在前
func (r *commentRepository) ListRoots(ctx context.Context, videoID string, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.withAuthor(ctx).
		Where("video_id = ? AND parent_comment_id IS NULL", videoID).
		Order("created_at DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

// ListReplies 直接回复，最早在前
func (r *commentRepository) ListReplies(ctx context.Context, parentID string, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.withAuthor(ctx).
		Where("parent_comment_id = ?", parentID).
		Order("created_at ASC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

// 只加载作者公开字段
func (r *commentRepository) withAuthor(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Author", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "avatar_url", "is_verified")
	})
}
