package repository

import (
	"context"

	"vidhub/internal/domain/reaction/model"
	videoModel "vidhub/internal/domain/video/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository 点赞/点踩存储
type ReactionRepository interface {
	// SetReaction 写入用户对视频的态度并重算聚合，视频不存在返回 gorm.ErrRecordNotFound
	SetReaction(ctx context.Context, videoID, userID string, isLike bool) (*model.Counts, error)
	GetReaction(ctx context.Context, videoID, userID string) (*model.VideoLike, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) SetReaction(ctx context.Context, videoID, userID string, isLike bool) (*model.Counts, error) {
	var counts model.Counts

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定视频行，同一视频上的重算串行执行
		var video videoModel.Video
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", videoID).First(&video).Error; err != nil {
			return err
		}

		like := model.VideoLike{VideoID: videoID, UserID: userID, IsLike: isLike}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "video_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_like", "updated_at"}),
		}).Create(&like).Error; err != nil {
			return err
		}

		// 聚合始终由明细重算，不做增量
		if err := tx.Model(&videoModel.Video{}).Where("id = ?", videoID).Updates(map[string]interface{}{
			"likes_count":    gorm.Expr("(SELECT COUNT(*) FROM video_likes WHERE video_id = ? AND is_like = ?)", videoID, true),
			"dislikes_count": gorm.Expr("(SELECT COUNT(*) FROM video_likes WHERE video_id = ? AND is_like = ?)", videoID, false),
		}).Error; err != nil {
			return err
		}

		return tx.Model(&videoModel.Video{}).
			Select("likes_count", "dislikes_count").
			Where("id = ?", videoID).
			Scan(&counts).Error
	})
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *reactionRepository) GetReaction(ctx context.Context, videoID, userID string) (*model.VideoLike, error) {
	var like model.VideoLike
	if err := r.db.WithContext(ctx).Where("video_id = ? AND user_id = ?", videoID, userID).First(&like).Error; err != nil {
		return nil, err
	}
	return &like, nil
}
