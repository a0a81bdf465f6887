package repository

import (
	"context"
	"errors"

	"vidhub/internal/domain/subscription/model"
	userModel "vidhub/internal/domain/user/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrChannelNotFound 频道（用户）不存在
var ErrChannelNotFound = errors.New("channel not found")

// fanOutBatchSize 通知批量插入大小
const fanOutBatchSize = 500

type SubscriptionRepository interface {
	// Subscribe 返回是否新建了订阅关系
	Subscribe(ctx context.Context, subscriberID, channelID string) (bool, error)
	// Unsubscribe 返回是否删除了订阅关系
	Unsubscribe(ctx context.Context, subscriberID, channelID string) (bool, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
	// FanOut 为频道的全部订阅者写入通知，已存在的跳过，返回新增条数
	FanOut(ctx context.Context, channelID string, template model.Notification) (int64, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Subscribe(ctx context.Context, subscriberID, channelID string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockChannel(tx, channelID); err != nil {
			return err
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Subscription{
			SubscriberID: subscriberID,
			ChannelID:    channelID,
		})
		if result.Error != nil {
			return result.Error
		}
		// 只有真正插入时才累加订阅数
		if result.RowsAffected != 1 {
			return nil
		}
		created = true
		return tx.Model(&userModel.User{}).Where("id = ?", channelID).
			UpdateColumn("subscribers_count", gorm.Expr("subscribers_count + 1")).Error
	})
	return created, err
}

func (r *subscriptionRepository) Unsubscribe(ctx context.Context, subscriberID, channelID string) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockChannel(tx, channelID); err != nil {
			return err
		}

		result := tx.Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).Delete(&model.Subscription{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return nil
		}
		removed = true
		return tx.Model(&userModel.User{}).Where("id = ? AND subscribers_count > 0", channelID).
			UpdateColumn("subscribers_count", gorm.Expr("subscribers_count - 1")).Error
	})
	return removed, err
}

func (r *subscriptionRepository) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Count(&n).Error
	return n > 0, err
}

func (r *subscriptionRepository) FanOut(ctx context.Context, channelID string, template model.Notification) (int64, error) {
	var inserted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subscriberIDs []string
		if err := tx.Model(&model.Subscription{}).
			Where("channel_id = ?", channelID).
			Order("subscriber_id").
			Pluck("subscriber_id", &subscriberIDs).Error; err != nil {
			return err
		}
		if len(subscriberIDs) == 0 {
			return nil
		}

		notifications := make([]model.Notification, 0, len(subscriberIDs))
		for _, id := range subscriberIDs {
			n := template
			n.ID = ""
			n.UserID = id
			notifications = append(notifications, n)
		}

		// (接收者, 视频, 类型) 唯一，重试时已存在的通知被跳过
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&notifications, fanOutBatchSize)
		if result.Error != nil {
			return result.Error
		}
		inserted = result.RowsAffected
		return nil
	})
	return inserted, err
}

// ListNotifications 最新在前
func (r *subscriptionRepository) ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// lockChannel 锁定频道行，不存在返回 ErrChannelNotFound
func lockChannel(tx *gorm.DB, channelID string) error {
	var channel userModel.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("id = ?", channelID).First(&channel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrChannelNotFound
	}
	return err
}
