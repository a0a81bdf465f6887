package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription 订阅关系，每个 (订阅者, 频道) 至多一条
type Subscription struct {
	SubscriberID string    `gorm:"primaryKey;type:uuid" json:"subscriberId"`
	ChannelID    string    `gorm:"primaryKey;type:uuid;index" json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// 通知类型
const TypeNewVideo = "new_video"

// Notification 通知，(接收者, 视频, 类型) 唯一，扇出重试幂等
type Notification struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_notifications_recipient_video_type,priority:1" json:"userId"`
	VideoID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_notifications_recipient_video_type,priority:2" json:"videoId"`
	Type      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_notifications_recipient_video_type,priority:3" json:"type"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Link      string    `gorm:"type:varchar(500)" json:"link"`
	IsRead    bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// BeforeCreate 钩子：生成 UUID
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}
