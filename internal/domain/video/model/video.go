package model

import (
	userModel "vidhub/internal/domain/user/model"
	base "vidhub/pkg/model"
)

// 视频状态
const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusRejected  = "rejected"
)

// DefaultCategory 未指定分类时使用
const DefaultCategory = "other"

// ValidStatus 是否为合法的视频状态
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusPublished, StatusRejected:
		return true
	}
	return false
}

// Video 视频模型，点赞/点踩数由 video_likes 重算得到
type Video struct {
	base.BaseModel
	UserID        string  `gorm:"type:uuid;not null;index" json:"userId"`
	Title         string  `gorm:"type:varchar(255);not null" json:"title"`
	Description   string  `gorm:"type:text" json:"description"`
	VideoURL      string  `gorm:"type:varchar(1000);not null" json:"videoUrl"`
	ThumbnailURL  *string `gorm:"type:varchar(1000)" json:"thumbnailUrl"`
	Duration      int     `gorm:"not null;default:0" json:"duration"` // 秒
	Category      string  `gorm:"type:varchar(50);not null;default:'other'" json:"category"`
	Status        string  `gorm:"type:varchar(20);not null;default:'published';index" json:"status"`
	IsModerated   bool    `gorm:"not null;default:false" json:"isModerated"`
	ViewsCount    int64   `gorm:"not null;default:0" json:"viewsCount"`
	LikesCount    int64   `gorm:"not null;default:0" json:"likesCount"`
	DislikesCount int64   `gorm:"not null;default:0" json:"dislikesCount"`

	// 关联
	Channel *userModel.User `gorm:"foreignKey:UserID" json:"channel,omitempty"`
}

// ListCacheKeyPrefix 视频列表缓存键前缀，发布与审核后按前缀失效
const ListCacheKeyPrefix = "videos:list:"
