package model

import (
	"vidhub/internal/pkg/identity"
	base "vidhub/pkg/model"
)

// User 用户模型，同时作为频道
type User struct {
	base.BaseModel
	Name             string        `gorm:"type:varchar(100);not null" json:"name"`
	Email            string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"email,omitempty"`
	AvatarURL        string        `gorm:"type:varchar(500)" json:"avatarUrl"`
	Role             identity.Role `gorm:"type:varchar(20);not null;default:'viewer'" json:"role"`
	IsVerified       bool          `gorm:"not null;default:false" json:"isVerified"`
	SubscribersCount int64         `gorm:"not null;default:0" json:"subscribersCount"` // 由订阅关系派生
}
