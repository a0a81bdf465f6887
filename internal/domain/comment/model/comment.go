package model

import (
	userModel "vidhub/internal/domain/user/model"
	base "vidhub/pkg/model"
)

// Comment 评论模型，ParentCommentID 为空表示一级评论
type Comment struct {
	base.BaseModel
	VideoID         string  `gorm:"type:uuid;not null;index:idx_comments_video_parent,priority:1" json:"videoId"`
	UserID          string  `gorm:"type:uuid;not null" json:"userId"`
	Text            string  `gorm:"type:text;not null" json:"text"`
	ParentCommentID *string `gorm:"type:uuid;index:idx_comments_video_parent,priority:2" json:"parentCommentId"`

	// 关联
	Author *userModel.User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}
