package model

import "time"

// VideoLike 点赞/点踩记录，每个 (视频, 用户) 至多一条
type VideoLike struct {
	VideoID   string    `gorm:"primaryKey;type:uuid" json:"videoId"`
	UserID    string    `gorm:"primaryKey;type:uuid" json:"userId"`
	IsLike    bool      `gorm:"not null" json:"isLike"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (VideoLike) TableName() string {
	return "video_likes"
}

// Counts 视频当前的点赞/点踩聚合
type Counts struct {
	Likes    int64 `gorm:"column:likes_count" json:"likes"`
	Dislikes int64 `gorm:"column:dislikes_count" json:"dislikes"`
}
