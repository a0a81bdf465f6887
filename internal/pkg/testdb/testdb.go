// Package testdb 基于内存 SQLite 的测试数据库
package testdb

import (
	"fmt"
	"testing"
	"time"

	commentModel "vidhub/internal/domain/comment/model"
	moderationModel "vidhub/internal/domain/moderation/model"
	reactionModel "vidhub/internal/domain/reaction/model"
	subscriptionModel "vidhub/internal/domain/subscription/model"
	userModel "vidhub/internal/domain/user/model"
	videoModel "vidhub/internal/domain/video/model"
	"vidhub/internal/pkg/identity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New 创建独立的内存数据库并迁移全部表结构
func New(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// 内存库按连接隔离，固定单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&userModel.User{},
		&videoModel.Video{},
		&commentModel.Comment{},
		&reactionModel.VideoLike{},
		&subscriptionModel.Subscription{},
		&subscriptionModel.Notification{},
		&moderationModel.Report{},
	))
	return db
}

// SeedUser 插入用户
func SeedUser(t *testing.T, db *gorm.DB, name string, role identity.Role) *userModel.User {
	t.Helper()
	user := &userModel.User{
		Name:  name,
		Email: fmt.Sprintf("%s-%s@example.com", name, uuid.New().String()[:8]),
		Role:  role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// SeedVideo 插入视频，status 为空时为 published
func SeedVideo(t *testing.T, db *gorm.DB, ownerID, title, status string) *videoModel.Video {
	t.Helper()
	if status == "" {
		status = videoModel.StatusPublished
	}
	video := &videoModel.Video{
		UserID:   ownerID,
		Title:    title,
		VideoURL: "https://cdn.example.com/videos/" + uuid.New().String() + ".mp4",
		Category: videoModel.DefaultCategory,
		Status:   status,
	}
	require.NoError(t, db.Create(video).Error)
	return video
}

// Clock 每次调用前进一秒的测试时钟
func Clock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}
