package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	commentModel "vidhub/internal/domain/comment/model"
	"vidhub/internal/domain/moderation/model"
	"vidhub/internal/domain/moderation/repository"
	videoModel "vidhub/internal/domain/video/model"
	"vidhub/internal/pkg/apperr"
	"vidhub/internal/pkg/events"
	"vidhub/internal/pkg/identity"
	"vidhub/internal/pkg/testdb"
	"vidhub/pkg/cache"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

var _ events.Publisher = (*recordingPublisher)(nil)

type fixture struct {
	db        *gorm.DB
	svc       ModerationService
	cache     *cache.MemoryCache
	publisher *recordingPublisher
	viewer    identity.Identity
	moderator identity.Identity
	video     *videoModel.Video
	comment   *commentModel.Comment
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db := testdb.New(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	f := &fixture{
		db:        db,
		cache:     cache.NewMemoryCache(),
		publisher: &recordingPublisher{},
	}
	opts = append([]Option{WithCache(f.cache), WithEvents(f.publisher)}, opts...)
	f.svc = NewModerationService(
		repository.NewReportRepository(db),
		repository.NewReportQuery(sqlx.NewDb(sqlDB, "sqlite3")),
		zap.NewNop(),
		opts...,
	)

	owner := testdb.SeedUser(t, db, "owner", identity.RoleViewer)
	viewer := testdb.SeedUser(t, db, "viewer", identity.RoleViewer)
	mod := testdb.SeedUser(t, db, "mod", identity.RoleModerator)
	f.viewer = identity.New(viewer.ID, identity.RoleViewer)
	f.moderator = identity.New(mod.ID, identity.RoleModerator)

	f.video = testdb.SeedVideo(t, db, owner.ID, "cat video", "")
	f.comment = &commentModel.Comment{VideoID: f.video.ID, UserID: viewer.ID, Text: "spam spam"}
	require.NoError(t, db.Create(f.comment).Error)
	return f
}

func TestFileReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("requires exactly one target", func(t *testing.T) {
		_, err := f.svc.FileReport(ctx, f.viewer, FileReportInput{Reason: "spam"})
		assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))

		_, err = f.svc.FileReport(ctx, f.viewer, FileReportInput{
			VideoID:   f.video.ID,
			CommentID: f.comment.ID,
			Reason:    "spam",
		})
		assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
	})

	t.Run("reason required", func(t *testing.T) {
		_, err := f.svc.FileReport(ctx, f.viewer, FileReportInput{VideoID: f.video.ID, Reason: "   "})
		assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := f.svc.FileReport(ctx, f.viewer, FileReportInput{
			VideoID: "99999999-9999-9999-9999-999999999999",
			Reason:  "spam",
		})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("report comment", func(t *testing.T) {
		report, err := f.svc.FileReport(ctx, f.viewer, FileReportInput{
			CommentID:   f.comment.ID,
			Reason:      "spam",
			Description: " repeated text ",
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, report.Status)
		assert.Nil(t, report.VideoID)
		require.NotNil(t, report.CommentID)
		assert.Equal(t, f.comment.ID, *report.CommentID)
		assert.Equal(t, "repeated text", report.Description)
		assert.Equal(t, f.viewer.UserID, report.ReporterID)
	})
}

func TestMalformedIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name string
		call func(id string) error
	}{
		{"report video", func(id string) error {
			_, err := f.svc.FileReport(ctx, f.viewer, FileReportInput{VideoID: id, Reason: "spam"})
			return err
		}},
		{"report comment", func(id string) error {
			_, err := f.svc.FileReport(ctx, f.viewer, FileReportInput{CommentID: id, Reason: "spam"})
			return err
		}},
		{"resolve", func(id string) error {
			_, err := f.svc.Resolve(ctx, f.moderator, id, model.StatusResolved)
			return err
		}},
		{"set video status", func(id string) error {
			return f.svc.SetVideoStatus(ctx, f.moderator, id, videoModel.StatusRejected)
		}},
		{"remove comment", func(id string) error {
			return f.svc.RemoveComment(ctx, f.moderator, id)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, id := range []string{"r1", "12345", "not-a-uuid-at-all-but-36-characters!"} {
				err := tt.call(id)
				assert.True(t, apperr.Is(err, apperr.KindInvalidArgument), "id %q: %v", id, err)
			}
		})
	}

	var reports int64
	require.NoError(t, f.db.Model(&model.Report{}).Count(&reports).Error)
	assert.Zero(t, reports)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report, err := f.svc.FileReport(ctx, f.viewer, FileReportInput{VideoID: f.video.ID, Reason: "misleading"})
	require.NoError(t, err)

	t.Run("viewer denied", func(t *testing.T) {
		_, err := f.svc.Resolve(ctx, f.viewer, report.ID, model.StatusResolved)
		assert.True(t, apperr.Is(err, apperr.KindAccessDenied))
	})

	t.Run("pending is not a resolution", func(t *testing.T) {
		_, err := f.svc.Resolve(ctx, f.moderator, report.ID, model.StatusPending)
		assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
	})

	t.Run("unknown report", func(t *testing.T) {
		_, err := f.svc.Resolve(ctx, f.moderator, "99999999-9999-9999-9999-999999999999", model.StatusResolved)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("resolve records reviewer", func(t *testing.T) {
		resolved, err := f.svc.Resolve(ctx, f.moderator, report.ID, model.StatusResolved)
		require.NoError(t, err)
		assert.Equal(t, model.StatusResolved, resolved.Status)
		require.NotNil(t, resolved.ReviewedBy)
		assert.Equal(t, f.moderator.UserID, *resolved.ReviewedBy)
		assert.Contains(t, f.publisher.published(), events.ReportResolved)
	})

	t.Run("terminal report cannot change", func(t *testing.T) {
		_, err := f.svc.Resolve(ctx, f.moderator, report.ID, model.StatusRejected)
		assert.True(t, apperr.Is(err, apperr.KindInvalidState))

		var stored model.Report
		require.NoError(t, f.db.First(&stored, "id = ?", report.ID).Error)
		assert.Equal(t, model.StatusResolved, stored.Status)
	})
}

func TestListPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithPendingLimit(2))

	t.Run("viewer denied", func(t *testing.T) {
		_, err := f.svc.ListPending(ctx, f.viewer)
		assert.True(t, apperr.Is(err, apperr.KindAccessDenied))
	})

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	repo := repository.NewReportRepository(f.db)
	videoID, commentID := f.video.ID, f.comment.ID
	reports := []*model.Report{
		{ReporterID: f.viewer.UserID, VideoID: &videoID, Reason: "oldest", CreatedAt: base},
		{ReporterID: f.viewer.UserID, CommentID: &commentID, Reason: "middle", CreatedAt: base.Add(time.Minute)},
		{ReporterID: f.viewer.UserID, VideoID: &videoID, Reason: "newest", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range reports {
		require.NoError(t, repo.Create(ctx, r))
	}

	t.Run("newest first within limit", func(t *testing.T) {
		list, err := f.svc.ListPending(ctx, f.moderator)
		require.NoError(t, err)
		require.Len(t, list, 2)

		assert.Equal(t, "newest", list[0].Reason)
		require.NotNil(t, list[0].VideoTitle)
		assert.Equal(t, "cat video", *list[0].VideoTitle)
		require.NotNil(t, list[0].ReporterName)
		assert.Equal(t, "viewer", *list[0].ReporterName)

		assert.Equal(t, "middle", list[1].Reason)
		require.NotNil(t, list[1].CommentText)
		assert.Equal(t, "spam spam", *list[1].CommentText)
		assert.Nil(t, list[1].VideoTitle)
	})

	t.Run("resolved reports leave the queue", func(t *testing.T) {
		_, err := f.svc.Resolve(ctx, f.moderator, reports[2].ID, model.StatusRejected)
		require.NoError(t, err)

		list, err := f.svc.ListPending(ctx, f.moderator)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "middle", list[0].Reason)
		assert.Equal(t, "oldest", list[1].Reason)
	})
}

func TestSetVideoStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("viewer denied", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.SetVideoStatus(ctx, f.viewer, f.video.ID, videoModel.StatusRejected)
		assert.True(t, apperr.Is(err, apperr.KindAccessDenied))
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.SetVideoStatus(ctx, f.moderator, f.video.ID, "hidden")
		assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
	})

	t.Run("unknown video", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.SetVideoStatus(ctx, f.moderator, "99999999-9999-9999-9999-999999999999", videoModel.StatusRejected)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("reject invalidates listings", func(t *testing.T) {
		f := newFixture(t)
		listKey := videoModel.ListCacheKeyPrefix + "category=other"
		require.NoError(t, f.cache.Set(ctx, listKey, []string{f.video.ID}, time.Minute))

		require.NoError(t, f.svc.SetVideoStatus(ctx, f.moderator, f.video.ID, videoModel.StatusRejected))

		var stored videoModel.Video
		require.NoError(t, f.db.First(&stored, "id = ?", f.video.ID).Error)
		assert.Equal(t, videoModel.StatusRejected, stored.Status)
		assert.True(t, stored.IsModerated)

		exists, err := f.cache.Exists(ctx, listKey)
		require.NoError(t, err)
		assert.False(t, exists)
		assert.Equal(t, []string{events.VideoStatusChanged}, f.publisher.published())
	})

	t.Run("event failure does not fail the change", func(t *testing.T) {
		f := newFixture(t)
		f.publisher.err = errors.New("broker down")
		require.NoError(t, f.svc.SetVideoStatus(ctx, f.moderator, f.video.ID, videoModel.StatusPending))
	})
}

func TestRemoveCommentAndStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("viewer denied", func(t *testing.T) {
		assert.True(t, apperr.Is(f.svc.RemoveComment(ctx, f.viewer, f.comment.ID), apperr.KindAccessDenied))
		_, err := f.svc.Stats(ctx, f.viewer)
		assert.True(t, apperr.Is(err, apperr.KindAccessDenied))
	})

	_, err := f.svc.FileReport(ctx, f.viewer, FileReportInput{CommentID: f.comment.ID, Reason: "spam"})
	require.NoError(t, err)

	t.Run("stats before removal", func(t *testing.T) {
		stats, err := f.svc.Stats(ctx, f.moderator)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalUsers)
		assert.Equal(t, int64(1), stats.TotalVideos)
		assert.Equal(t, int64(1), stats.TotalComments)
		assert.Equal(t, int64(1), stats.PendingReports)
	})

	t.Run("remove comment", func(t *testing.T) {
		require.NoError(t, f.svc.RemoveComment(ctx, f.moderator, f.comment.ID))

		err := f.svc.RemoveComment(ctx, f.moderator, f.comment.ID)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))

		stats, err := f.svc.Stats(ctx, f.moderator)
		require.NoError(t, err)
		assert.Equal(t, int64(0), stats.TotalComments)
	})
}
