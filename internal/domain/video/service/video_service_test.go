package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	subscriptionModel "vidhub/internal/domain/subscription/model"
	subscriptionRepository "vidhub/internal/domain/subscription/repository"
	subscriptionService "vidhub/internal/domain/subscription/service"
	"vidhub/internal/domain/video/model"
	"vidhub/internal/domain/video/repository"
	"vidhub/internal/pkg/apperr"
	"vidhub/internal/pkg/identity"
	"vidhub/internal/pkg/testdb"
	"vidhub/internal/pkg/worker"
	"vidhub/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type fakeStore struct {
	mu      sync.Mutex
	keys    []string
	failFor string
}

func (s *fakeStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if s.failFor != "" && strings.HasPrefix(key, s.failFor) {
		return "", errors.New("bucket unavailable")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func (s *fakeStore) stored() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

// flakyNotifier 前 failures 次调用失败，之后委托给真实扇出
type flakyNotifier struct {
	inner    Notifier
	failures int
	calls    int
}

func (n *flakyNotifier) NotifySubscribers(ctx context.Context, channelID string, video subscriptionService.VideoRef) (int64, error) {
	n.calls++
	if n.calls <= n.failures {
		return 0, errors.New("notifications table locked")
	}
	return n.inner.NotifySubscribers(ctx, channelID, video)
}

type recordingQueue struct {
	tasks []worker.Task
}

func (q *recordingQueue) AddTask(task worker.Task) bool {
	q.tasks = append(q.tasks, task)
	return true
}

type failingCreateRepo struct {
	repository.VideoRepository
}

func (r failingCreateRepo) Create(ctx context.Context, video *model.Video) error {
	return errors.New("connection reset")
}

type fixture struct {
	db       *gorm.DB
	store    *fakeStore
	notifier *flakyNotifier
	queue    *recordingQueue
	cache    *cache.MemoryCache
	logger   *zap.Logger
	logs     *observer.ObservedLogs
	owner    identity.Identity
	fans     []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	core, logs := observer.New(zapcore.DebugLevel)

	f := &fixture{
		db:     db,
		store:  &fakeStore{},
		queue:  &recordingQueue{},
		cache:  cache.NewMemoryCache(),
		logger: zap.New(core),
		logs:   logs,
	}
	f.notifier = &flakyNotifier{
		inner: subscriptionService.NewSubscriptionService(subscriptionRepository.NewSubscriptionRepository(db), f.logger),
	}

	owner := testdb.SeedUser(t, db, "alice", identity.RoleViewer)
	f.owner = identity.New(owner.ID, identity.RoleViewer)

	subs := subscriptionRepository.NewSubscriptionRepository(db)
	for _, name := range []string{"bob", "carol"} {
		fan := testdb.SeedUser(t, db, name, identity.RoleViewer)
		_, err := subs.Subscribe(context.Background(), fan.ID, owner.ID)
		require.NoError(t, err)
		f.fans = append(f.fans, fan.ID)
	}
	return f
}

func (f *fixture) service(repo repository.VideoRepository) VideoService {
	if repo == nil {
		repo = repository.NewVideoRepository(f.db)
	}
	return NewVideoService(repo, f.store, f.notifier, f.logger,
		WithRetryQueue(f.queue),
		WithCache(f.cache),
		WithClock(testdb.Clock(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))),
	)
}

func (f *fixture) notificationsFor(t *testing.T, userID, videoID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&subscriptionModel.Notification{}).
		Where("user_id = ? AND video_id = ?", userID, videoID).Count(&n).Error)
	return n
}

func publishInput(title string, withThumb bool) PublishInput {
	input := PublishInput{
		Title: title,
		Video: &Asset{Filename: "clip.MOV", ContentType: "video/quicktime", Size: 5, Body: strings.NewReader("video")},
	}
	if withThumb {
		input.Thumbnail = &Asset{Filename: "cover.png", ContentType: "image/png", Size: 5, Body: strings.NewReader("thumb")}
	}
	return input
}

func TestPublishValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(nil)

	cases := []struct {
		name   string
		caller identity.Identity
		input  PublishInput
	}{
		{"missing owner", identity.Identity{}, publishInput("title", false)},
		{"blank title", f.owner, publishInput("   ", false)},
		{"missing video", f.owner, PublishInput{Title: "title"}},
		{"negative duration", f.owner, PublishInput{Title: "t", Duration: -1, Video: publishInput("t", false).Video}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Publish(ctx, tc.caller, tc.input)
			assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
		})
	}
	assert.Empty(t, f.store.stored(), "validation must fail before any upload")

	t.Run("unknown owner", func(t *testing.T) {
		ghost := identity.New("99999999-9999-9999-9999-999999999999", identity.RoleViewer)
		_, err := svc.Publish(ctx, ghost, publishInput("title", false))
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.Empty(t, f.store.stored())
	})
}

func TestPublishNotifiesSubscribers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(nil)

	result, err := svc.Publish(ctx, f.owner, publishInput("  my first video ", true))
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Notified)
	assert.Empty(t, result.FailedStep)
	assert.Equal(t, "my first video", result.Video.Title)
	assert.Equal(t, model.DefaultCategory, result.Video.Category)

	var stored model.Video
	require.NoError(t, f.db.First(&stored, "id = ?", result.Video.ID).Error)
	assert.Equal(t, model.StatusPublished, stored.Status)
	require.NotNil(t, stored.ThumbnailURL)

	keys := f.store.stored()
	require.Len(t, keys, 2)
	for _, key := range keys {
		switch {
		case strings.HasPrefix(key, "videos/"+f.owner.UserID+"/"):
			assert.True(t, strings.HasSuffix(key, ".mov"))
		case strings.HasPrefix(key, "thumbnails/"+f.owner.UserID+"/"):
			assert.True(t, strings.HasSuffix(key, ".png"))
		default:
			t.Fatalf("unexpected object key %s", key)
		}
	}

	for _, fan := range f.fans {
		assert.Equal(t, int64(1), f.notificationsFor(t, fan, result.Video.ID))
	}
	assert.Empty(t, f.queue.tasks)
}

func TestPublishFanoutFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.notifier.failures = 1
	svc := f.service(nil)

	result, err := svc.Publish(ctx, f.owner, publishInput("degraded", false))
	require.NoError(t, err)

	assert.Equal(t, subscriptionService.StepNotifySubscribers, result.FailedStep)
	assert.NotEmpty(t, result.Warning)
	assert.Equal(t, int64(0), result.Notified)

	var stored model.Video
	require.NoError(t, f.db.First(&stored, "id = ?", result.Video.ID).Error)
	assert.Equal(t, model.StatusPublished, stored.Status)

	assert.Equal(t, 1, f.logs.FilterMessage("notification fan-out failed").Len())
	require.Len(t, f.queue.tasks, 1)

	t.Run("retry delivers once", func(t *testing.T) {
		task := f.queue.tasks[0]
		require.NoError(t, task.Run(ctx))
		require.NoError(t, task.Run(ctx))
		for _, fan := range f.fans {
			assert.Equal(t, int64(1), f.notificationsFor(t, fan, result.Video.ID))
		}
	})
}

func TestPublishStorageFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("upload failure", func(t *testing.T) {
		f := newFixture(t)
		f.store.failFor = "thumbnails/"
		svc := f.service(nil)

		_, err := svc.Publish(ctx, f.owner, publishInput("broken thumb", true))
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindDependencyFailure))
		assert.Equal(t, StepStoreAsset, apperr.StepOf(err))

		var n int64
		require.NoError(t, f.db.Model(&model.Video{}).Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("row insert failure logs orphaned blobs", func(t *testing.T) {
		f := newFixture(t)
		svc := f.service(failingCreateRepo{repository.NewVideoRepository(f.db)})

		_, err := svc.Publish(ctx, f.owner, publishInput("lost row", true))
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindDependencyFailure))
		assert.Equal(t, StepCreateVideo, apperr.StepOf(err))

		orphans := f.logs.FilterMessage("orphaned_blob").All()
		require.Len(t, orphans, 1)
		assert.Len(t, orphans[0].ContextMap()["keys"], 2)
		assert.Zero(t, f.notifier.calls)
	})
}

func TestVideoReads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(nil)

	published, err := svc.Publish(ctx, f.owner, publishInput("public", false))
	require.NoError(t, err)
	pending := testdb.SeedVideo(t, f.db, f.owner.UserID, "under review", model.StatusPending)

	t.Run("list shows published only and is cached", func(t *testing.T) {
		list, err := svc.ListVideos(ctx, ListFilter{OwnerID: f.owner.UserID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, published.Video.ID, list[0].ID)
		require.NotNil(t, list[0].Channel)
		assert.Equal(t, "alice", list[0].Channel.Name)

		testdb.SeedVideo(t, f.db, f.owner.UserID, "sneaked in", "")
		list, err = svc.ListVideos(ctx, ListFilter{OwnerID: f.owner.UserID})
		require.NoError(t, err)
		assert.Len(t, list, 1, "served from cache")

		_, err = svc.Publish(ctx, f.owner, publishInput("second", false))
		require.NoError(t, err)
		list, err = svc.ListVideos(ctx, ListFilter{OwnerID: f.owner.UserID})
		require.NoError(t, err)
		assert.Len(t, list, 3, "publish invalidates listings")
	})

	t.Run("get counts views", func(t *testing.T) {
		_, err := svc.GetVideo(ctx, identity.Identity{}, published.Video.ID)
		require.NoError(t, err)
		video, err := svc.GetVideo(ctx, identity.Identity{}, published.Video.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), video.ViewsCount)
	})

	t.Run("pending video is hidden", func(t *testing.T) {
		stranger := identity.New(f.fans[0], identity.RoleViewer)
		for _, caller := range []identity.Identity{{}, stranger} {
			_, err := svc.GetVideo(ctx, caller, pending.ID)
			assert.True(t, apperr.Is(err, apperr.KindNotFound), "caller %q", caller.UserID)
		}
	})

	t.Run("owner and staff preview pending video", func(t *testing.T) {
		moderator := identity.New(f.fans[1], identity.RoleModerator)
		for _, caller := range []identity.Identity{f.owner, moderator} {
			video, err := svc.GetVideo(ctx, caller, pending.ID)
			require.NoError(t, err)
			assert.Equal(t, model.StatusPending, video.Status)
			assert.Zero(t, video.ViewsCount, "preview does not count views")
		}
	})

	t.Run("malformed ids are rejected", func(t *testing.T) {
		tests := []struct {
			name string
			call func() error
		}{
			{"get", func() error { _, err := svc.GetVideo(ctx, f.owner, "v1"); return err }},
			{"get empty", func() error { _, err := svc.GetVideo(ctx, f.owner, ""); return err }},
			{"list by owner", func() error { _, err := svc.ListVideos(ctx, ListFilter{OwnerID: "alice"}); return err }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.True(t, apperr.Is(tt.call(), apperr.KindInvalidArgument))
			})
		}
	})

	t.Run("list all requires staff", func(t *testing.T) {
		_, err := svc.ListAllVideos(ctx, f.owner, 10)
		assert.True(t, apperr.Is(err, apperr.KindAccessDenied))

		all, err := svc.ListAllVideos(ctx, identity.New(f.owner.UserID, identity.RoleModerator), 0)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})
}
