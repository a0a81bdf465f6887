package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	subscriptionService "vidhub/internal/domain/subscription/service"
	"vidhub/internal/domain/video/model"
	"vidhub/internal/domain/video/repository"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/apperr"
	"vidhub/internal/pkg/events"
	"vidhub/internal/pkg/identity"
	"vidhub/internal/pkg/uploader"
	"vidhub/internal/pkg/worker"
	"vidhub/pkg/cache"
	"vidhub/pkg/metrics"
	"vidhub/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// 发布流程步骤
const (
	StepStoreAsset  = "store_asset"
	StepCreateVideo = "create_video"
)

const (
	MaxTitleLength   = 255
	DefaultListLimit = utils.DefaultLimit
	MaxListLimit     = utils.MaxLimit
	ListCacheTTL     = 30 * time.Second
)

// Asset 待上传文件
type Asset struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// PublishInput 发布输入
type PublishInput struct {
	Title       string
	Description string
	Category    string
	Duration    int
	Video       *Asset
	Thumbnail   *Asset
}

// PublishResult 发布结果，扇出失败时视频仍已发布，FailedStep 标明失败步骤
type PublishResult struct {
	Video      *model.Video `json:"video"`
	Notified   int64        `json:"notified"`
	FailedStep string       `json:"failedStep,omitempty"`
	Warning    string       `json:"warning,omitempty"`
}

// ListFilter 列表筛选
type ListFilter struct {
	OwnerID  string
	Category string
	Limit    int
}

// Notifier 订阅者通知扇出
type Notifier interface {
	NotifySubscribers(ctx context.Context, channelID string, video subscriptionService.VideoRef) (int64, error)
}

// TaskQueue 异步重试队列
type TaskQueue interface {
	AddTask(task worker.Task) bool
}

type VideoService interface {
	Publish(ctx context.Context, caller identity.Identity, input PublishInput) (*PublishResult, error)
	ListVideos(ctx context.Context, filter ListFilter) ([]model.Video, error)
	// GetVideo 作者与审核人员可预览未发布视频，预览不计播放
	GetVideo(ctx context.Context, caller identity.Identity, id string) (*model.Video, error)
	ListAllVideos(ctx context.Context, caller identity.Identity, limit int) ([]model.Video, error)
}

type videoService struct {
	repo     repository.VideoRepository
	store    uploader.Uploader
	notifier Notifier
	retries  TaskQueue
	events   events.Publisher
	cache    cache.CacheService
	metrics  *metrics.MetricsCollector
	logger   *zap.Logger
	now      func() time.Time
}

// Option 服务配置项
type Option func(*videoService)

func WithRetryQueue(q TaskQueue) Option {
	return func(s *videoService) { s.retries = q }
}

func WithEvents(p events.Publisher) Option {
	return func(s *videoService) { s.events = p }
}

// WithCache 公开列表缓存
func WithCache(c cache.CacheService) Option {
	return func(s *videoService) { s.cache = c }
}

func WithMetrics(mc *metrics.MetricsCollector) Option {
	return func(s *videoService) { s.metrics = mc }
}

// WithClock 注入时钟，用于对象键与创建时间
func WithClock(now func() time.Time) Option {
	return func(s *videoService) { s.now = now }
}

func NewVideoService(repo repository.VideoRepository, store uploader.Uploader, notifier Notifier, logger *zap.Logger, opts ...Option) VideoService {
	s := &videoService{
		repo:     repo,
		store:    store,
		notifier: notifier,
		events:   events.NopPublisher{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *videoService) Publish(ctx context.Context, caller identity.Identity, input PublishInput) (*PublishResult, error) {
	if err := validatePublish(caller, &input); err != nil {
		return nil, err
	}

	owner, err := s.repo.GetOwner(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(action.Publish, "owner %s does not exist", caller.UserID)
		}
		return nil, apperr.Dependency(action.Publish, err, "load owner")
	}

	now := s.now()
	stored, err := s.storeAssets(ctx, caller.UserID, input, now)
	if err != nil {
		s.reportOrphans(stored.keys(), StepStoreAsset, err)
		return nil, apperr.Wrap(apperr.KindDependencyFailure, action.Publish, err, "store assets").WithStep(StepStoreAsset)
	}

	video := &model.Video{
		UserID:       caller.UserID,
		Title:        input.Title,
		Description:  input.Description,
		VideoURL:     stored.videoURL,
		ThumbnailURL: stored.thumbnailURL,
		Duration:     input.Duration,
		Category:     input.Category,
		Status:       model.StatusPublished,
	}
	video.CreatedAt = now
	video.UpdatedAt = now
	if err := s.repo.Create(ctx, video); err != nil {
		s.reportOrphans(stored.keys(), StepCreateVideo, err)
		return nil, apperr.Wrap(apperr.KindDependencyFailure, action.Publish, err, "insert video").WithStep(StepCreateVideo)
	}

	s.logger.Info("video published",
		zap.String("video_id", video.ID),
		zap.String("owner_id", caller.UserID),
		zap.String("video_key", stored.videoKey),
	)
	s.invalidateListings(ctx)
	s.emit(ctx, events.VideoPublished, map[string]interface{}{
		"videoId":  video.ID,
		"ownerId":  caller.UserID,
		"title":    video.Title,
		"category": video.Category,
	})

	result := &PublishResult{Video: video}
	ref := subscriptionService.VideoRef{ID: video.ID, Title: video.Title, ChannelName: owner.Name}
	notified, err := s.notifier.NotifySubscribers(ctx, caller.UserID, ref)
	if err != nil {
		// 视频已提交，不回滚，交给重试队列补发
		s.logger.Error("notification fan-out failed",
			zap.String("video_id", video.ID),
			zap.String("channel_id", caller.UserID),
			zap.Error(err),
		)
		s.metrics.IncFanoutFailure()
		result.FailedStep = subscriptionService.StepNotifySubscribers
		result.Warning = "video published but subscriber notifications are delayed"
		s.scheduleFanoutRetry(caller.UserID, ref)
		return result, nil
	}
	result.Notified = notified
	return result, nil
}

func validatePublish(caller identity.Identity, input *PublishInput) error {
	if !caller.Present() {
		return apperr.InvalidArgument(action.Publish, "owner is required")
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return apperr.InvalidArgument(action.Publish, "title is required")
	}
	if utf8.RuneCountInString(input.Title) > MaxTitleLength {
		return apperr.InvalidArgument(action.Publish, "title exceeds %d characters", MaxTitleLength)
	}
	if input.Video == nil || input.Video.Body == nil {
		return apperr.InvalidArgument(action.Publish, "video file is required")
	}
	if input.Thumbnail != nil && input.Thumbnail.Body == nil {
		input.Thumbnail = nil
	}
	if input.Duration < 0 {
		return apperr.InvalidArgument(action.Publish, "duration must not be negative")
	}
	input.Category = strings.TrimSpace(input.Category)
	if input.Category == "" {
		input.Category = model.DefaultCategory
	}
	return nil
}

type storedAssets struct {
	mu           sync.Mutex
	videoKey     string
	videoURL     string
	thumbKey     string
	thumbnailURL *string
}

func (a *storedAssets) keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var keys []string
	if a.videoKey != "" {
		keys = append(keys, a.videoKey)
	}
	if a.thumbKey != "" {
		keys = append(keys, a.thumbKey)
	}
	return keys
}

// storeAssets 视频与封面并发上传，返回值始终非空以便记录已写入的对象
func (s *videoService) storeAssets(ctx context.Context, ownerID string, input PublishInput, now time.Time) (*storedAssets, error) {
	stored := &storedAssets{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		key := uploader.ObjectKey("videos", ownerID, input.Video.Filename, ".mp4", now)
		url, err := s.store.Put(gctx, key, input.Video.Body, input.Video.Size, input.Video.ContentType)
		if err != nil {
			return fmt.Errorf("put video %s: %w", key, err)
		}
		stored.mu.Lock()
		stored.videoKey, stored.videoURL = key, url
		stored.mu.Unlock()
		return nil
	})

	if input.Thumbnail != nil {
		g.Go(func() error {
			key := uploader.ObjectKey("thumbnails", ownerID, input.Thumbnail.Filename, ".jpg", now)
			url, err := s.store.Put(gctx, key, input.Thumbnail.Body, input.Thumbnail.Size, input.Thumbnail.ContentType)
			if err != nil {
				return fmt.Errorf("put thumbnail %s: %w", key, err)
			}
			stored.mu.Lock()
			stored.thumbKey, stored.thumbnailURL = key, &url
			stored.mu.Unlock()
			return nil
		})
	}

	return stored, g.Wait()
}

// reportOrphans 对象已写入但视频行未落库，留给对账任务清理
func (s *videoService) reportOrphans(keys []string, step string, cause error) {
	if len(keys) == 0 {
		return
	}
	s.logger.Warn("orphaned_blob",
		zap.String("step", step),
		zap.Strings("keys", keys),
		zap.Error(cause),
	)
	s.metrics.AddOrphanedBlobs(len(keys))
}

func (s *videoService) scheduleFanoutRetry(channelID string, ref subscriptionService.VideoRef) {
	if s.retries == nil {
		s.logger.Warn("fan-out retry skipped, no worker pool", zap.String("video_id", ref.ID))
		return
	}
	task := worker.Task{
		Name: "notify_subscribers:" + ref.ID,
		Run: func(ctx context.Context) error {
			n, err := s.notifier.NotifySubscribers(ctx, channelID, ref)
			if err != nil {
				s.metrics.RecordFanoutRetry("failure")
				return err
			}
			s.metrics.RecordFanoutRetry("success")
			s.logger.Info("fan-out retry delivered", zap.String("video_id", ref.ID), zap.Int64("notified", n))
			return nil
		},
	}
	if !s.retries.AddTask(task) {
		s.logger.Error("fan-out retry not queued", zap.String("video_id", ref.ID))
	}
}

func (s *videoService) ListVideos(ctx context.Context, filter ListFilter) ([]model.Video, error) {
	if filter.OwnerID != "" && !utils.ValidID(filter.OwnerID) {
		return nil, apperr.InvalidArgument(action.ListVideos, "owner id %q is not a valid id", filter.OwnerID)
	}
	filter.Limit = utils.ClampLimit(filter.Limit, DefaultListLimit, MaxListLimit)
	key := ListCacheKey(filter)

	if s.cache != nil {
		var cached []model.Video
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheHit("video_list")
			return cached, nil
		}
		s.metrics.RecordCacheMiss("video_list")
	}

	videos, err := s.repo.ListPublished(ctx, repository.ListFilter{
		OwnerID:  filter.OwnerID,
		Category: filter.Category,
		Limit:    filter.Limit,
	})
	if err != nil {
		return nil, apperr.Dependency(action.ListVideos, err, "query videos")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, videos, ListCacheTTL); err != nil {
			s.logger.Warn("failed to cache video list", zap.String("key", key), zap.Error(err))
		}
	}
	return videos, nil
}

func (s *videoService) GetVideo(ctx context.Context, caller identity.Identity, id string) (*model.Video, error) {
	if !utils.ValidID(id) {
		return nil, apperr.InvalidArgument(action.GetVideo, "video id %q is not a valid id", id)
	}
	video, err := s.repo.GetPublishedAndCountView(ctx, id)
	if err == nil {
		return video, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Dependency(action.GetVideo, err, "load video")
	}
	if !caller.Present() {
		return nil, apperr.NotFound(action.GetVideo, "video %s does not exist", id)
	}

	video, err = s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(action.GetVideo, "video %s does not exist", id)
		}
		return nil, apperr.Dependency(action.GetVideo, err, "load video")
	}
	if video.UserID != caller.UserID && !caller.IsStaff() {
		return nil, apperr.NotFound(action.GetVideo, "video %s does not exist", id)
	}
	s.logger.Debug("unpublished video previewed",
		zap.String("video_id", id),
		zap.String("viewer_id", caller.UserID),
		zap.String("status", video.Status),
	)
	return video, nil
}

func (s *videoService) ListAllVideos(ctx context.Context, caller identity.Identity, limit int) ([]model.Video, error) {
	if !caller.IsStaff() {
		return nil, apperr.AccessDenied(action.ListAllVideos, "moderator or admin role required")
	}
	videos, err := s.repo.ListAll(ctx, utils.ClampLimit(limit, MaxListLimit, MaxListLimit))
	if err != nil {
		return nil, apperr.Dependency(action.ListAllVideos, err, "query videos")
	}
	return videos, nil
}

// ListCacheKey 列表缓存键，按筛选条件区分
func ListCacheKey(filter ListFilter) string {
	return fmt.Sprintf("%sowner=%s:category=%s:limit=%d", model.ListCacheKeyPrefix, filter.OwnerID, filter.Category, filter.Limit)
}

func (s *videoService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePattern(ctx, model.ListCacheKeyPrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate video listings", zap.Error(err))
	}
}

func (s *videoService) emit(ctx context.Context, routingKey string, payload interface{}) {
	if err := s.events.Publish(ctx, routingKey, payload); err != nil {
		s.logger.Warn("event publish failed", zap.String("routing_key", routingKey), zap.Error(err))
		s.metrics.IncEventPublishFailure(routingKey)
	}
}
