package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidhub/internal/domain/subscription/model"
	"vidhub/internal/domain/subscription/repository"
	userService "vidhub/internal/domain/user/service"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/apperr"
	"vidhub/internal/pkg/identity"
	"vidhub/pkg/cache"
	"vidhub/pkg/metrics"
	"vidhub/pkg/utils"

	"go.uber.org/zap"
)

// StepNotifySubscribers 发布流程中的扇出步骤名
const StepNotifySubscribers = "notify_subscribers"

const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 100
)

// Status 订阅状态
type Status struct {
	ChannelID  string `json:"channelId"`
	Subscribed bool   `json:"subscribed"`
}

// VideoRef 扇出所需的视频信息
type VideoRef struct {
	ID          string
	Title       string
	ChannelName string
}

type SubscriptionService interface {
	Subscribe(ctx context.Context, caller identity.Identity, channelID string) (*Status, error)
	Unsubscribe(ctx context.Context, caller identity.Identity, channelID string) (*Status, error)
	NotifySubscribers(ctx context.Context, channelID string, video VideoRef) (int64, error)
	ListNotifications(ctx context.Context, caller identity.Identity, limit int) ([]model.Notification, error)
}

type subscriptionService struct {
	repo    repository.SubscriptionRepository
	cache   cache.CacheService
	metrics *metrics.MetricsCollector
	logger  *zap.Logger
	now     func() time.Time
}

// Option 服务配置项
type Option func(*subscriptionService)

// WithCache 订阅数变化时失效频道资料缓存
func WithCache(c cache.CacheService) Option {
	return func(s *subscriptionService) { s.cache = c }
}

// WithMetrics 记录通知写入数
func WithMetrics(mc *metrics.MetricsCollector) Option {
	return func(s *subscriptionService) { s.metrics = mc }
}

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(s *subscriptionService) { s.now = now }
}

func NewSubscriptionService(repo repository.SubscriptionRepository, logger *zap.Logger, opts ...Option) SubscriptionService {
	s := &subscriptionService{repo: repo, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe 幂等，重复订阅不会重复累加订阅数
func (s *subscriptionService) Subscribe(ctx context.Context, caller identity.Identity, channelID string) (*Status, error) {
	if err := validatePair(action.Subscribe, caller, channelID); err != nil {
		return nil, err
	}

	created, err := s.repo.Subscribe(ctx, caller.UserID, channelID)
	if err != nil {
		return nil, s.mapErr(action.Subscribe, channelID, err)
	}
	if created {
		s.invalidateChannel(ctx, channelID)
	}
	return &Status{ChannelID: channelID, Subscribed: true}, nil
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, caller identity.Identity, channelID string) (*Status, error) {
	if err := validatePair(action.Unsubscribe, caller, channelID); err != nil {
		return nil, err
	}

	removed, err := s.repo.Unsubscribe(ctx, caller.UserID, channelID)
	if err != nil {
		return nil, s.mapErr(action.Unsubscribe, channelID, err)
	}
	if removed {
		s.invalidateChannel(ctx, channelID)
	}
	return &Status{ChannelID: channelID, Subscribed: false}, nil
}

// NotifySubscribers 为频道订阅者写入新视频通知，可安全重试
func (s *subscriptionService) NotifySubscribers(ctx context.Context, channelID string, video VideoRef) (int64, error) {
	channelName := video.ChannelName
	if channelName == "" {
		channelName = "channel"
	}
	template := model.Notification{
		VideoID:   video.ID,
		Type:      model.TypeNewVideo,
		Title:     fmt.Sprintf("New video from %s", channelName),
		Message:   video.Title,
		Link:      "/video/" + video.ID,
		CreatedAt: s.now(),
	}

	inserted, err := s.repo.FanOut(ctx, channelID, template)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindDependencyFailure, action.Publish, err,
			"notify subscribers of channel %s", channelID).WithStep(StepNotifySubscribers)
	}
	s.metrics.AddNotifications(int(inserted))
	return inserted, nil
}

func (s *subscriptionService) ListNotifications(ctx context.Context, caller identity.Identity, limit int) ([]model.Notification, error) {
	if !caller.Present() {
		return nil, apperr.InvalidArgument(action.ListNotifications, "authenticated user is required")
	}
	list, err := s.repo.ListNotifications(ctx, caller.UserID, utils.ClampLimit(limit, DefaultNotificationLimit, MaxNotificationLimit))
	if err != nil {
		return nil, apperr.Dependency(action.ListNotifications, err, "query notifications")
	}
	return list, nil
}

func validatePair(act action.Action, caller identity.Identity, channelID string) error {
	if !caller.Present() {
		return apperr.InvalidArgument(act, "authenticated user is required")
	}
	if !utils.ValidID(channelID) {
		return apperr.InvalidArgument(act, "channel id %q is not a valid id", channelID)
	}
	if channelID == caller.UserID {
		return apperr.InvalidArgument(act, "users cannot subscribe to their own channel")
	}
	return nil
}

func (s *subscriptionService) mapErr(act action.Action, channelID string, err error) error {
	if errors.Is(err, repository.ErrChannelNotFound) {
		return apperr.NotFound(act, "channel %s does not exist", channelID)
	}
	s.logger.Error("subscription transaction failed", zap.String("action", act.String()), zap.String("channel_id", channelID), zap.Error(err))
	return apperr.Dependency(act, err, "subscription transaction")
}

func (s *subscriptionService) invalidateChannel(ctx context.Context, channelID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userService.UserCacheKey(channelID)); err != nil {
		s.logger.Warn("failed to invalidate channel cache", zap.String("channel_id", channelID), zap.Error(err))
	}
}
