package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"vidhub/internal/domain/moderation/model"
	"vidhub/internal/domain/moderation/repository"
	videoModel "vidhub/internal/domain/video/model"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/apperr"
	"vidhub/internal/pkg/events"
	"vidhub/internal/pkg/identity"
	"vidhub/pkg/cache"
	"vidhub/pkg/metrics"
	"vidhub/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// MaxPendingLimit 待处理列表上限
	MaxPendingLimit = 50
	maxReasonLength = 100
)

// FileReportInput 举报输入，视频与评论必须且只能指定一个
type FileReportInput struct {
	VideoID     string
	CommentID   string
	Reason      string
	Description string
}

type ModerationService interface {
	FileReport(ctx context.Context, caller identity.Identity, input FileReportInput) (*model.Report, error)
	ListPending(ctx context.Context, caller identity.Identity) ([]model.PendingReport, error)
	Resolve(ctx context.Context, caller identity.Identity, reportID, newStatus string) (*model.Report, error)
	SetVideoStatus(ctx context.Context, caller identity.Identity, videoID, status string) error
	RemoveComment(ctx context.Context, caller identity.Identity, commentID string) error
	Stats(ctx context.Context, caller identity.Identity) (*model.Stats, error)
}

type moderationService struct {
	repo         repository.ReportRepository
	query        repository.ReportQuery
	events       events.Publisher
	cache        cache.CacheService
	metrics      *metrics.MetricsCollector
	logger       *zap.Logger
	pendingLimit int
}

// Option 服务配置项
type Option func(*moderationService)

// WithPendingLimit 待处理列表条数，超过 50 按 50 处理
func WithPendingLimit(limit int) Option {
	return func(s *moderationService) {
		if limit > 0 && limit <= MaxPendingLimit {
			s.pendingLimit = limit
		}
	}
}

// WithEvents 审核结果事件
func WithEvents(p events.Publisher) Option {
	return func(s *moderationService) { s.events = p }
}

// WithCache 视频状态变化后失效列表缓存
func WithCache(c cache.CacheService) Option {
	return func(s *moderationService) { s.cache = c }
}

func WithMetrics(mc *metrics.MetricsCollector) Option {
	return func(s *moderationService) { s.metrics = mc }
}

func NewModerationService(repo repository.ReportRepository, query repository.ReportQuery, logger *zap.Logger, opts ...Option) ModerationService {
	s := &moderationService{
		repo:         repo,
		query:        query,
		events:       events.NopPublisher{},
		logger:       logger,
		pendingLimit: MaxPendingLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *moderationService) FileReport(ctx context.Context, caller identity.Identity, input FileReportInput) (*model.Report, error) {
	if !caller.Present() {
		return nil, apperr.InvalidArgument(action.FileReport, "reporter is required")
	}
	hasVideo, hasComment := input.VideoID != "", input.CommentID != ""
	if hasVideo == hasComment {
		return nil, apperr.InvalidArgument(action.FileReport, "exactly one of video id or comment id must be set")
	}
	if target := input.VideoID + input.CommentID; !utils.ValidID(target) {
		return nil, apperr.InvalidArgument(action.FileReport, "reported content id %q is not a valid id", target)
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, apperr.InvalidArgument(action.FileReport, "reason is required")
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, apperr.InvalidArgument(action.FileReport, "reason exceeds %d characters", maxReasonLength)
	}

	report := &model.Report{
		ReporterID:  caller.UserID,
		Reason:      reason,
		Description: strings.TrimSpace(input.Description),
	}
	target := input.VideoID
	if hasVideo {
		report.VideoID = &input.VideoID
	} else {
		report.CommentID = &input.CommentID
		target = input.CommentID
	}

	if err := s.repo.Create(ctx, report); err != nil {
		if errors.Is(err, repository.ErrTargetNotFound) {
			return nil, apperr.NotFound(action.FileReport, "reported content %s does not exist", target)
		}
		return nil, apperr.Dependency(action.FileReport, err, "insert report")
	}

	s.logger.Info("report filed",
		zap.String("report_id", report.ID),
		zap.String("reporter_id", caller.UserID),
		zap.String("target", target),
	)
	return report, nil
}

func (s *moderationService) ListPending(ctx context.Context, caller identity.Identity) ([]model.PendingReport, error) {
	if !caller.IsStaff() {
		return nil, apperr.AccessDenied(action.ListPendingReports, "moderator or admin role required")
	}
	reports, err := s.query.ListPending(ctx, s.pendingLimit)
	if err != nil {
		return nil, apperr.Dependency(action.ListPendingReports, err, "query pending reports")
	}
	return reports, nil
}

// Resolve 审核人取调用方身份，已处理的举报返回 InvalidState
func (s *moderationService) Resolve(ctx context.Context, caller identity.Identity, reportID, newStatus string) (*model.Report, error) {
	if !caller.IsStaff() {
		return nil, apperr.AccessDenied(action.ResolveReport, "moderator or admin role required")
	}
	if !utils.ValidID(reportID) {
		return nil, apperr.InvalidArgument(action.ResolveReport, "report id %q is not a valid id", reportID)
	}
	if !model.IsTerminal(newStatus) {
		return nil, apperr.InvalidArgument(action.ResolveReport, "status must be %s or %s", model.StatusResolved, model.StatusRejected)
	}

	if err := s.repo.Resolve(ctx, reportID, newStatus, caller.UserID); err != nil {
		switch {
		case errors.Is(err, repository.ErrReportNotFound):
			return nil, apperr.NotFound(action.ResolveReport, "report %s does not exist", reportID)
		case errors.Is(err, repository.ErrReportNotPending):
			return nil, apperr.InvalidState(action.ResolveReport, "report %s is no longer pending", reportID)
		}
		return nil, apperr.Dependency(action.ResolveReport, err, "update report")
	}

	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, apperr.Dependency(action.ResolveReport, err, "reload report")
	}

	s.logger.Info("report resolved",
		zap.String("report_id", reportID),
		zap.String("status", newStatus),
		zap.String("reviewer_id", caller.UserID),
	)
	s.emit(ctx, events.ReportResolved, map[string]interface{}{
		"reportId":   reportID,
		"status":     newStatus,
		"reviewerId": caller.UserID,
	})
	return report, nil
}

func (s *moderationService) SetVideoStatus(ctx context.Context, caller identity.Identity, videoID, status string) error {
	if !caller.IsStaff() {
		return apperr.AccessDenied(action.SetVideoStatus, "moderator or admin role required")
	}
	if !utils.ValidID(videoID) {
		return apperr.InvalidArgument(action.SetVideoStatus, "video id %q is not a valid id", videoID)
	}
	if !videoModel.ValidStatus(status) {
		return apperr.InvalidArgument(action.SetVideoStatus, "unknown video status %q", status)
	}

	if err := s.repo.SetVideoStatus(ctx, videoID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(action.SetVideoStatus, "video %s does not exist", videoID)
		}
		return apperr.Dependency(action.SetVideoStatus, err, "update video status")
	}

	s.logger.Info("video status changed",
		zap.String("video_id", videoID),
		zap.String("status", status),
		zap.String("moderator_id", caller.UserID),
	)
	s.invalidateListings(ctx)
	s.emit(ctx, events.VideoStatusChanged, map[string]interface{}{
		"videoId":     videoID,
		"status":      status,
		"moderatorId": caller.UserID,
	})
	return nil
}

func (s *moderationService) RemoveComment(ctx context.Context, caller identity.Identity, commentID string) error {
	if !caller.IsStaff() {
		return apperr.AccessDenied(action.RemoveComment, "moderator or admin role required")
	}
	if !utils.ValidID(commentID) {
		return apperr.InvalidArgument(action.RemoveComment, "comment id %q is not a valid id", commentID)
	}

	if err := s.repo.RemoveComment(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(action.RemoveComment, "comment %s does not exist", commentID)
		}
		return apperr.Dependency(action.RemoveComment, err, "delete comment")
	}

	s.logger.Info("comment removed", zap.String("comment_id", commentID), zap.String("moderator_id", caller.UserID))
	return nil
}

func (s *moderationService) Stats(ctx context.Context, caller identity.Identity) (*model.Stats, error) {
	if !caller.IsStaff() {
		return nil, apperr.AccessDenied(action.ModerationStats, "moderator or admin role required")
	}
	stats, err := s.query.Stats(ctx)
	if err != nil {
		return nil, apperr.Dependency(action.ModerationStats, err, "query stats")
	}
	return stats, nil
}

// emit 事件发布失败只记录，不影响已提交的审核结果
func (s *moderationService) emit(ctx context.Context, routingKey string, payload interface{}) {
	if err := s.events.Publish(ctx, routingKey, payload); err != nil {
		s.logger.Warn("event publish failed", zap.String("routing_key", routingKey), zap.Error(err))
		s.metrics.IncEventPublishFailure(routingKey)
	}
}

func (s *moderationService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePattern(ctx, videoModel.ListCacheKeyPrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate video listings", zap.Error(err))
	}
}
