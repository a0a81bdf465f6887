package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"vidhub/internal/domain/comment/model"
	"vidhub/internal/domain/comment/repository"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/apperr"
	"vidhub/internal/pkg/identity"
	"vidhub/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MaxTextLength    = 5000
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type CommentService interface {
	PostComment(ctx context.Context, caller identity.Identity, videoID, text string, parentID *string) (*model.Comment, error)
	ListRootComments(ctx context.Context, videoID string, limit int) ([]model.Comment, error)
	ListReplies(ctx context.Context, parentID string, limit int) ([]model.Comment, error)
}

type commentService struct {
	repo   repository.CommentRepository
	logger *zap.Logger
	now    func() time.Time
}

// Option 服务配置项
type Option func(*commentService)

// WithClock 注入时钟，决定评论创建时间
func WithClock(now func() time.Time) Option {
	return func(s *commentService) { s.now = now }
}

func NewCommentService(repo repository.CommentRepository, logger *zap.Logger, opts ...Option) CommentService {
	s := &commentService{repo: repo, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *commentService) PostComment(ctx context.Context, caller identity.Identity, videoID, text string, parentID *string) (*model.Comment, error) {
	if !caller.Present() {
		return nil, apperr.InvalidArgument(action.PostComment, "author is required")
	}
	if !utils.ValidID(videoID) {
		return nil, apperr.InvalidArgument(action.PostComment, "video id %q is not a valid id", videoID)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.InvalidArgument(action.PostComment, "comment text is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, apperr.InvalidArgument(action.PostComment, "comment text exceeds %d characters", MaxTextLength)
	}
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil && !utils.ValidID(*parentID) {
		return nil, apperr.InvalidArgument(action.PostComment, "parent comment id %q is not a valid id", *parentID)
	}

	comment := &model.Comment{
		VideoID:         videoID,
		UserID:          caller.UserID,
		Text:            text,
		ParentCommentID: parentID,
	}
	comment.CreatedAt = s.now()
	comment.UpdatedAt = comment.CreatedAt

	if err := s.repo.Create(ctx, comment); err != nil {
		switch {
		case errors.Is(err, repository.ErrVideoNotFound):
			return nil, apperr.NotFound(action.PostComment, "video %s does not exist", videoID)
		case errors.Is(err, repository.ErrParentNotFound):
			return nil, apperr.NotFound(action.PostComment, "parent comment %s does not exist", *parentID)
		case errors.Is(err, repository.ErrParentMismatch):
			return nil, apperr.InvalidArgument(action.PostComment, "parent comment %s belongs to another video", *parentID)
		}
		s.logger.Error("create comment failed", zap.String("video_id", videoID), zap.Error(err))
		return nil, apperr.Dependency(action.PostComment, err, "insert comment")
	}
	return comment, nil
}

func (s *commentService) ListRootComments(ctx context.Context, videoID string, limit int) ([]model.Comment, error) {
	if !utils.ValidID(videoID) {
		return nil, apperr.InvalidArgument(action.ListRootComments, "video id %q is not a valid id", videoID)
	}
	comments, err := s.repo.ListRoots(ctx, videoID, utils.ClampLimit(limit, DefaultListLimit, MaxListLimit))
	if err != nil {
		return nil, apperr.Dependency(action.ListRootComments, err, "query comments")
	}
	return comments, nil
}

func (s *commentService) ListReplies(ctx context.Context, parentID string, limit int) ([]model.Comment, error) {
	if !utils.ValidID(parentID) {
		return nil, apperr.InvalidArgument(action.ListReplies, "parent comment id %q is not a valid id", parentID)
	}
	if _, err := s.repo.GetByID(ctx, parentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(action.ListReplies, "comment %s does not exist", parentID)
		}
		return nil, apperr.Dependency(action.ListReplies, err, "load parent comment")
	}

	comments, err := s.repo.ListReplies(ctx, parentID, utils.ClampLimit(limit, DefaultListLimit, MaxListLimit))
	if err != nil {
		return nil, apperr.Dependency(action.ListReplies, err, "query replies")
	}
	return comments, nil
}
