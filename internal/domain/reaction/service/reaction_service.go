package service

import (
	"context"
	"errors"

	"vidhub/internal/domain/reaction/model"
	"vidhub/internal/domain/reaction/repository"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/apperr"
	"vidhub/internal/pkg/identity"
	"vidhub/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReactionService 点赞/点踩服务
type ReactionService interface {
	SetReaction(ctx context.Context, caller identity.Identity, videoID string, isLike bool) (*model.Counts, error)
}

type reactionService struct {
	repo   repository.ReactionRepository
	logger *zap.Logger
}

func NewReactionService(repo repository.ReactionRepository, logger *zap.Logger) ReactionService {
	return &reactionService{repo: repo, logger: logger}
}

// SetReaction 同一用户重复调用会覆盖之前的态度
func (s *reactionService) SetReaction(ctx context.Context, caller identity.Identity, videoID string, isLike bool) (*model.Counts, error) {
	if !caller.Present() {
		return nil, apperr.InvalidArgument(action.SetReaction, "authenticated user is required")
	}
	if !utils.ValidID(videoID) {
		return nil, apperr.InvalidArgument(action.SetReaction, "video id %q is not a valid id", videoID)
	}

	counts, err := s.repo.SetReaction(ctx, videoID, caller.UserID, isLike)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(action.SetReaction, "video %s does not exist", videoID)
		}
		s.logger.Error("set reaction failed",
			zap.String("video_id", videoID),
			zap.String("user_id", caller.UserID),
			zap.Error(err),
		)
		return nil, apperr.Dependency(action.SetReaction, err, "reaction transaction")
	}
	return counts, nil
}
