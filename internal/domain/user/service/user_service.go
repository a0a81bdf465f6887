package service

import (
	"context"
	"errors"

	"vidhub/internal/domain/user/model"
	"vidhub/internal/domain/user/repository"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/apperr"
	"vidhub/internal/pkg/identity"
	"vidhub/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService 用户服务接口
type UserService interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, caller identity.Identity, page, limit int) ([]model.User, int64, error)
	VerifyUser(ctx context.Context, caller identity.Identity, userID string, verified bool) error
	ChangeRole(ctx context.Context, caller identity.Identity, userID string, role identity.Role) error
}

// userService 实现
type userService struct {
	repo   repository.UserRepository
	logger *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// GetUser 获取单个用户（公开资料）
func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if !utils.ValidID(id) {
		return nil, apperr.InvalidArgument(action.GetUser, "user id %q is not a valid id", id)
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(action.GetUser, id, err)
	}
	return user, nil
}

// ListUsers 管理后台用户列表，最多 100 条
func (s *userService) ListUsers(ctx context.Context, caller identity.Identity, page, limit int) ([]model.User, int64, error) {
	if !caller.IsStaff() {
		return nil, 0, apperr.AccessDenied(action.ListUsers, "moderator or admin role required")
	}

	p := utils.Pagination{Page: page, Limit: limit}
	offset, size := p.GetPageOffset()
	users, total, err := s.repo.GetList(ctx, offset, size)
	if err != nil {
		return nil, 0, apperr.Dependency(action.ListUsers, err, "query users")
	}
	return users, total, nil
}

// VerifyUser 设置认证标识，仅管理员
func (s *userService) VerifyUser(ctx context.Context, caller identity.Identity, userID string, verified bool) error {
	if !caller.IsAdmin() {
		return apperr.AccessDenied(action.VerifyUser, "admin role required")
	}
	if !utils.ValidID(userID) {
		return apperr.InvalidArgument(action.VerifyUser, "user id %q is not a valid id", userID)
	}

	if err := s.repo.UpdateVerification(ctx, userID, verified); err != nil {
		return mapRepoErr(action.VerifyUser, userID, err)
	}

	s.logger.Info("user verification changed",
		zap.String("user_id", userID),
		zap.Bool("verified", verified),
		zap.String("admin_id", caller.UserID),
	)
	return nil
}

// ChangeRole 修改角色，仅管理员，且不能修改自己的角色
func (s *userService) ChangeRole(ctx context.Context, caller identity.Identity, userID string, role identity.Role) error {
	if !caller.IsAdmin() {
		return apperr.AccessDenied(action.ChangeRole, "admin role required")
	}
	if !utils.ValidID(userID) {
		return apperr.InvalidArgument(action.ChangeRole, "user id %q is not a valid id", userID)
	}
	if !role.Valid() {
		return apperr.InvalidArgument(action.ChangeRole, "unknown role %q", role)
	}
	if userID == caller.UserID {
		return apperr.InvalidArgument(action.ChangeRole, "admins cannot change their own role")
	}

	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return mapRepoErr(action.ChangeRole, userID, err)
	}

	s.logger.Info("user role changed",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
		zap.String("admin_id", caller.UserID),
	)
	return nil
}

func mapRepoErr(act action.Action, userID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(act, "user %s does not exist", userID)
	}
	return apperr.Dependency(act, err, "user store")
}
