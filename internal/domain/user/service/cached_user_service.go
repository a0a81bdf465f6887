package service

import (
	"context"
	"fmt"
	"time"

	"vidhub/internal/domain/user/model"
	"vidhub/internal/pkg/identity"
	"vidhub/pkg/cache"
	"vidhub/pkg/metrics"

	"go.uber.org/zap"
)

// 缓存键常量
const (
	UserCacheKeyPrefix = "user:"
	UserCacheTTL       = time.Minute * 5
)

// UserCacheKey 用户资料缓存键，订阅数变化时由订阅模块失效
func UserCacheKey(id string) string {
	return fmt.Sprintf("%s%s", UserCacheKeyPrefix, id)
}

// CachedUserService 带缓存的用户服务
type CachedUserService struct {
	UserService
	cache   cache.CacheService
	metrics *metrics.MetricsCollector
	logger  *zap.Logger
}

// NewCachedUserService 创建带缓存的用户服务
func NewCachedUserService(inner UserService, cache cache.CacheService, mc *metrics.MetricsCollector, logger *zap.Logger) UserService {
	return &CachedUserService{
		UserService: inner,
		cache:       cache,
		metrics:     mc,
		logger:      logger,
	}
}

// GetUser 获取单个用户（带缓存）
func (s *CachedUserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	cacheKey := UserCacheKey(id)

	// 尝试从缓存获取
	var user model.User
	if err := s.cache.Get(ctx, cacheKey, &user); err == nil {
		s.metrics.RecordCacheHit("user")
		return &user, nil
	}
	s.metrics.RecordCacheMiss("user")

	// 缓存未命中，从数据库获取
	userData, err := s.UserService.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	// 缓存失败不影响业务逻辑，只记录日志
	if err := s.cache.Set(ctx, cacheKey, userData, UserCacheTTL); err != nil {
		s.logger.Warn("failed to cache user", zap.String("user_id", id), zap.Error(err))
	}

	return userData, nil
}

// VerifyUser 更新认证状态（带缓存失效）
func (s *CachedUserService) VerifyUser(ctx context.Context, caller identity.Identity, userID string, verified bool) error {
	if err := s.UserService.VerifyUser(ctx, caller, userID, verified); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// ChangeRole 修改角色（带缓存失效）
func (s *CachedUserService) ChangeRole(ctx context.Context, caller identity.Identity, userID string, role identity.Role) error {
	if err := s.UserService.ChangeRole(ctx, caller, userID, role); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// invalidate 未缓存的用户跳过删除，Exists 出错时仍按删除处理
func (s *CachedUserService) invalidate(ctx context.Context, userID string) {
	key := UserCacheKey(userID)
	if cached, err := s.cache.Exists(ctx, key); err == nil && !cached {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to invalidate user cache", zap.String("user_id", userID), zap.Error(err))
	}
}
