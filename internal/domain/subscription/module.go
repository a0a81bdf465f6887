package subscription

import (
	"net/http"

	"vidhub/internal/domain/subscription/handler"
	"vidhub/internal/domain/subscription/repository"
	"vidhub/internal/domain/subscription/service"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/middleware"
	"vidhub/internal/pkg/registry"
)

// SubscriptionModule 订阅与通知模块
type SubscriptionModule struct{}

func init() {
	registry.Register(&SubscriptionModule{})
}

func (m *SubscriptionModule) Name() string {
	return "subscription"
}

func (m *SubscriptionModule) Priority() int {
	// 发布流程依赖扇出服务，需先于 video 模块初始化
	return 5
}

func (m *SubscriptionModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	svc := NewService(ctx)
	h := handler.NewSubscriptionHandler(svc)

	// 2. 路由注册
	channels := ctx.Router.Group("/channels")
	channels.Use(middleware.AuthMiddleware())
	{
		ctx.Handle(channels, action.Subscribe, http.MethodPost, "/:id/subscription", h.Subscribe)
		ctx.Handle(channels, action.Unsubscribe, http.MethodDelete, "/:id/subscription", h.Unsubscribe)
	}

	notifications := ctx.Router.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	ctx.Handle(notifications, action.ListNotifications, http.MethodGet, "", h.ListNotifications)

	return nil
}

// NewService 按模块上下文组装订阅服务，video 模块复用它做通知扇出
func NewService(ctx *registry.ModuleContext) service.SubscriptionService {
	opts := []service.Option{service.WithMetrics(ctx.Metrics)}
	if ctx.Cache != nil {
		opts = append(opts, service.WithCache(ctx.Cache))
	}
	return service.NewSubscriptionService(repository.NewSubscriptionRepository(ctx.DB), ctx.Logger, opts...)
}
