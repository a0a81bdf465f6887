package video

import (
	"net/http"

	"vidhub/internal/domain/subscription"
	"vidhub/internal/domain/video/handler"
	"vidhub/internal/domain/video/repository"
	"vidhub/internal/domain/video/service"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/middleware"
	"vidhub/internal/pkg/registry"
)

// VideoModule 视频发布与浏览模块
type VideoModule struct{}

func init() {
	registry.Register(&VideoModule{})
}

func (m *VideoModule) Name() string {
	return "video"
}

func (m *VideoModule) Priority() int {
	return 10
}

func (m *VideoModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	opts := []service.Option{service.WithMetrics(ctx.Metrics)}
	if ctx.Workers != nil {
		opts = append(opts, service.WithRetryQueue(ctx.Workers))
	}
	if ctx.Events != nil {
		opts = append(opts, service.WithEvents(ctx.Events))
	}
	if ctx.Cache != nil {
		opts = append(opts, service.WithCache(ctx.Cache))
	}
	svc := service.NewVideoService(
		repository.NewVideoRepository(ctx.DB),
		ctx.Uploader,
		subscription.NewService(ctx),
		ctx.Logger,
		opts...,
	)
	h := handler.NewVideoHandler(svc)

	// 2. 路由注册
	videos := ctx.Router.Group("/videos")
	{
		ctx.Handle(videos, action.ListVideos, http.MethodGet, "", h.ListVideos)
		ctx.Handle(videos, action.GetVideo, http.MethodGet, "/:id", middleware.OptionalAuthMiddleware(), h.GetVideo)
		ctx.Handle(videos, action.Publish, http.MethodPost, "", middleware.AuthMiddleware(), h.Publish)
	}

	admin := ctx.Router.Group("/admin/videos")
	admin.Use(middleware.AuthMiddleware(), middleware.StaffMiddleware())
	ctx.Handle(admin, action.ListAllVideos, http.MethodGet, "", h.ListAllVideos)

	return nil
}
