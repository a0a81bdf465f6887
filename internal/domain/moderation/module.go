package moderation

import (
	"fmt"
	"net/http"

	"vidhub/internal/domain/moderation/handler"
	"vidhub/internal/domain/moderation/repository"
	"vidhub/internal/domain/moderation/service"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/middleware"
	"vidhub/internal/pkg/registry"

	"github.com/jmoiron/sqlx"
)

// ModerationModule 举报与审核模块
type ModerationModule struct{}

func init() {
	registry.Register(&ModerationModule{})
}

func (m *ModerationModule) Name() string {
	return "moderation"
}

func (m *ModerationModule) Priority() int {
	return 30
}

func (m *ModerationModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	sqlDB, err := ctx.DB.DB()
	if err != nil {
		return fmt.Errorf("moderation: get sql db: %w", err)
	}
	query := repository.NewReportQuery(sqlx.NewDb(sqlDB, "postgres"))

	opts := []service.Option{
		service.WithPendingLimit(ctx.Config.Moderation.PendingLimit),
		service.WithMetrics(ctx.Metrics),
	}
	if ctx.Events != nil {
		opts = append(opts, service.WithEvents(ctx.Events))
	}
	if ctx.Cache != nil {
		opts = append(opts, service.WithCache(ctx.Cache))
	}
	svc := service.NewModerationService(repository.NewReportRepository(ctx.DB), query, ctx.Logger, opts...)
	h := handler.NewModerationHandler(svc)

	// 2. 路由注册
	reports := ctx.Router.Group("/reports")
	reports.Use(middleware.AuthMiddleware())
	ctx.Handle(reports, action.FileReport, http.MethodPost, "", h.FileReport)

	admin := ctx.Router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.StaffMiddleware())
	{
		ctx.Handle(admin, action.ListPendingReports, http.MethodGet, "/reports", h.ListPending)
		ctx.Handle(admin, action.ResolveReport, http.MethodPost, "/reports/:id/resolve", h.Resolve)
		ctx.Handle(admin, action.SetVideoStatus, http.MethodPut, "/videos/:id/status", h.SetVideoStatus)
		ctx.Handle(admin, action.RemoveComment, http.MethodDelete, "/comments/:id", h.RemoveComment)
		ctx.Handle(admin, action.ModerationStats, http.MethodGet, "/stats", h.Stats)
	}

	return nil
}
