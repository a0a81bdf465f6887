package user

import (
	"net/http"

	"vidhub/internal/domain/user/handler"
	"vidhub/internal/domain/user/repository"
	"vidhub/internal/domain/user/service"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/middleware"
	"vidhub/internal/pkg/registry"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 用户模块优先级最高，因为其他模块依赖它
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	var userService service.UserService = service.NewUserService(userRepo, ctx.Logger)
	if ctx.Cache != nil {
		userService = service.NewCachedUserService(userService, ctx.Cache, ctx.Metrics, ctx.Logger)
	}
	userHandler := handler.NewUserHandler(userService)

	// 2. 路由注册
	setupRoutes(ctx, userHandler)

	return nil
}

func setupRoutes(ctx *registry.ModuleContext, h *handler.UserHandler) {
	// 公开路由
	public := ctx.Router.Group("/users")
	ctx.Handle(public, action.GetUser, http.MethodGet, "/:id", h.GetUser)

	// 管理后台
	admin := ctx.Router.Group("/admin/users")
	admin.Use(middleware.AuthMiddleware(), middleware.StaffMiddleware())
	{
		ctx.Handle(admin, action.ListUsers, http.MethodGet, "", h.ListUsers)
		ctx.Handle(admin, action.VerifyUser, http.MethodPut, "/:id/verification", h.VerifyUser)
		ctx.Handle(admin, action.ChangeRole, http.MethodPut, "/:id/role", h.ChangeRole)
	}
}
