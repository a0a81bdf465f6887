package reaction

import (
	"net/http"

	"vidhub/internal/domain/reaction/handler"
	"vidhub/internal/domain/reaction/repository"
	"vidhub/internal/domain/reaction/service"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/middleware"
	"vidhub/internal/pkg/registry"
)

// ReactionModule 点赞模块
type ReactionModule struct{}

func init() {
	registry.Register(&ReactionModule{})
}

func (m *ReactionModule) Name() string {
	return "reaction"
}

func (m *ReactionModule) Priority() int {
	return 20
}

func (m *ReactionModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	repo := repository.NewReactionRepository(ctx.DB)
	svc := service.NewReactionService(repo, ctx.Logger)
	h := handler.NewReactionHandler(svc)

	// 2. 路由注册
	g := ctx.Router.Group("/videos")
	g.Use(middleware.AuthMiddleware())
	ctx.Handle(g, action.SetReaction, http.MethodPost, "/:id/reaction", h.SetReaction)

	return nil
}
