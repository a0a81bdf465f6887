package comment

import (
	"net/http"

	"vidhub/internal/domain/comment/handler"
	"vidhub/internal/domain/comment/repository"
	"vidhub/internal/domain/comment/service"
	"vidhub/internal/pkg/action"
	"vidhub/internal/pkg/middleware"
	"vidhub/internal/pkg/registry"
)

// CommentModule 评论模块
type CommentModule struct{}

func init() {
	registry.Register(&CommentModule{})
}

func (m *CommentModule) Name() string {
	return "comment"
}

func (m *CommentModule) Priority() int {
	return 20
}

func (m *CommentModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	repo := repository.NewCommentRepository(ctx.DB)
	svc := service.NewCommentService(repo, ctx.Logger)
	h := handler.NewCommentHandler(svc)

	// 2. 路由注册
	videos := ctx.Router.Group("/videos")
	ctx.Handle(videos, action.ListRootComments, http.MethodGet, "/:id/comments", h.ListRootComments)
	ctx.Handle(videos, action.PostComment, http.MethodPost, "/:id/comments", middleware.AuthMiddleware(), h.PostComment)

	comments := ctx.Router.Group("/comments")
	ctx.Handle(comments, action.ListReplies, http.MethodGet, "/:id/replies", h.ListReplies)

	return nil
}
