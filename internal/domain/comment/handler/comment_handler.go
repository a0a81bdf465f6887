package handler

import (
	"net/http"
	"strconv"

	"vidhub/internal/domain/comment/service"
	"vidhub/internal/pkg/middleware"
	"vidhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	service service.CommentService
}

func NewCommentHandler(s service.CommentService) *CommentHandler {
	return &CommentHandler{service: s}
}

// CommentInput 评论输入
type CommentInput struct {
	Text            string  `json:"text" binding:"required"`
	ParentCommentID *string `json:"parentCommentId"`
}

// PostComment 发表评论或回复
func (h *CommentHandler) PostComment(c *gin.Context) {
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	comment, err := h.service.PostComment(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), input.Text, input.ParentCommentID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, comment)
}

// ListRootComments 视频一级评论
func (h *CommentHandler) ListRootComments(c *gin.Context) {
	comments, err := h.service.ListRootComments(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"comments": comments})
}

// ListReplies 评论的回复
func (h *CommentHandler) ListReplies(c *gin.Context) {
	comments, err := h.service.ListReplies(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"comments": comments})
}

func queryLimit(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return limit
}
