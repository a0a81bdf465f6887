package handler

import (
	"net/http"

	"vidhub/internal/domain/reaction/service"
	"vidhub/internal/pkg/middleware"
	"vidhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	service service.ReactionService
}

func NewReactionHandler(s service.ReactionService) *ReactionHandler {
	return &ReactionHandler{service: s}
}

// ReactionInput 点赞输入，isLike 缺省为 true
type ReactionInput struct {
	IsLike *bool `json:"isLike"`
}

// SetReaction 点赞/点踩
func (h *ReactionHandler) SetReaction(c *gin.Context) {
	var input ReactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	isLike := true
	if input.IsLike != nil {
		isLike = *input.IsLike
	}

	counts, err := h.service.SetReaction(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), isLike)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, counts)
}
