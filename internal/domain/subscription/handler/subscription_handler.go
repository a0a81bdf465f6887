package handler

import (
	"strconv"

	"vidhub/internal/domain/subscription/service"
	"vidhub/internal/pkg/middleware"
	"vidhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	service service.SubscriptionService
}

func NewSubscriptionHandler(s service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: s}
}

// Subscribe 订阅频道
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	status, err := h.service.Subscribe(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, status)
}

// Unsubscribe 取消订阅
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	status, err := h.service.Unsubscribe(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, status)
}

// ListNotifications 当前用户的通知
func (h *SubscriptionHandler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.service.ListNotifications(c.Request.Context(), middleware.CurrentIdentity(c), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"notifications": list})
}
