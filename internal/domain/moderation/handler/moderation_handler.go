package handler

import (
	"net/http"

	"vidhub/internal/domain/moderation/service"
	"vidhub/internal/pkg/middleware"
	"vidhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	service service.ModerationService
}

func NewModerationHandler(s service.ModerationService) *ModerationHandler {
	return &ModerationHandler{service: s}
}

// ReportInput 举报输入
type ReportInput struct {
	VideoID     string `json:"videoId"`
	CommentID   string `json:"commentId"`
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

// ResolveInput 审核结果
type ResolveInput struct {
	Status string `json:"status" binding:"required"`
}

// VideoStatusInput 视频状态
type VideoStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// FileReport 提交举报
func (h *ModerationHandler) FileReport(c *gin.Context) {
	var req ReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	report, err := h.service.FileReport(c.Request.Context(), middleware.CurrentIdentity(c), service.FileReportInput{
		VideoID:     req.VideoID,
		CommentID:   req.CommentID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, report)
}

// ListPending 待处理举报
func (h *ModerationHandler) ListPending(c *gin.Context) {
	reports, err := h.service.ListPending(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"reports": reports})
}

// Resolve 处理举报
func (h *ModerationHandler) Resolve(c *gin.Context) {
	var req ResolveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	report, err := h.service.Resolve(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, report)
}

// SetVideoStatus 修改视频状态
func (h *ModerationHandler) SetVideoStatus(c *gin.Context) {
	var req VideoStatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	videoID := c.Param("id")
	if err := h.service.SetVideoStatus(c.Request.Context(), middleware.CurrentIdentity(c), videoID, req.Status); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"id": videoID, "status": req.Status})
}

// RemoveComment 删除评论
func (h *ModerationHandler) RemoveComment(c *gin.Context) {
	if err := h.service.RemoveComment(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// Stats 后台统计
func (h *ModerationHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, stats)
}
