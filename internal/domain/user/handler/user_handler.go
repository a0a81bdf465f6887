package handler

import (
	"net/http"

	"vidhub/internal/domain/user/service"
	"vidhub/internal/pkg/identity"
	"vidhub/internal/pkg/middleware"
	"vidhub/pkg/response"
	"vidhub/pkg/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// VerifyInput 认证状态输入，缺省为 true
type VerifyInput struct {
	IsVerified *bool `json:"isVerified"`
}

// RoleInput 角色输入
type RoleInput struct {
	Role string `json:"role" binding:"required,oneof=admin moderator viewer"`
}

// GetUser 获取单个用户
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

// ListUsers 获取用户列表（管理员/版主）
func (h *UserHandler) ListUsers(c *gin.Context) {
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), middleware.CurrentIdentity(c), p.Page, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	p.GetPageOffset()
	response.Success(c, utils.PageResult{
		List:  users,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	})
}

// VerifyUser 设置认证标识（管理员）
func (h *UserHandler) VerifyUser(c *gin.Context) {
	var input VerifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	verified := true
	if input.IsVerified != nil {
		verified = *input.IsVerified
	}

	if err := h.service.VerifyUser(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), verified); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

// ChangeRole 修改角色（管理员）
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var input RoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	err := h.service.ChangeRole(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), identity.Role(input.Role))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}
