package response

import (
	"errors"
	"net/http"

	"vidhub/internal/pkg/apperr"
	"vidhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// Fail 业务失败响应 (HTTP 200, 业务码非 0)
func Fail(c *gin.Context, errCode int, msg string) {
	c.JSON(http.StatusOK, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// FromError 按错误类型映射 HTTP 状态码与业务码
// 底层错误只写日志，响应中仅包含操作、步骤与描述
func FromError(c *gin.Context, err error) {
	httpCode, errCode := StatusOf(err)

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		msg := err.Error()
		if httpCode == http.StatusInternalServerError {
			// 未分类错误不向外暴露细节
			msg = "internal server error"
			logger.Log.Error("unclassified error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		}
		Error(c, httpCode, errCode, msg)
		return
	}

	if appErr.Err != nil {
		logger.Log.Error("request failed",
			zap.String("action", string(appErr.Action)),
			zap.String("step", appErr.Step),
			zap.String("kind", appErr.Kind.String()),
			zap.String("path", c.Request.URL.Path),
			zap.String("trace_id", c.GetString("traceID")),
			zap.Error(appErr.Err),
		)
	}
	Error(c, httpCode, errCode, appErr.Public())
}

// StatusOf 返回错误对应的 HTTP 状态码与业务码
func StatusOf(err error) (int, int) {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest, ErrInvalidParam
	case apperr.KindNotFound:
		return http.StatusNotFound, ErrNotFound
	case apperr.KindAccessDenied:
		return http.StatusForbidden, ErrNoPermission
	case apperr.KindInvalidState:
		return http.StatusConflict, ErrInvalidState
	case apperr.KindDependencyFailure:
		return http.StatusServiceUnavailable, ErrDependency
	default:
		return http.StatusInternalServerError, ErrServerInternal
	}
}
