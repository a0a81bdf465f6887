package middleware

import (
	"net/http"
	"strings"

	"vidhub/internal/pkg/identity"
	"vidhub/pkg/response"
	"vidhub/pkg/utils"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// AuthMiddleware JWT认证中间件，校验通过后将调用方身份写入上下文
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, "Authorization header is required")
			c.Abort()
			return
		}

		id, ok := parseBearer(authHeader)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// OptionalAuthMiddleware 公开接口使用，携带合法 token 时写入身份
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := parseBearer(c.GetHeader("Authorization")); ok {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

// StaffMiddleware 管理员/版主权限中间件
func StaffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentIdentity(c).IsStaff() {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Moderator or admin permission required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentIdentity 读取上下文中的调用方身份，未认证时返回零值
func CurrentIdentity(c *gin.Context) identity.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(identity.Identity); ok {
			return id
		}
	}
	return identity.Identity{}
}

// SetIdentity 写入调用方身份（测试与内部调用使用）
func SetIdentity(c *gin.Context, id identity.Identity) {
	c.Set(identityKey, id)
}

// 检查格式 "Bearer <token>"
func parseBearer(header string) (identity.Identity, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return identity.Identity{}, false
	}

	claims, err := utils.ParseToken(parts[1])
	if err != nil || claims.UserID == "" {
		return identity.Identity{}, false
	}
	return identity.New(claims.UserID, identity.Role(claims.Role)), true
}
