// Package identity 调用方身份上下文
//
// 身份由传输层（JWT 中间件）校验后构造，作为显式参数传入每个业务操作，
// 业务层从不读取全局或请求头状态。
package identity

// Role 用户角色
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleViewer    Role = "viewer"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleViewer:
		return true
	}
	return false
}

// IsStaff 管理员或版主
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleModerator
}

// Identity 调用方身份
type Identity struct {
	UserID string
	Role   Role
}

// New 创建身份，未知角色按 viewer 处理
func New(userID string, role Role) Identity {
	if !role.Valid() {
		role = RoleViewer
	}
	return Identity{UserID: userID, Role: role}
}

// Present 是否携带用户 ID
func (i Identity) Present() bool {
	return i.UserID != ""
}

func (i Identity) IsStaff() bool {
	return i.Present() && i.Role.IsStaff()
}

func (i Identity) IsAdmin() bool {
	return i.Present() && i.Role == RoleAdmin
}
