package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户/鉴权错误 100xx
	ErrUserNotFound = 10002
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 业务状态错误 400xx
	ErrNotFound     = 40004
	ErrInvalidState = 40009

	// 系统错误 500xx
	ErrServerInternal = 50001
	ErrInvalidParam   = 50002
	ErrDependency     = 50004
)
