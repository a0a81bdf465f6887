package utils

import "github.com/google/uuid"

// ValidID 判断是否为规范格式的 UUID 主键
// 只接受 36 位带连字符的形式，urn 与花括号写法会被数据库拒绝
func ValidID(id string) bool {
	return len(id) == 36 && uuid.Validate(id) == nil
}
