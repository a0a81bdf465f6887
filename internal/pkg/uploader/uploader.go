// Package uploader 对象存储适配层，按配置选择阿里云 OSS 或 MinIO
package uploader

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"vidhub/internal/pkg/config"

	"github.com/google/uuid"
)

// Uploader 对象存储接口，写入成功返回可访问的 URL
type Uploader interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// NewUploader 根据 oss.provider 创建存储实现
func NewUploader(cfg config.OSSConfig) (Uploader, error) {
	switch cfg.Provider {
	case "aliyun":
		return NewAliyunOSSUploader(cfg)
	case "minio":
		return NewMinioUploader(cfg)
	default:
		return nil, fmt.Errorf("unsupported oss provider %q", cfg.Provider)
	}
}

// ObjectKey 生成对象键: <prefix>/<owner>/<unixnano>-<uuid前8位><ext>
func ObjectKey(prefix, ownerID, filename, defaultExt string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = defaultExt
	}
	token := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.New().String()[:8])
	return fmt.Sprintf("%s/%s/%s%s", prefix, ownerID, token, ext)
}

// publicURL 配置了 CDN 前缀时优先使用
func publicURL(base, fallback, key string) string {
	if base != "" {
		return strings.TrimRight(base, "/") + "/" + key
	}
	return fallback + "/" + key
}
