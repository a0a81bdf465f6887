package uploader

import (
	"context"
	"fmt"
	"io"

	"vidhub/internal/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioUploader 兼容 S3 协议的对象存储（本地开发默认）
type MinioUploader struct {
	client *minio.Client
	config config.OSSConfig
}

func NewMinioUploader(cfg config.OSSConfig) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.AccessKeySecret, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioUploader{client: client, config: cfg}, nil
}

func (u *MinioUploader) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if size <= 0 {
		size = -1
	}
	_, err := u.client.PutObject(ctx, u.config.BucketName, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}

	scheme := "http"
	if u.config.UseSSL {
		scheme = "https"
	}
	return publicURL(u.config.PublicBaseURL, fmt.Sprintf("%s://%s/%s", scheme, u.config.Endpoint, u.config.BucketName), key), nil
}
