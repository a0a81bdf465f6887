package uploader

import (
	"context"
	"fmt"
	"io"

	"vidhub/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type AliyunOSSUploader struct {
	client *oss.Client
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSUploader(cfg config.OSSConfig) (*AliyunOSSUploader, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{
		client: client,
		bucket: bucket,
		config: cfg,
	}, nil
}

func (u *AliyunOSSUploader) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if size > 0 {
		opts = append(opts, oss.ContentLength(size))
	}

	if err := u.bucket.PutObject(key, r, opts...); err != nil {
		return "", fmt.Errorf("oss put %s: %w", key, err)
	}

	// bucket 为 public-read 或走 CDN，直接拼接公开地址
	return publicURL(u.config.PublicBaseURL, fmt.Sprintf("https://%s.%s", u.config.BucketName, u.config.Endpoint), key), nil
}
