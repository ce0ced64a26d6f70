package oss

import (
	"context"
	"io"
	"time"
)

// Storage 制品内容的对象存储抽象
type Storage interface {
	// Upload 流式上传内容
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, isPrivate bool) (string, error)
	// Delete 删除内容
	Delete(ctx context.Context, key string) error
	// GenerateURL 获取可访问的 URL（私有内容走预签名）
	GenerateURL(ctx context.Context, key string, isPrivate bool, expires time.Duration) string
}
