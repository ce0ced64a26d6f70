package oss

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/conf"
)

type minioStorage struct {
	client *minio.Client
	conf   *conf.Data_Oss
	log    *log.Helper
}

func NewMinioStorage(c *conf.Data_Oss, logger log.Logger) Storage {
	// Endpoint 不包含 http/https 前缀
	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKeyId, c.AccessKeySecret, ""),
		Secure: c.UseHttps,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	return &minioStorage{
		client: client,
		conf:   c,
		log:    log.NewHelper(logger),
	}
}

func (s *minioStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, isPrivate bool) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.conf.Bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *minioStorage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.conf.Bucket, key, minio.RemoveObjectOptions{})
}

func (s *minioStorage) GenerateURL(ctx context.Context, key string, isPrivate bool, expires time.Duration) string {
	if !isPrivate {
		schema := "http"
		if s.conf.UseHttps {
			schema = "https"
		}
		// 公开访问需要 Bucket Policy 设置为 public
		return fmt.Sprintf("%s://%s/%s/%s", schema, s.conf.Domain, s.conf.Bucket, key)
	}

	// 生成预签名 URL
	reqParams := make(url.Values)
	presignedURL, err := s.client.PresignedGetObject(ctx, s.conf.Bucket, key, expires, reqParams)
	if err != nil {
		s.log.Errorf("Failed to generate presigned URL: %v", err)
		return ""
	}
	return presignedURL.String()
}
