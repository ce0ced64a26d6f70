package oss

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/conf"
)

type localStorage struct {
	baseDir string
	conf    *conf.Data_Oss
	log     *log.Helper
}

func NewLocalStorage(c *conf.Data_Oss, logger log.Logger) Storage {
	baseDir := "artifacts"
	if c.Bucket != "" {
		baseDir = c.Bucket
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		panic(fmt.Sprintf("Failed to create local storage directory: %v", err))
	}

	return &localStorage{
		baseDir: baseDir,
		conf:    c,
		log:     log.NewHelper(logger),
	}
}

func (s *localStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, isPrivate bool) (string, error) {
	filePath := filepath.Join(s.baseDir, key)

	// 防路径穿越：解析后必须仍落在 baseDir 下
	cleanBase, err := filepath.Abs(filepath.Clean(s.baseDir))
	if err != nil {
		return "", err
	}
	cleanPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(cleanBase, cleanPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file path: %s", key)
	}

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(cleanPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}

	return key, nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	return os.Remove(filepath.Join(s.baseDir, key))
}

func (s *localStorage) GenerateURL(ctx context.Context, key string, isPrivate bool, expires time.Duration) string {
	schema := "http"
	if s.conf.UseHttps {
		schema = "https"
	}

	// 配置了 Domain 则拼完整地址，否则返回相对路径由前端自行拼接
	if s.conf.Domain != "" {
		return fmt.Sprintf("%s://%s/%s", schema, s.conf.Domain, key)
	}
	return fmt.Sprintf("/%s", key)
}
