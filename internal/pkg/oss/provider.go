package oss

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/conf"
)

func NewOSS(c *conf.Data, logger log.Logger) Storage {
	// 未配置对象存储时落到本地磁盘，保证开发环境开箱即用
	if c.Oss == nil {
		return NewLocalStorage(&conf.Data_Oss{Bucket: "artifacts"}, logger)
	}

	switch c.Oss.Provider {
	case "minio":
		return NewMinioStorage(c.Oss, logger)
	case "local":
		return NewLocalStorage(c.Oss, logger)
	}

	// 默认 fallback
	return NewLocalStorage(c.Oss, logger)
}
