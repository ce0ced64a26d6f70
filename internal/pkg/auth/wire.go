package auth

import (
	"time"

	"github.com/sober-studio/artifact-vault-go-kratos/internal/conf"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth/store"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

var ProviderSet = wire.NewSet(
	NewTokenService,
	NewTokenStore,
)

func NewTokenService(c *conf.App, tokenStore store.TokenStore, logger log.Logger) TokenService {
	if c.Auth == nil || c.Auth.Secret == "" {
		// 缺少签名密钥属于启动期配置错误，直接终止
		log.NewHelper(logger).Fatal("auth.secret is required")
	}
	// 默认有效期 2 小时，默认单令牌 100 次
	ttl := 2 * time.Hour
	if c.Auth.TokenTtl != nil {
		ttl = c.Auth.TokenTtl.AsDuration()
	}
	maxUses := int64(100)
	if c.Auth.MaxUses > 0 {
		maxUses = int64(c.Auth.MaxUses)
	}
	return NewJWTTokenService(c.Auth.Secret, ttl, maxUses, tokenStore, logger)
}

func NewTokenStore(c *conf.Data, rdb *redis.Client, logger log.Logger) store.TokenStore {
	if c.TokenStore == "memory" {
		// 仅开发环境：状态不跨进程，水平扩容下配额不共享
		return store.NewMemoryTokenStore()
	}
	var opTimeout time.Duration
	if c.Redis != nil && c.Redis.OpTimeout != nil {
		opTimeout = c.Redis.OpTimeout.AsDuration()
	}
	return store.NewRedisTokenStore(rdb, opTimeout, logger)
}
