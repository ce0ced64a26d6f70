package auth

import (
	"context"
	"strings"

	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/transport"
)

type claimsKey struct{}

// NewContext 将已验证的声明注入 Context
func NewContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// FromContext 从 Context 中取出已验证的声明
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}

// PathAccessConfig 路径访问配置
type PathAccessConfig struct {
	// 无需认证的路径
	PublicPaths map[string]struct{}
}

// PathAccessConfigWithPublicList 创建路径访问配置
func PathAccessConfigWithPublicList(publicPaths []string) *PathAccessConfig {
	pathAccessConfig := &PathAccessConfig{
		PublicPaths: make(map[string]struct{}),
	}
	for _, path := range publicPaths {
		pathAccessConfig.PublicPaths[path] = struct{}{}
	}
	return pathAccessConfig
}

// IsPublicPath 判断是否为公开路径
func IsPublicPath(operation string, config *PathAccessConfig) bool {
	return Match(operation, config.PublicPaths)
}

// Match 判断路径是否匹配
func Match(operation string, paths map[string]struct{}) bool {
	_, ok := paths[operation]
	// 路径匹配
	if ok {
		return true
	}
	// 前缀匹配
	for path := range paths {
		if len(path) > 0 && path[len(path)-1] == '/' && len(operation) >= len(path) {
			if operation[:len(path)] == path {
				return true
			}
		}
	}
	return false
}

// VerifyConsume 令牌验证中间件：提取凭证 -> 验签验期 -> 原子消费配额 -> 声明入 Context
//
// 注意消费发生在进入业务处理之前：只要令牌结构合法且未过期，这一次使用就已经花掉，
// 后续业务处理失败也不退还（spend on verify, not on success）
func VerifyConsume(tokenService TokenService) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tokenStr, err := extractToken(ctx)
			if err != nil {
				return nil, err
			}
			claims, err := tokenService.VerifyAndConsume(ctx, tokenStr)
			if err != nil {
				return nil, err
			}
			return handler(NewContext(ctx, claims), req)
		}
	}
}

// extractToken 从请求头提取令牌
// 接受 Authorization: Bearer <token>、裸 token，以及历史遗留的 X-Authorization
func extractToken(ctx context.Context) (string, error) {
	tr, ok := transport.FromServerContext(ctx)
	if !ok {
		return "", ErrMissingToken
	}
	raw := tr.RequestHeader().Get("Authorization")
	if raw == "" {
		raw = tr.RequestHeader().Get("X-Authorization")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingToken
	}
	// Bearer 前缀大小写不敏感；只有 scheme 没有凭证视同缺失
	const prefix = "bearer "
	if strings.EqualFold(raw, "bearer") {
		return "", ErrMissingToken
	}
	if len(raw) > len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix) {
		raw = strings.TrimSpace(raw[len(prefix):])
		if raw == "" {
			return "", ErrMissingToken
		}
	}
	return raw, nil
}

// Middleware 创建认证中间件，公开路径跳过验证
func Middleware(tokenService TokenService, config *PathAccessConfig) middleware.Middleware {
	return selector.Server(
		VerifyConsume(tokenService),
	).Match(func(ctx context.Context, operation string) bool {
		return !IsPublicPath(operation, config)
	}).Build()
}
