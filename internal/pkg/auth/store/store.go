package store

import (
	"context"
	"errors"

	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth/model"
)

var (
	// ErrTokenNotFound 记录不存在（从未签发、已吃完被删除、或已撤销）
	ErrTokenNotFound = errors.New("token record not found")
	// ErrTokenExhausted 记录存在但余量已为 0
	// 正常情况下减到 0 的记录会在同一次操作里被删除，后续探测只会看到 NotFound；
	// 这个错误保留给消费瞬间观察到零余量的竞争窗口
	ErrTokenExhausted = errors.New("token uses exhausted")
	// ErrTokenExists 条件创建时 JTI 冲突
	ErrTokenExists = errors.New("token record already exists")
)

// TokenStore 令牌记录存储
//
// ConsumeToken 是这里的核心：它必须是对存储的一次原子条件更新
// （"仅当 remaining_uses > 0 时减一，减到 0 则连带删除"），
// 不允许实现成"读出来、在调用方算、再写回去"——那种写法在并发下会丢更新。
// 正确性必须由存储侧的原子原语保证，跨进程实例同样成立。
type TokenStore interface {
	// SaveToken 条件创建：JTI 已存在时返回 ErrTokenExists
	SaveToken(ctx context.Context, record *model.TokenRecord) error
	// GetToken 按 JTI 点查
	GetToken(ctx context.Context, jti string) (*model.TokenRecord, error)
	// ConsumeToken 原子消费一次：成功返回减一后的记录；
	// 记录缺失返回 ErrTokenNotFound，余量为 0 返回 ErrTokenExhausted
	ConsumeToken(ctx context.Context, jti string) (*model.TokenRecord, error)
	// DeleteToken 无条件删除（撤销）
	DeleteToken(ctx context.Context, jti string) error
	// DeleteUserTokens 撤销某用户的全部令牌
	DeleteUserTokens(ctx context.Context, userID string) error
	// GetUserTokens 列出某用户当前有效的令牌记录
	GetUserTokens(ctx context.Context, userID string) ([]model.TokenRecord, error)
	// PurgeExpired 清理已过期的记录及索引，返回清理数量
	// 仅是回收辅助：验证链路从不依赖它的及时性
	PurgeExpired(ctx context.Context) (int, error)
}
