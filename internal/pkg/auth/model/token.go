package model

import "time"

// TokenRecord 单个已签发令牌的配额记录，以 JTI 为主键持久化
// Subject 相关字段签发后不可变，RemainingUses 是唯一的可变字段
type TokenRecord struct {
	JTI       string    `json:"jti"`        // JWT ID，记录主键
	UserID    string    `json:"user_id"`    // 用户 ID
	Username  string    `json:"username"`   // 用户名
	Roles     []string  `json:"roles"`      // 角色集合
	Groups    []string  `json:"groups"`     // 用户组集合
	IssuedAt  time.Time `json:"issued_at"`  // 签发时间，仅用于审计
	ExpiresAt time.Time `json:"expires_at"` // 过期时间，过期后即使还有余量也无效
	// RemainingUses 剩余可用次数，只能单调递减；减到 0 时记录随之删除
	RemainingUses int64 `json:"remaining_uses"`
}

// Expired 判断记录是否已过墙上时钟有效期
func (r *TokenRecord) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}
