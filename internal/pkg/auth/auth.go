package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth/model"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth/store"

	"github.com/go-kratos/kratos/v2/log"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = kerrors.Unauthorized("MISSING_TOKEN", "缺少认证凭证")
	ErrInvalidToken = kerrors.Unauthorized("INVALID_TOKEN", "无效的 Token")
	ErrTokenExpired = kerrors.Unauthorized("TOKEN_EXPIRED", "Token 已过期")
	// ErrTokenRevoked 撤销与耗尽统一对外表现，不向探测者泄露配额状态
	ErrTokenRevoked     = kerrors.Unauthorized("TOKEN_REVOKED", "Token 已撤销或已失效")
	ErrJWTGenerateError = kerrors.Unauthorized("JWT_GENERATE_ERROR", "JWT 生成错误")
	// ErrStoreUnavailable 存储临时故障，对调用方仍是 401，仅日志区分
	ErrStoreUnavailable = kerrors.Unauthorized("TOKEN_STORE_UNAVAILABLE", "无效的 Token")
)

// Claims JWT 自定义声明，RegisteredClaims 携带 sub/jti/exp/iat
type Claims struct {
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Groups   []string `json:"groups,omitempty"`
	jwtv5.RegisteredClaims
}

// Subject 签发令牌的主体身份，由通过认证的调用方提供
type Subject struct {
	UserID   string
	Username string
	Roles    []string
	Groups   []string
}

// IssuedToken 签发结果
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
	MaxUses   int64
}

// TokenService 令牌服务接口：签发、验证消费、撤销
type TokenService interface {
	// IssueToken 为主体签发限次令牌；配额记录先落库，签名串才会返回
	IssueToken(ctx context.Context, subject *Subject) (*IssuedToken, error)
	// VerifyAndConsume 验证签名与有效期并原子消费一次配额，返回声明
	VerifyAndConsume(ctx context.Context, tokenStr string) (*Claims, error)
	// RevokeToken 撤销指定 JTI
	RevokeToken(ctx context.Context, jti string) error
	// RevokeCurrent 撤销当前请求所持有的令牌
	RevokeCurrent(ctx context.Context) error
	// RevokeAllTokens 撤销用户全部令牌
	RevokeAllTokens(ctx context.Context, userID string) error
	// GetUserTokens 列出用户当前有效的令牌记录
	GetUserTokens(ctx context.Context, userID string) ([]model.TokenRecord, error)
	// GetSecretKey 获取签名密钥
	GetSecretKey() []byte
}

var _ TokenService = (*JWTTokenService)(nil)

// JWTTokenService HS256 JWT 令牌服务
type JWTTokenService struct {
	secretKey []byte
	ttl       time.Duration
	maxUses   int64
	store     store.TokenStore
	log       *log.Helper
}

func NewJWTTokenService(secretKey string, ttl time.Duration, maxUses int64, tokenStore store.TokenStore, logger log.Logger) TokenService {
	return &JWTTokenService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		maxUses:   maxUses,
		store:     tokenStore,
		log:       log.NewHelper(logger),
	}
}

func (s *JWTTokenService) IssueToken(ctx context.Context, subject *Subject) (*IssuedToken, error) {
	jti := uuid.New().String()
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		Username: subject.Username,
		Roles:    subject.Roles,
		Groups:   subject.Groups,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   subject.UserID,
			ExpiresAt: jwtv5.NewNumericDate(expiresAt),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ID:        jti,
		},
	}
	tokenStr, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		s.log.Errorf("Failed to sign token: %v", err)
		return nil, ErrJWTGenerateError
	}

	record := &model.TokenRecord{
		JTI:           jti,
		UserID:        subject.UserID,
		Username:      subject.Username,
		Roles:         subject.Roles,
		Groups:        subject.Groups,
		IssuedAt:      now,
		ExpiresAt:     expiresAt,
		RemainingUses: s.maxUses,
	}
	// 先写配额记录，再把签名串交给调用方
	// 顺序不能反：绝不发放没有配额记录背书的令牌
	if err := s.store.SaveToken(ctx, record); err != nil {
		s.log.Errorf("Failed to save token record: %v", err)
		return nil, ErrJWTGenerateError
	}

	return &IssuedToken{
		Token:     tokenStr,
		JTI:       jti,
		ExpiresAt: expiresAt,
		MaxUses:   s.maxUses,
	}, nil
}

func (s *JWTTokenService) VerifyAndConsume(ctx context.Context, tokenStr string) (*Claims, error) {
	t, err := jwtv5.ParseWithClaims(tokenStr, &Claims{}, func(token *jwtv5.Token) (interface{}, error) {
		return s.secretKey, nil
	}, jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}))
	if err != nil {
		// 签名或有效期不过关就不触达存储，死令牌不扣配额
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := t.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	record, err := s.store.ConsumeToken(ctx, claims.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrTokenNotFound):
			// 可能是撤销后的重放，也可能是对未知 JTI 的探测
			s.log.Warnf("Consume rejected, token record not found: jti=%s", claims.ID)
			return nil, ErrTokenRevoked
		case errors.Is(err, store.ErrTokenExhausted):
			s.log.Infof("Consume rejected, token exhausted: jti=%s", claims.ID)
			return nil, ErrTokenRevoked
		default:
			// 基础设施故障，不是安全事件；对调用方仍表现为未授权
			s.log.Errorf("Token store unavailable during consume: jti=%s err=%v", claims.ID, err)
			return nil, ErrStoreUnavailable
		}
	}
	s.log.Debugf("Token consumed: jti=%s remaining=%d", record.JTI, record.RemainingUses)
	return claims, nil
}

func (s *JWTTokenService) RevokeToken(ctx context.Context, jti string) error {
	return s.store.DeleteToken(ctx, jti)
}

func (s *JWTTokenService) RevokeCurrent(ctx context.Context) error {
	claims, ok := FromContext(ctx)
	if !ok {
		return ErrInvalidToken
	}
	return s.store.DeleteToken(ctx, claims.ID)
}

func (s *JWTTokenService) RevokeAllTokens(ctx context.Context, userID string) error {
	return s.store.DeleteUserTokens(ctx, userID)
}

func (s *JWTTokenService) GetUserTokens(ctx context.Context, userID string) ([]model.TokenRecord, error) {
	return s.store.GetUserTokens(ctx, userID)
}

func (s *JWTTokenService) GetSecretKey() []byte {
	return s.secretKey
}

// UserIDFromContext 从已验证的声明里取 int64 用户 ID
// 下游只从 Context 读身份，绝不自行二次解码令牌
func UserIDFromContext(ctx context.Context) (int64, error) {
	claims, ok := FromContext(ctx)
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken.WithCause(err)
	}
	return userID, nil
}
