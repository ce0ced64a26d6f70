package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/biz"
)

type PassportService struct {
	uc      *biz.PassportUseCase
	captcha *biz.CaptchaUseCase
}

func NewPassportService(uc *biz.PassportUseCase, captcha *biz.CaptchaUseCase) *PassportService {
	return &PassportService{
		uc:      uc,
		captcha: captcha,
	}
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type CredentialReply struct {
	Token     string `json:"token"`
	TokenID   string `json:"token_id"`
	ExpiresAt int64  `json:"expires_at"`
	MaxUses   int64  `json:"max_uses"`
}

type LoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	CaptchaID string `json:"captcha_id"`
	Captcha   string `json:"captcha"`
}

type LogoutReply struct{}

type UserInfoReply struct {
	Username string   `json:"username"`
	Nickname string   `json:"nickname"`
	Roles    []string `json:"roles"`
	Groups   []string `json:"groups"`
	Status   int32    `json:"status"`
}

type UpdatePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type SessionsReply struct {
	Sessions []*Session `json:"sessions"`
}

type Session struct {
	TokenID       string `json:"token_id"`
	IssuedAt      int64  `json:"issued_at"`
	ExpiresAt     int64  `json:"expires_at"`
	RemainingUses int64  `json:"remaining_uses"`
}

type RevokeRequest struct {
	TokenID string `json:"token_id"`
}

func (s *PassportService) Register(ctx context.Context, req *RegisterRequest) (*CredentialReply, error) {
	if req.Username == "" || req.Password == "" {
		return nil, errors.BadRequest("INVALID_ARGUMENT", "用户名和密码不能为空")
	}
	if req.Password != req.ConfirmPassword {
		return nil, errors.BadRequest("PASSWORD_MISMATCH", "两次输入密码不一致")
	}

	cred, err := s.uc.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return credentialReply(cred), nil
}

func (s *PassportService) Login(ctx context.Context, req *LoginRequest) (*CredentialReply, error) {
	// 校验验证码
	if err := s.captcha.Verify(ctx, req.CaptchaID, req.Captcha); err != nil {
		return nil, err
	}

	cred, err := s.uc.LoginByPassword(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return credentialReply(cred), nil
}

func (s *PassportService) Logout(ctx context.Context, _ *struct{}) (*LogoutReply, error) {
	if err := s.uc.Logout(ctx); err != nil {
		return nil, err
	}
	return &LogoutReply{}, nil
}

func (s *PassportService) UserInfo(ctx context.Context, _ *struct{}) (*UserInfoReply, error) {
	u, err := s.uc.UserInfo(ctx)
	if err != nil {
		return nil, err
	}
	status := int32(0)
	if u.IsAvailable {
		status = 1
	}
	return &UserInfoReply{
		Username: u.Username,
		Nickname: u.Nickname,
		Roles:    u.Roles,
		Groups:   u.Groups,
		Status:   status,
	}, nil
}

func (s *PassportService) UpdatePassword(ctx context.Context, req *UpdatePasswordRequest) (*LogoutReply, error) {
	if req.NewPassword != req.ConfirmPassword {
		return nil, errors.BadRequest("PASSWORD_MISMATCH", "两次输入密码不一致")
	}

	if err := s.uc.UpdatePassword(ctx, req.OldPassword, req.NewPassword); err != nil {
		return nil, err
	}
	return &LogoutReply{}, nil
}

// Sessions 列出当前用户仍有余量的令牌
func (s *PassportService) Sessions(ctx context.Context, _ *struct{}) (*SessionsReply, error) {
	records, err := s.uc.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	sessions := make([]*Session, 0, len(records))
	for _, r := range records {
		sessions = append(sessions, &Session{
			TokenID:       r.JTI,
			IssuedAt:      r.IssuedAt.Unix(),
			ExpiresAt:     r.ExpiresAt.Unix(),
			RemainingUses: r.RemainingUses,
		})
	}
	return &SessionsReply{Sessions: sessions}, nil
}

// RevokeAll 撤销当前用户的全部令牌
func (s *PassportService) RevokeAll(ctx context.Context, _ *struct{}) (*LogoutReply, error) {
	if err := s.uc.RevokeAll(ctx); err != nil {
		return nil, err
	}
	return &LogoutReply{}, nil
}

func credentialReply(cred *biz.Credential) *CredentialReply {
	return &CredentialReply{
		Token:     cred.Token,
		TokenID:   cred.TokenID,
		ExpiresAt: cred.ExpiresAt.Unix(),
		MaxUses:   cred.MaxUses,
	}
}
