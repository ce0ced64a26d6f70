package biz

import (
	"context"
	"errors"
	"strconv"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth"
	authmodel "github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth/model"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound      = kerrors.NotFound("USER_NOT_FOUND", "用户不存在")
	ErrUserAlreadyExists = kerrors.Conflict("USER_ALREADY_EXISTS", "用户已存在")
	ErrPasswordInvalid   = kerrors.BadRequest("PASSWORD_INVALID", "密码错误")
	ErrUserDisabled      = kerrors.Forbidden("USER_DISABLED", "账号已被禁用")
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Nickname     string
	Roles        []string
	Groups       []string
	IsAvailable  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// Credential 一次签发的凭证及其配额信息
type Credential struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
	MaxUses   int64
}

type PassportUseCase struct {
	auth auth.TokenService
	user UserRepo
	tx   Transaction
	log  *log.Helper
}

func NewPassportUseCase(
	auth auth.TokenService,
	user UserRepo,
	tx Transaction,
	logger log.Logger,
) *PassportUseCase {
	return &PassportUseCase{
		auth: auth,
		user: user,
		tx:   tx,
		log:  log.NewHelper(logger),
	}
}

func (uc *PassportUseCase) Register(ctx context.Context, username, password string) (*Credential, error) {
	// 检查用户名是否存在
	if u, _ := uc.user.GetUserByUsername(ctx, username); u != nil {
		return nil, ErrUserAlreadyExists
	}

	hash, err := uc.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Roles:        []string{"member"},
		IsAvailable:  true,
	}

	// 建用户走事务；令牌签发在事务外，配额存储不归数据库管
	var savedUser *User
	if err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		savedUser, err = uc.user.CreateUser(ctx, user)
		return err
	}); err != nil {
		return nil, err
	}

	return uc.issueFor(ctx, savedUser)
}

func (uc *PassportUseCase) LoginByPassword(ctx context.Context, username, password string) (*Credential, error) {
	user, err := uc.user.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// 校验密码
	if !uc.checkPassword(password, user.PasswordHash) {
		return nil, ErrPasswordInvalid
	}

	if !user.IsAvailable {
		return nil, ErrUserDisabled
	}

	return uc.issueFor(ctx, user)
}

// issueFor 为用户签发限次令牌；配额记录在存储里落盘后签名串才会交出
func (uc *PassportUseCase) issueFor(ctx context.Context, user *User) (*Credential, error) {
	issued, err := uc.auth.IssueToken(ctx, &auth.Subject{
		UserID:   uc.formatUserID(user.ID),
		Username: user.Username,
		Roles:    user.Roles,
		Groups:   user.Groups,
	})
	if err != nil {
		return nil, err
	}
	return &Credential{
		Token:     issued.Token,
		TokenID:   issued.JTI,
		ExpiresAt: issued.ExpiresAt,
		MaxUses:   issued.MaxUses,
	}, nil
}

// Logout 撤销当前请求携带的令牌
func (uc *PassportUseCase) Logout(ctx context.Context) error {
	return uc.auth.RevokeCurrent(ctx)
}

// RevokeAll 撤销当前用户的全部令牌
func (uc *PassportUseCase) RevokeAll(ctx context.Context) error {
	claims, ok := auth.FromContext(ctx)
	if !ok {
		return auth.ErrInvalidToken
	}
	return uc.auth.RevokeAllTokens(ctx, claims.Subject)
}

func (uc *PassportUseCase) UserInfo(ctx context.Context) (*User, error) {
	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return uc.user.GetUserByID(ctx, userID)
}

// Sessions 列出当前用户名下仍有余量的令牌记录
func (uc *PassportUseCase) Sessions(ctx context.Context) ([]authmodel.TokenRecord, error) {
	claims, ok := auth.FromContext(ctx)
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return uc.auth.GetUserTokens(ctx, claims.Subject)
}

func (uc *PassportUseCase) UpdatePassword(ctx context.Context, oldPassword, newPassword string) error {
	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		return err
	}

	user, err := uc.user.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !uc.checkPassword(oldPassword, user.PasswordHash) {
		return ErrPasswordInvalid
	}

	hash, err := uc.hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := uc.user.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	// 密码修改完成后，撤销用户所有的令牌
	return uc.RevokeAll(ctx)
}

func (uc *PassportUseCase) hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func (uc *PassportUseCase) checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (uc *PassportUseCase) formatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}
