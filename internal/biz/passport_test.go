package biz

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth"
	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth/store"
)

// fakeUserRepo 内存用户仓库，供用例测试
type fakeUserRepo struct {
	nextID int64
	users  map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*User)}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *User) (*User, error) {
	if _, ok := r.users[user.Username]; ok {
		return nil, ErrUserAlreadyExists
	}
	r.nextID++
	cloned := *user
	cloned.ID = r.nextID
	r.users[user.Username] = &cloned
	return &cloned, nil
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	cloned := *user
	return &cloned, nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*User, error) {
	for _, user := range r.users {
		if user.ID == id {
			cloned := *user
			return &cloned, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	for _, user := range r.users {
		if user.ID == id {
			user.PasswordHash = passwordHash
			return nil
		}
	}
	return ErrUserNotFound
}

// fakeTx 直通事务：测试仓库本身无事务语义
type fakeTx struct{}

func (fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newPassportFixture(t *testing.T) (*PassportUseCase, auth.TokenService, *store.MemoryTokenStore) {
	t.Helper()
	logger := log.NewStdLogger(io.Discard)
	s := store.NewMemoryTokenStore()
	tokenService := auth.NewJWTTokenService("test-secret", time.Hour, 10, s, logger)
	uc := NewPassportUseCase(tokenService, newFakeUserRepo(), fakeTx{}, logger)
	return uc, tokenService, s
}

// 注册即发凭证，且配额记录已落库
func TestRegisterIssuesCredential(t *testing.T) {
	uc, _, s := newPassportFixture(t)
	ctx := context.Background()

	credential, err := uc.Register(ctx, "alice", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if credential.Token == "" || credential.TokenID == "" {
		t.Fatalf("credential incomplete: %+v", credential)
	}
	if credential.MaxUses != 10 {
		t.Fatalf("MaxUses = %d, want 10", credential.MaxUses)
	}

	record, err := s.GetToken(ctx, credential.TokenID)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if record.Username != "alice" || record.RemainingUses != 10 {
		t.Fatalf("record = %+v", record)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	uc, _, _ := newPassportFixture(t)
	ctx := context.Background()

	if _, err := uc.Register(ctx, "alice", "s3cret-pass"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := uc.Register(ctx, "alice", "other-pass"); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("got %v, want ErrUserAlreadyExists", err)
	}
}

func TestLoginByPassword(t *testing.T) {
	uc, tokenService, _ := newPassportFixture(t)
	ctx := context.Background()

	if _, err := uc.Register(ctx, "alice", "s3cret-pass"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	credential, err := uc.LoginByPassword(ctx, "alice", "s3cret-pass")
	if err != nil {
		t.Fatalf("LoginByPassword: %v", err)
	}
	claims, err := tokenService.VerifyAndConsume(ctx, credential.Token)
	if err != nil {
		t.Fatalf("VerifyAndConsume: %v", err)
	}
	if claims.Username != "alice" {
		t.Fatalf("claims.Username = %q, want alice", claims.Username)
	}

	if _, err := uc.LoginByPassword(ctx, "alice", "wrong-pass"); !errors.Is(err, ErrPasswordInvalid) {
		t.Fatalf("wrong password: got %v, want ErrPasswordInvalid", err)
	}
	if _, err := uc.LoginByPassword(ctx, "nobody", "s3cret-pass"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: got %v, want ErrUserNotFound", err)
	}
}

// 登出撤销当前令牌，之后的消费被拒
func TestLogoutRevokesCurrentToken(t *testing.T) {
	uc, tokenService, _ := newPassportFixture(t)
	ctx := context.Background()

	credential, err := uc.Register(ctx, "alice", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	claims, err := tokenService.VerifyAndConsume(ctx, credential.Token)
	if err != nil {
		t.Fatalf("VerifyAndConsume: %v", err)
	}

	authed := auth.NewContext(ctx, claims)
	if err := uc.Logout(authed); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := tokenService.VerifyAndConsume(ctx, credential.Token); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Fatalf("verify after logout: got %v, want ErrTokenRevoked", err)
	}
}

// 改密后名下所有令牌全部作废
func TestUpdatePasswordRevokesAllTokens(t *testing.T) {
	uc, tokenService, _ := newPassportFixture(t)
	ctx := context.Background()

	first, err := uc.Register(ctx, "alice", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	second, err := uc.LoginByPassword(ctx, "alice", "s3cret-pass")
	if err != nil {
		t.Fatalf("LoginByPassword: %v", err)
	}

	claims, err := tokenService.VerifyAndConsume(ctx, first.Token)
	if err != nil {
		t.Fatalf("VerifyAndConsume: %v", err)
	}
	authed := auth.NewContext(ctx, claims)

	if err := uc.UpdatePassword(authed, "s3cret-pass", "n3w-pass"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	for _, credential := range []*Credential{first, second} {
		if _, err := tokenService.VerifyAndConsume(ctx, credential.Token); !errors.Is(err, auth.ErrTokenRevoked) {
			t.Fatalf("verify after password change: got %v, want ErrTokenRevoked", err)
		}
	}

	// 新密码生效
	if _, err := uc.LoginByPassword(ctx, "alice", "n3w-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := uc.LoginByPassword(ctx, "alice", "s3cret-pass"); !errors.Is(err, ErrPasswordInvalid) {
		t.Fatalf("login with old password: got %v, want ErrPasswordInvalid", err)
	}
}

func TestSessionsListsActiveTokens(t *testing.T) {
	uc, tokenService, _ := newPassportFixture(t)
	ctx := context.Background()

	first, _ := uc.Register(ctx, "alice", "s3cret-pass")
	_, _ = uc.LoginByPassword(ctx, "alice", "s3cret-pass")

	claims, err := tokenService.VerifyAndConsume(ctx, first.Token)
	if err != nil {
		t.Fatalf("VerifyAndConsume: %v", err)
	}
	authed := auth.NewContext(ctx, claims)

	sessions, err := uc.Sessions(authed)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(sessions))
	}

	if err := uc.RevokeAll(authed); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	sessions, _ = uc.Sessions(authed)
	if len(sessions) != 0 {
		t.Fatalf("len(sessions) after revoke-all = %d, want 0", len(sessions))
	}
}
