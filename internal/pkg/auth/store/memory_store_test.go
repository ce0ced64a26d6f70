package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth/model"
)

func newRecord(jti, userID string, uses int64, ttl time.Duration) *model.TokenRecord {
	now := time.Now()
	return &model.TokenRecord{
		JTI:           jti,
		UserID:        userID,
		Username:      "tester",
		Roles:         []string{"member"},
		IssuedAt:      now,
		ExpiresAt:     now.Add(ttl),
		RemainingUses: uses,
	}
}

func TestSaveTokenConditionalCreate(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	if err := s.SaveToken(ctx, newRecord("jti-1", "1", 3, time.Hour)); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := s.SaveToken(ctx, newRecord("jti-1", "1", 3, time.Hour)); !errors.Is(err, ErrTokenExists) {
		t.Fatalf("duplicate SaveToken: got %v, want ErrTokenExists", err)
	}
}

// 配额 5，六次消费：前五次依次剩 4,3,2,1,0，第六次失败，随后点查不存在
func TestConsumeTokenExactExhaustion(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	if err := s.SaveToken(ctx, newRecord("jti-quota", "1", 5, time.Hour)); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	for want := int64(4); want >= 0; want-- {
		record, err := s.ConsumeToken(ctx, "jti-quota")
		if err != nil {
			t.Fatalf("ConsumeToken: %v", err)
		}
		if record.RemainingUses != want {
			t.Fatalf("RemainingUses = %d, want %d", record.RemainingUses, want)
		}
	}

	if _, err := s.ConsumeToken(ctx, "jti-quota"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("sixth consume: got %v, want ErrTokenNotFound", err)
	}
	if _, err := s.GetToken(ctx, "jti-quota"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("GetToken after exhaustion: got %v, want ErrTokenNotFound", err)
	}
}

// N > U 并发消费，恰好 U 次成功，重复多轮验证确定性
func TestConsumeTokenConcurrent(t *testing.T) {
	const (
		quota   = 10
		workers = 64
		rounds  = 20
	)
	ctx := context.Background()

	for round := 0; round < rounds; round++ {
		s := NewMemoryTokenStore()
		if err := s.SaveToken(ctx, newRecord("jti-conc", "1", quota, time.Hour)); err != nil {
			t.Fatalf("SaveToken: %v", err)
		}

		var (
			wg        sync.WaitGroup
			successes int64
			failures  int64
		)
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if _, err := s.ConsumeToken(ctx, "jti-conc"); err == nil {
					atomic.AddInt64(&successes, 1)
				} else {
					atomic.AddInt64(&failures, 1)
				}
			}()
		}
		close(start)
		wg.Wait()

		if successes != quota {
			t.Fatalf("round %d: successes = %d, want %d", round, successes, quota)
		}
		if failures != workers-quota {
			t.Fatalf("round %d: failures = %d, want %d", round, failures, workers-quota)
		}
		if _, err := s.GetToken(ctx, "jti-conc"); !errors.Is(err, ErrTokenNotFound) {
			t.Fatalf("round %d: record still present after exhaustion", round)
		}
	}
}

// 对不存在的 JTI 反复消费只会得到 NotFound，不会凭空产生记录
func TestConsumeTokenMissingIdempotent(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.ConsumeToken(ctx, "jti-nope"); !errors.Is(err, ErrTokenNotFound) {
			t.Fatalf("consume #%d: got %v, want ErrTokenNotFound", i, err)
		}
	}
	if _, err := s.GetToken(ctx, "jti-nope"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("GetToken: record was created by failed consume")
	}
}

func TestDeleteUserTokens(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	_ = s.SaveToken(ctx, newRecord("jti-a", "7", 3, time.Hour))
	_ = s.SaveToken(ctx, newRecord("jti-b", "7", 3, time.Hour))
	_ = s.SaveToken(ctx, newRecord("jti-c", "8", 3, time.Hour))

	if err := s.DeleteUserTokens(ctx, "7"); err != nil {
		t.Fatalf("DeleteUserTokens: %v", err)
	}

	for _, jti := range []string{"jti-a", "jti-b"} {
		if _, err := s.ConsumeToken(ctx, jti); !errors.Is(err, ErrTokenNotFound) {
			t.Fatalf("consume %s after revocation: got %v, want ErrTokenNotFound", jti, err)
		}
	}
	// 其他用户的令牌不受影响
	if _, err := s.ConsumeToken(ctx, "jti-c"); err != nil {
		t.Fatalf("consume jti-c: %v", err)
	}
}

func TestGetUserTokens(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	_ = s.SaveToken(ctx, newRecord("jti-a", "7", 3, time.Hour))
	_ = s.SaveToken(ctx, newRecord("jti-b", "7", 1, time.Hour))

	tokens, err := s.GetUserTokens(ctx, "7")
	if err != nil {
		t.Fatalf("GetUserTokens: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("len(tokens) = %d, want 2", len(tokens))
	}

	// 吃完 jti-b 后索引同步收缩
	if _, err := s.ConsumeToken(ctx, "jti-b"); err != nil {
		t.Fatalf("ConsumeToken: %v", err)
	}
	tokens, _ = s.GetUserTokens(ctx, "7")
	if len(tokens) != 1 || tokens[0].JTI != "jti-a" {
		t.Fatalf("tokens after exhaustion = %+v, want only jti-a", tokens)
	}
}

// 已过期但还没被清理的记录不能进会话列表，与 Redis 的 TTL 回收行为对齐
func TestGetUserTokensSkipsExpired(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	_ = s.SaveToken(ctx, newRecord("jti-live", "7", 3, time.Hour))
	_ = s.SaveToken(ctx, newRecord("jti-dead", "7", 3, -time.Minute))

	tokens, err := s.GetUserTokens(ctx, "7")
	if err != nil {
		t.Fatalf("GetUserTokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0].JTI != "jti-live" {
		t.Fatalf("tokens = %+v, want only jti-live", tokens)
	}
}

func TestPurgeExpired(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	_ = s.SaveToken(ctx, newRecord("jti-dead", "7", 3, -time.Minute))
	_ = s.SaveToken(ctx, newRecord("jti-live", "7", 3, time.Hour))

	purged, err := s.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}
	if _, err := s.GetToken(ctx, "jti-dead"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expired record survived purge")
	}
	if _, err := s.GetToken(ctx, "jti-live"); err != nil {
		t.Fatalf("live record purged: %v", err)
	}
}

// 消费成功返回的是副本，调用方改动不影响存储内状态
func TestConsumeReturnsCopy(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	_ = s.SaveToken(ctx, newRecord("jti-copy", "7", 3, time.Hour))
	record, err := s.ConsumeToken(ctx, "jti-copy")
	if err != nil {
		t.Fatalf("ConsumeToken: %v", err)
	}
	record.RemainingUses = 99

	stored, err := s.GetToken(ctx, "jti-copy")
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if stored.RemainingUses != 2 {
		t.Fatalf("RemainingUses = %d, want 2", stored.RemainingUses)
	}
}
