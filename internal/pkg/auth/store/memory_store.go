package store

import (
	"context"
	"sync"
	"time"

	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth/model"
)

var _ TokenStore = (*MemoryTokenStore)(nil)

// MemoryTokenStore 进程内令牌记录存储
//
// 与 RedisTokenStore 遵守同一份契约：消费是互斥锁保护下的
// "检查-减一-删除"整体，保证并发下不会超发。
// 状态只在本进程内，仅用于开发环境和确定性的并发测试。
type MemoryTokenStore struct {
	mu      sync.Mutex
	records map[string]*model.TokenRecord
	// byUser userID -> set of jti，与 Redis 实现的用户索引对应
	byUser map[string]map[string]struct{}
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		records: make(map[string]*model.TokenRecord),
		byUser:  make(map[string]map[string]struct{}),
	}
}

func (s *MemoryTokenStore) SaveToken(_ context.Context, record *model.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.JTI]; ok {
		return ErrTokenExists
	}
	cloned := *record
	s.records[record.JTI] = &cloned
	set, ok := s.byUser[record.UserID]
	if !ok {
		set = make(map[string]struct{})
		s.byUser[record.UserID] = set
	}
	set[record.JTI] = struct{}{}
	return nil
}

func (s *MemoryTokenStore) GetToken(_ context.Context, jti string) (*model.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[jti]
	if !ok {
		return nil, ErrTokenNotFound
	}
	cloned := *record
	return &cloned, nil
}

func (s *MemoryTokenStore) ConsumeToken(_ context.Context, jti string) (*model.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[jti]
	if !ok {
		return nil, ErrTokenNotFound
	}
	if record.RemainingUses <= 0 {
		// 防御分支：减到 0 的记录在同一临界区内就被删了，不应该走到这里
		s.deleteLocked(jti)
		return nil, ErrTokenExhausted
	}
	record.RemainingUses--
	cloned := *record
	if record.RemainingUses == 0 {
		// 删除属于同一次消费操作，外界观察不到"存在但余量为 0"的记录
		s.deleteLocked(jti)
	}
	return &cloned, nil
}

func (s *MemoryTokenStore) DeleteToken(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(jti)
	return nil
}

func (s *MemoryTokenStore) DeleteUserTokens(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti := range s.byUser[userID] {
		delete(s.records, jti)
	}
	delete(s.byUser, userID)
	return nil
}

func (s *MemoryTokenStore) GetUserTokens(_ context.Context, userID string) ([]model.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	tokens := make([]model.TokenRecord, 0, len(s.byUser[userID]))
	for jti := range s.byUser[userID] {
		record, ok := s.records[jti]
		if !ok {
			continue
		}
		// 已过期的记录等价于 Redis 实现里被 TTL 回收的记录，不进列表
		if record.Expired(now) {
			continue
		}
		tokens = append(tokens, *record)
	}
	return tokens, nil
}

// PurgeExpired 移除所有已过墙上时钟有效期的记录
// Redis 实现靠 EXPIREAT 自动回收，内存实现靠这里的定期清理
func (s *MemoryTokenStore) PurgeExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	purged := 0
	for jti, record := range s.records {
		if record.Expired(now) {
			s.deleteLocked(jti)
			purged++
		}
	}
	return purged, nil
}

func (s *MemoryTokenStore) deleteLocked(jti string) {
	record, ok := s.records[jti]
	if !ok {
		return
	}
	delete(s.records, jti)
	if set, ok := s.byUser[record.UserID]; ok {
		delete(set, jti)
		if len(set) == 0 {
			delete(s.byUser, record.UserID)
		}
	}
}
