package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sober-studio/artifact-vault-go-kratos/internal/pkg/auth/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

var _ TokenStore = (*RedisTokenStore)(nil)

// RedisTokenStore 基于 Redis 的令牌记录存储
//
// 所有会修改记录的操作都在 Redis 服务端以 Lua 脚本原子执行，
// 因此多个进程实例共享同一个 Redis 时正确性依然成立。
type RedisTokenStore struct {
	client    *redis.Client
	opTimeout time.Duration
	log       *log.Helper
}

/*
Redis Key 设计：
authtoken:token:{jti} => hash # 单条令牌记录
  uses   => 剩余次数计数器（唯一权威来源）
  record => json of TokenRecord（不可变部分）
  user   => 用户 ID（供脚本内定位索引集合）
authtoken:user:{userID}:tokens => set of jti # 用户令牌索引
*/

// saveScript 条件创建：JTI 已存在则放弃，避免与在途消费交错
// 记录键带 EXPIREAT，过期后由 Redis 自行回收
var saveScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'uses', ARGV[1], 'record', ARGV[2], 'user', ARGV[3])
redis.call('EXPIREAT', KEYS[1], ARGV[4])
redis.call('SADD', KEYS[2], ARGV[5])
return 1
`)

// consumeScript 核心脚本：一次往返完成"有余量才减一，减到 0 连带删除"
// 返回 {减一后的余量, record json}；记录缺失返回 {-1, ''}，
// 观察到零余量（防御分支，正常流程不会出现）返回 {-2, ''}
var consumeScript = redis.NewScript(`
local uses = redis.call('HGET', KEYS[1], 'uses')
if uses == false then
  return {-1, ''}
end
uses = tonumber(uses)
if uses == nil or uses <= 0 then
  local user = redis.call('HGET', KEYS[1], 'user')
  redis.call('DEL', KEYS[1])
  if user ~= false then
    redis.call('SREM', 'authtoken:user:' .. user .. ':tokens', ARGV[1])
  end
  return {-2, ''}
end
uses = uses - 1
local rec = redis.call('HGET', KEYS[1], 'record')
if uses == 0 then
  local user = redis.call('HGET', KEYS[1], 'user')
  redis.call('DEL', KEYS[1])
  if user ~= false then
    redis.call('SREM', 'authtoken:user:' .. user .. ':tokens', ARGV[1])
  end
else
  redis.call('HSET', KEYS[1], 'uses', uses)
end
return {uses, rec}
`)

func NewRedisTokenStore(client *redis.Client, opTimeout time.Duration, logger log.Logger) TokenStore {
	if opTimeout <= 0 {
		opTimeout = 3 * time.Second
	}
	return &RedisTokenStore{
		client:    client,
		opTimeout: opTimeout,
		log:       log.NewHelper(logger),
	}
}

// opCtx 给每次存储操作加超时上限，验证链路不允许无限阻塞
func (s *RedisTokenStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *RedisTokenStore) SaveToken(ctx context.Context, record *model.TokenRecord) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	created, err := saveScript.Run(ctx, s.client,
		[]string{s.tokenKey(record.JTI), s.userSetKey(record.UserID)},
		record.RemainingUses, data, record.UserID, record.ExpiresAt.Unix(), record.JTI,
	).Int()
	if err != nil {
		s.log.Errorf("Failed to save token record: %v", err)
		return err
	}
	if created == 0 {
		return ErrTokenExists
	}
	return nil
}

func (s *RedisTokenStore) GetToken(ctx context.Context, jti string) (*model.TokenRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	vals, err := s.client.HMGet(ctx, s.tokenKey(jti), "uses", "record").Result()
	if err != nil {
		return nil, err
	}
	if vals[0] == nil || vals[1] == nil {
		return nil, ErrTokenNotFound
	}
	return s.decodeRecord(fmt.Sprint(vals[0]), fmt.Sprint(vals[1]))
}

func (s *RedisTokenStore) ConsumeToken(ctx context.Context, jti string) (*model.TokenRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := consumeScript.Run(ctx, s.client, []string{s.tokenKey(jti)}, jti).Slice()
	if err != nil {
		s.log.Errorf("Failed to consume token: %v", err)
		return nil, err
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected consume script reply: %v", res)
	}
	remaining, ok := res[0].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected consume script reply: %v", res)
	}
	switch remaining {
	case -1:
		return nil, ErrTokenNotFound
	case -2:
		return nil, ErrTokenExhausted
	}
	return s.decodeRecord(fmt.Sprint(remaining), fmt.Sprint(res[1]))
}

func (s *RedisTokenStore) DeleteToken(ctx context.Context, jti string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	// 先摘索引再删记录；索引只是辅助，DEL 本身即原子撤销
	if user, err := s.client.HGet(ctx, s.tokenKey(jti), "user").Result(); err == nil {
		s.client.SRem(ctx, s.userSetKey(user), jti)
	}
	return s.client.Del(ctx, s.tokenKey(jti)).Err()
}

func (s *RedisTokenStore) DeleteUserTokens(ctx context.Context, userID string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	userKey := s.userSetKey(userID)
	jtiSet, _ := s.client.SMembers(ctx, userKey).Result()
	if len(jtiSet) > 0 {
		keys := make([]string, len(jtiSet))
		for i, jti := range jtiSet {
			keys[i] = s.tokenKey(jti)
		}
		s.client.Del(ctx, keys...)
	}
	return s.client.Del(ctx, userKey).Err()
}

func (s *RedisTokenStore) GetUserTokens(ctx context.Context, userID string) ([]model.TokenRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	userKey := s.userSetKey(userID)
	jtiSet, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, err
	}
	tokens := make([]model.TokenRecord, 0, len(jtiSet))
	for _, jti := range jtiSet {
		record, err := s.GetToken(ctx, jti)
		if err != nil {
			if errors.Is(err, ErrTokenNotFound) {
				// 记录已被 TTL 回收或已吃完，顺手修正索引
				s.client.SRem(ctx, userKey, jti)
				continue
			}
			return nil, err
		}
		tokens = append(tokens, *record)
	}
	return tokens, nil
}

// PurgeExpired 扫描用户索引集合，把已被 Redis TTL 回收的 JTI 摘掉
// 记录本身的过期回收由 EXPIREAT 完成，这里只是索引对账
func (s *RedisTokenStore) PurgeExpired(ctx context.Context) (int, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	purged := 0
	iter := s.client.Scan(ctx, 0, "authtoken:user:*:tokens", 100).Iterator()
	for iter.Next(ctx) {
		userKey := iter.Val()
		jtiSet, err := s.client.SMembers(ctx, userKey).Result()
		if err != nil {
			continue
		}
		for _, jti := range jtiSet {
			exists, err := s.client.Exists(ctx, s.tokenKey(jti)).Result()
			if err == nil && exists == 0 {
				if s.client.SRem(ctx, userKey, jti).Err() == nil {
					purged++
				}
			}
		}
	}
	return purged, iter.Err()
}

func (s *RedisTokenStore) decodeRecord(uses, data string) (*model.TokenRecord, error) {
	var record model.TokenRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, err
	}
	// hash 里的计数器是唯一权威来源，json 里的值是签发时的快照
	if _, err := fmt.Sscan(uses, &record.RemainingUses); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *RedisTokenStore) tokenKey(jti string) string {
	return fmt.Sprintf("authtoken:token:%s", jti)
}

func (s *RedisTokenStore) userSetKey(userID string) string {
	return fmt.Sprintf("authtoken:user:%s:tokens", userID)
}
