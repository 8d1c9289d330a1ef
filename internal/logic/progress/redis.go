package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀
const (
	slotPrefix    = "progress:swap:slot"
	checkpointKey = "progress:swap:checkpoint"
)

const defaultSlotTTL = 3 * 24 * time.Hour

// advanceScript 仅当新值更大时写入，返回写入后的值
var advanceScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local next = tonumber(ARGV[1])
if next > cur then
  redis.call("SET", KEYS[1], ARGV[1])
  return next
end
return cur
`)

// RedisProgressStore 管理 Redis 中的 slot 状态记录（幂等控制）与消费检查点
type RedisProgressStore struct {
	rdb       redis.UniversalClient
	namespace string
	ttl       time.Duration
}

// NewRedisProgressStore namespace 用于区分多个实例，可为空
func NewRedisProgressStore(rdb redis.UniversalClient, namespace string, ttl time.Duration) *RedisProgressStore {
	if ttl <= 0 {
		ttl = defaultSlotTTL
	}
	return &RedisProgressStore{rdb: rdb, namespace: namespace, ttl: ttl}
}

func (r *RedisProgressStore) key(base string) string {
	if r.namespace == "" {
		return base
	}
	return r.namespace + ":" + base
}

func (r *RedisProgressStore) slotKey(slot uint64) string {
	return fmt.Sprintf("%s:%d", r.key(slotPrefix), slot)
}

// GetSlotStatus 获取 slot 的状态（Unknown / Processed / Invalid / Pending）
func (r *RedisProgressStore) GetSlotStatus(ctx context.Context, slot uint64) (SlotStatus, error) {
	val, err := r.rdb.Get(ctx, r.slotKey(slot)).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return SlotUnknown, nil
	case err != nil:
		return SlotUnknown, fmt.Errorf("redis get error: %w", err)
	case val == int(SlotProcessed):
		return SlotProcessed, nil
	case val == int(SlotInvalid):
		return SlotInvalid, nil
	case val == int(SlotPending):
		return SlotPending, nil
	default:
		return SlotUnknown, nil // 容错处理
	}
}

// MarkSlotStatus 通用设置 slot 的状态
func (r *RedisProgressStore) MarkSlotStatus(ctx context.Context, slot uint64, status SlotStatus) error {
	return r.rdb.Set(ctx, r.slotKey(slot), int(status), r.ttl).Err()
}

func (r *RedisProgressStore) LoadCheckpoint(ctx context.Context) (uint64, bool, error) {
	val, err := r.rdb.Get(ctx, r.key(checkpointKey)).Uint64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("redis get checkpoint error: %w", err)
	}
	return val, true, nil
}

func (r *RedisProgressStore) SaveCheckpoint(ctx context.Context, slot uint64) (uint64, error) {
	val, err := advanceScript.Run(ctx, r.rdb, []string{r.key(checkpointKey)}, slot).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis save checkpoint error: %w", err)
	}
	return uint64(val), nil
}
