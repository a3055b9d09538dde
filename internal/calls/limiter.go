package calls

import (
	"context"
	"time"

	"github.com/prashantforsure/BeFriend/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Limiter bounds the number of simultaneous calls per user.
type Limiter interface {
	// Acquire takes a slot; false means the user is at the cap.
	Acquire(ctx context.Context, userID string) (bool, error)

	// Release frees a slot after the call reaches a terminal state.
	Release(ctx context.Context, userID string) error
}

// DefaultSlotTTL bounds how long a slot can leak if the process dies before
// the terminal callback releases it.
const DefaultSlotTTL = 15 * time.Minute

var _ Limiter = (*RedisLimiter)(nil)

// RedisLimiter enforces the cap with the atomic Lua counter scripts.
type RedisLimiter struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, ttl time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if ttl <= 0 {
		ttl = DefaultSlotTTL
	}
	return &RedisLimiter{rdb: rdb, limit: limit, ttl: ttl}
}

func (l *RedisLimiter) Acquire(ctx context.Context, userID string) (bool, error) {
	return utils.AcquireCallCap(ctx, l.rdb, capKey(userID), l.limit, l.ttl)
}

func (l *RedisLimiter) Release(ctx context.Context, userID string) error {
	return utils.ReleaseCallCap(ctx, l.rdb, capKey(userID))
}

func capKey(userID string) string {
	return "calls:active:" + userID
}
