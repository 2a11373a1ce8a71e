package cache

import (
	"context"
	"fmt"
	"time"
	"trip-scheduler-service/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultLockTTL = 5 * time.Minute

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a per-cooperative lock shared by every service instance.
// The TTL bounds how long a crashed holder blocks others.
type RedisLocker struct {
	log   *zap.Logger
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisLocker(log *zap.Logger, redis *redis.Client, ttl time.Duration) *RedisLocker {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{log: log, redis: redis, ttl: ttl}
}

func lockKey(cooperativeID string) string {
	return fmt.Sprintf("lock:generate:%s", cooperativeID)
}

func (l *RedisLocker) Lock(ctx context.Context, cooperativeID string) (func(), error) {
	key := lockKey(cooperativeID)
	token := uuid.NewString()

	ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis acquire lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrLockNotAcquired
	}

	return func() {
		// The request context may already be done when unlocking.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(rctx, l.redis, []string{key}, token).Err(); err != nil {
			l.log.Warn("redis lock release failed",
				zap.String("cooperative_id", cooperativeID),
				zap.Error(err),
			)
		}
	}, nil
}
