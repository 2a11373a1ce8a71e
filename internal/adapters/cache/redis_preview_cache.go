package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
	"trip-scheduler-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisPreviewCache stores serialized previews per cooperative and request
// fingerprint. Each cooperative keeps an index set of its preview keys so a
// generate run can drop them all at once.
type RedisPreviewCache struct {
	redis *redis.Client
}

func NewRedisPreviewCache(redis *redis.Client) *RedisPreviewCache {
	return &RedisPreviewCache{redis: redis}
}

func previewKey(cooperativeID, fingerprint string) string {
	return fmt.Sprintf("preview:%s:%s", cooperativeID, fingerprint)
}

func previewIndexKey(cooperativeID string) string {
	return fmt.Sprintf("preview-index:%s", cooperativeID)
}

func (c *RedisPreviewCache) Get(ctx context.Context, cooperativeID, fingerprint string) ([]byte, error) {
	data, err := c.redis.Get(ctx, previewKey(cooperativeID, fingerprint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis get preview: %w", err)
	}
	return data, nil
}

func (c *RedisPreviewCache) Set(ctx context.Context, cooperativeID, fingerprint string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	key := previewKey(cooperativeID, fingerprint)
	index := previewIndexKey(cooperativeID)

	_, err := c.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, payload, ttl)
		p.SAdd(ctx, index, key)
		p.Expire(ctx, index, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set preview: %w", err)
	}
	return nil
}

func (c *RedisPreviewCache) Invalidate(ctx context.Context, cooperativeID string) error {
	index := previewIndexKey(cooperativeID)

	keys, err := c.redis.SMembers(ctx, index).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis list previews: %w", err)
	}

	keys = append(keys, index)
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete previews: %w", err)
	}
	return nil
}
