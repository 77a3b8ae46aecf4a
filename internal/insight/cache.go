package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mbti-quest/internal/mbti"

	"github.com/redis/go-redis/v9"
)

// Cache stores parsed replies keyed by personality type and age.
type Cache interface {
	Get(ctx context.Context, t mbti.Type, age int) ([]Insight, bool, error)
	Set(ctx context.Context, t mbti.Type, age int, items []Insight, ttl time.Duration) error
}

const cacheKeyPrefix = "insight:"

// RedisCache keeps replies as JSON strings.
type RedisCache struct {
	client redis.Cmdable
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func cacheKey(t mbti.Type, age int) string {
	return fmt.Sprintf("%s%s:%d", cacheKeyPrefix, t, age)
}

func (c *RedisCache) Get(ctx context.Context, t mbti.Type, age int) ([]Insight, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(t, age)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get insight: %w", err)
	}
	var items []Insight
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode cached insight: %w", err)
	}
	return items, true, nil
}

func (c *RedisCache) Set(ctx context.Context, t mbti.Type, age int, items []Insight, ttl time.Duration) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode insight: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(t, age), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set insight: %w", err)
	}
	return nil
}
