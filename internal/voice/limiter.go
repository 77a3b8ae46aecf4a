package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCooldown is the minimum gap between two clips for one key.
const DefaultCooldown = 3 * time.Second

// Limiter spaces out synthesis calls per key. Wait blocks until the key's
// window is free and only fails when ctx is done.
type Limiter interface {
	Wait(ctx context.Context, key string) error
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// MemoryLimiter hands out consecutive slots per key inside one process.
type MemoryLimiter struct {
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	next map[string]time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(cooldown time.Duration) *MemoryLimiter {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &MemoryLimiter{cooldown: cooldown, now: time.Now, next: make(map[string]time.Time)}
}

func (l *MemoryLimiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	now := l.now()
	slot := l.next[key]
	if slot.Before(now) {
		slot = now
	}
	l.next[key] = slot.Add(l.cooldown)
	if len(l.next) > 1024 {
		for k, t := range l.next {
			if t.Before(now) {
				delete(l.next, k)
			}
		}
	}
	l.mu.Unlock()

	wait := slot.Sub(now)
	cooldownWaitSeconds.Observe(wait.Seconds())
	return sleep(ctx, wait)
}

// RedisLimiter shares the cooldown between instances: a key is claimed with
// SET NX PX and contenders poll its PTTL. When Redis is unreachable it falls
// back to a per-process limiter.
type RedisLimiter struct {
	client   redis.Cmdable
	cooldown time.Duration
	prefix   string
	minPoll  time.Duration
	fallback *MemoryLimiter
	onError  func(error)
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client redis.Cmdable, cooldown time.Duration) *RedisLimiter {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &RedisLimiter{
		client:   client,
		cooldown: cooldown,
		prefix:   "voice:cooldown:",
		minPoll:  10 * time.Millisecond,
		fallback: NewMemoryLimiter(cooldown),
	}
}

// OnError registers a callback for Redis failures, e.g. for logging.
func (l *RedisLimiter) OnError(fn func(error)) { l.onError = fn }

func (l *RedisLimiter) degrade(ctx context.Context, key string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if l.onError != nil {
		l.onError(err)
	}
	return l.fallback.Wait(ctx, key)
}

func (l *RedisLimiter) Wait(ctx context.Context, key string) error {
	redisKey := l.prefix + key
	started := time.Now()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, 1, l.cooldown).Result()
		if err != nil {
			return l.degrade(ctx, key, fmt.Errorf("redis cooldown claim: %w", err))
		}
		if ok {
			cooldownWaitSeconds.Observe(time.Since(started).Seconds())
			return nil
		}

		ttl, err := l.client.PTTL(ctx, redisKey).Result()
		if err != nil {
			return l.degrade(ctx, key, fmt.Errorf("redis cooldown ttl: %w", err))
		}
		// ключ без TTL или уже истёк
		if ttl < l.minPoll {
			ttl = l.minPoll
		}
		if err := sleep(ctx, ttl); err != nil {
			return err
		}
	}
}
