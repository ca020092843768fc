package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ghostpost/internal/ratelimit/models"
	"ghostpost/pkg/platform/sentinel"
)

const defaultKeyPrefix = "ghostpost:ratelimit:"

// RedisStore counts requests in fixed windows shared by every server
// instance. The window starts at the first request for a key.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func NewRedisStore(client redis.Cmdable, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow increments the window counter for key. Requests over the limit are
// still counted, so a client that keeps hammering stays blocked until the
// window expires.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	k := s.prefix + key
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit %s: %w: %w", key, sentinel.ErrUnavailable, err)
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		remaining = window
	}
	count := int(incr.Val())
	result := &models.Result{
		Allowed: count <= limit,
		Limit:   limit,
		ResetAt: time.Now().Add(remaining),
	}
	if result.Allowed {
		result.Remaining = limit - count
	}
	return result, nil
}
