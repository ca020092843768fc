package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ghostpost/pkg/domain"
	"ghostpost/pkg/platform/sentinel"
)

const spentNonceKeyPrefix = "ghostpost:nonce:"

// RedisNonceGuard spends nonces with SETNX so every server instance sharing
// the Redis sees the same set. Keys never expire: a nonce is spent forever.
type RedisNonceGuard struct {
	client redis.Cmdable
	prefix string
}

type RedisNonceGuardOption func(*RedisNonceGuard)

// WithKeyPrefix namespaces keys, e.g. per deployment.
func WithKeyPrefix(prefix string) RedisNonceGuardOption {
	return func(g *RedisNonceGuard) {
		if prefix != "" {
			g.prefix = prefix
		}
	}
}

func NewRedisNonceGuard(client redis.Cmdable, opts ...RedisNonceGuardOption) *RedisNonceGuard {
	g := &RedisNonceGuard{client: client, prefix: spentNonceKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *RedisNonceGuard) Claim(ctx context.Context, nonce domain.Nonce) error {
	ok, err := g.client.SetNX(ctx, g.key(nonce), "1", 0).Result()
	if err != nil {
		return fmt.Errorf("claim nonce: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (g *RedisNonceGuard) Release(ctx context.Context, nonce domain.Nonce) error {
	if err := g.client.Del(ctx, g.key(nonce)).Err(); err != nil {
		return fmt.Errorf("release nonce: %w", err)
	}
	return nil
}

func (g *RedisNonceGuard) key(nonce domain.Nonce) string {
	return g.prefix + nonce.String()
}
