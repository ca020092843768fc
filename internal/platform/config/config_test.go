package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"GHOSTPOST_ADDR", "GHOSTPOST_STORAGE", "GHOSTPOST_KAFKA_BROKERS", "GHOSTPOST_JWT_SIGNING_KEY"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, NonceGuardStore, cfg.Storage.NonceGuard)
	assert.NotEmpty(t, cfg.Server.JWTSigningKey)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, RateLimitMemory, cfg.RateLimit.Backend)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Positive(t, cfg.RateLimit.ProofLimit)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GHOSTPOST_ADDR", ":9090")
	t.Setenv("GHOSTPOST_STORAGE", DriverPostgres)
	t.Setenv("GHOSTPOST_KAFKA_BROKERS", "a:9092, b:9092,a:9092")
	t.Setenv("GHOSTPOST_REDIS_POOL_SIZE", "42")
	t.Setenv("GHOSTPOST_TOKEN_TTL", "15m")
	t.Setenv("GHOSTPOST_REDIS_MIN_IDLE", "not-a-number")
	t.Setenv("GHOSTPOST_RATE_LIMIT_PROOF", "0")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 42, cfg.Redis.PoolSize)
	assert.Equal(t, 2, cfg.Redis.MinIdleConns)
	assert.Equal(t, 15*time.Minute, cfg.Server.TokenTTL)
	assert.Zero(t, cfg.RateLimit.ProofLimit)
}
