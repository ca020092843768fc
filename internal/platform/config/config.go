package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "ghostpost/pkg/platform/strings"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Nonce guard backends. "store" keeps the guard next to the commitment ledger.
const (
	NonceGuardStore = "store"
	NonceGuardRedis = "redis"
)

// Rate limit backends.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// Config is the full server configuration.
type Config struct {
	Server    Server
	Storage   Storage
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	LogLevel  string
	// LogFormat is "json" or "text".
	LogFormat string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration
	AdminToken    string
	// SigningKeyHex is the attestation key. Empty means a fresh key per boot.
	SigningKeyHex   string
	ShutdownTimeout time.Duration
}

// Storage selects persistence backends.
type Storage struct {
	Driver      string
	PostgresDSN string
	NonceGuard  string
	TxTimeout   time.Duration
}

// RedisConfig configures the optional Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit sink. No brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RateLimitConfig budgets requests per client address. A zero limit turns
// the class off.
type RateLimitConfig struct {
	Backend    string
	Window     time.Duration
	ForumLimit int
	ProofLimit int
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	jwtSigningKey := env("GHOSTPOST_JWT_SIGNING_KEY", "")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Server: Server{
			Addr:            env("GHOSTPOST_ADDR", ":8080"),
			JWTSigningKey:   jwtSigningKey,
			TokenTTL:        durationEnv("GHOSTPOST_TOKEN_TTL", time.Hour),
			AdminToken:      env("GHOSTPOST_ADMIN_TOKEN", ""),
			SigningKeyHex:   env("GHOSTPOST_SIGNING_KEY", ""),
			ShutdownTimeout: durationEnv("GHOSTPOST_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: Storage{
			Driver:      env("GHOSTPOST_STORAGE", DriverMemory),
			PostgresDSN: env("GHOSTPOST_POSTGRES_DSN", ""),
			NonceGuard:  env("GHOSTPOST_NONCE_GUARD", NonceGuardStore),
			TxTimeout:   durationEnv("GHOSTPOST_TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          env("GHOSTPOST_REDIS_URL", ""),
			PoolSize:     intEnv("GHOSTPOST_REDIS_POOL_SIZE", 10),
			MinIdleConns: intEnv("GHOSTPOST_REDIS_MIN_IDLE", 2),
			DialTimeout:  durationEnv("GHOSTPOST_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationEnv("GHOSTPOST_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationEnv("GHOSTPOST_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: listEnv("GHOSTPOST_KAFKA_BROKERS"),
			Topic:   env("GHOSTPOST_KAFKA_TOPIC", "ghostpost.audit"),
		},
		RateLimit: RateLimitConfig{
			Backend:    env("GHOSTPOST_RATE_LIMIT_BACKEND", RateLimitMemory),
			Window:     durationEnv("GHOSTPOST_RATE_LIMIT_WINDOW", time.Minute),
			ForumLimit: intEnv("GHOSTPOST_RATE_LIMIT_FORUM", 60),
			ProofLimit: intEnv("GHOSTPOST_RATE_LIMIT_PROOF", 30),
		},
		LogLevel:  env("GHOSTPOST_LOG_LEVEL", "info"),
		LogFormat: env("GHOSTPOST_LOG_FORMAT", "json"),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func listEnv(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(raw, ","))
}
