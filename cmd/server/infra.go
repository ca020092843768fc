package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	attestationService "ghostpost/internal/attestation/service"
	attestationStore "ghostpost/internal/attestation/store"
	callbackService "ghostpost/internal/callbacks/service"
	callbackStore "ghostpost/internal/callbacks/store"
	forumService "ghostpost/internal/forum/service"
	forumStore "ghostpost/internal/forum/store"
	"ghostpost/internal/platform/config"
	"ghostpost/internal/platform/postgres"
	"ghostpost/internal/platform/redis"
	rateLimitMiddleware "ghostpost/internal/ratelimit/middleware"
	rateLimitStore "ghostpost/internal/ratelimit/store"
	audit "ghostpost/pkg/platform/audit"
	"ghostpost/pkg/platform/audit/kafka"
	auditmemory "ghostpost/pkg/platform/audit/store/memory"
	auditpostgres "ghostpost/pkg/platform/audit/store/postgres"
	"ghostpost/pkg/platform/httputil"
	txcontext "ghostpost/pkg/platform/tx"
)

const (
	healthTimeout    = 2 * time.Second
	topicPartitions  = 1
	topicReplication = 1
)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type stores struct {
	commitments attestationService.CommitmentStore
	nonces      attestationService.NonceGuard
	callbacks   callbackService.Store
	users       forumService.UserStore
	posts       forumService.PostStore
	audit       audit.Store
	tx          txRunner
}

// infra owns every external connection the server opens.
type infra struct {
	db         *sql.DB
	redis      *redis.Client
	kafka      *kafka.Sink
	stores     stores
	rateLimits rateLimitMiddleware.Store
	log        *slog.Logger
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{log: log}
	ok := false
	defer func() {
		if !ok {
			in.Close()
		}
	}()

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		in.stores = stores{
			commitments: attestationStore.NewInMemoryStore(),
			nonces:      attestationStore.NewInMemoryNonceGuard(),
			callbacks:   callbackStore.NewInMemoryStore(),
			users:       forumStore.NewInMemoryUserStore(),
			posts:       forumStore.NewInMemoryPostStore(),
			audit:       auditmemory.NewInMemoryStore(),
			tx:          txcontext.NewLockingRunner(cfg.Storage.TxTimeout),
		}
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		in.db = db
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
		in.stores = stores{
			commitments: attestationStore.NewPostgres(db),
			nonces:      attestationStore.NewPostgresNonceGuard(db),
			callbacks:   callbackStore.NewPostgres(db),
			users:       forumStore.NewPostgresUsers(db),
			posts:       forumStore.NewPostgresPosts(db),
			audit:       auditpostgres.New(db),
			tx:          txcontext.NewRunner(db, cfg.Storage.TxTimeout),
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	in.redis = client

	if cfg.Storage.NonceGuard == config.NonceGuardRedis {
		if client == nil {
			return nil, fmt.Errorf("nonce guard %q needs GHOSTPOST_REDIS_URL", config.NonceGuardRedis)
		}
		in.stores.nonces = attestationStore.NewRedisNonceGuard(client)
	}

	switch cfg.RateLimit.Backend {
	case config.RateLimitMemory:
		in.rateLimits = rateLimitStore.NewInMemoryStore()
	case config.RateLimitRedis:
		if client == nil {
			return nil, fmt.Errorf("rate limit backend %q needs GHOSTPOST_REDIS_URL", config.RateLimitRedis)
		}
		in.rateLimits = rateLimitStore.NewRedisStore(client)
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		in.kafka = sink
		if err := sink.EnsureTopic(ctx, topicPartitions, topicReplication); err != nil {
			return nil, err
		}
	}

	ok = true
	return in, nil
}

// healthHandler reports whether every configured backend answers.
func (in *infra) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := map[string]string{}
	healthy := true
	check := func(name string, err error) {
		if err != nil {
			in.log.WarnContext(ctx, "health check failed", "backend", name, "error", err)
			status[name] = "down"
			healthy = false
			return
		}
		status[name] = "up"
	}
	if in.db != nil {
		check("postgres", in.db.PingContext(ctx))
	}
	if in.redis != nil {
		check("redis", in.redis.Health(ctx))
	}
	if in.kafka != nil {
		check("kafka", in.kafka.Ping(ctx))
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, status)
}

func (in *infra) Close() {
	if in.kafka != nil {
		in.kafka.Close()
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			in.log.Warn("close redis", "error", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			in.log.Warn("close postgres", "error", err)
		}
	}
}
