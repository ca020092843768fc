package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	attestationHandler "ghostpost/internal/attestation/handler"
	attestationService "ghostpost/internal/attestation/service"
	callbackHandler "ghostpost/internal/callbacks/handler"
	callbackService "ghostpost/internal/callbacks/service"
	"ghostpost/internal/continuation/authorization"
	forumHandler "ghostpost/internal/forum/handler"
	forumService "ghostpost/internal/forum/service"
	jwttoken "ghostpost/internal/jwt_token"
	"ghostpost/internal/platform/config"
	"ghostpost/internal/platform/httpserver"
	"ghostpost/internal/platform/logger"
	"ghostpost/internal/platform/metrics"
	platformMiddleware "ghostpost/internal/platform/middleware"
	"ghostpost/internal/prover"
	rateLimitMiddleware "ghostpost/internal/ratelimit/middleware"
	rateLimitModels "ghostpost/internal/ratelimit/models"
	"ghostpost/pkg/platform/audit/publisher"
	"ghostpost/pkg/platform/middleware/request"
	"ghostpost/pkg/platform/middleware/requesttime"
)

const (
	jwtIssuer   = "ghostpost"
	jwtAudience = "ghostpost-forum"

	auditBuffer = 256
)

// main wires dependencies, exposes the HTTP router and owns the server
// lifecycle. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	backends, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backends.Close()

	signer, err := loadSigner(cfg.Server.SigningKeyHex, log)
	if err != nil {
		return err
	}

	auditOpts := []publisher.Option{publisher.WithAsyncBuffer(auditBuffer), publisher.WithLogger(log)}
	if backends.kafka != nil {
		auditOpts = append(auditOpts, publisher.WithSink(backends.kafka))
	}
	auditor := publisher.NewPublisher(backends.stores.audit, auditOpts...)
	defer auditor.Close()

	jwt := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, jwtIssuer, jwtAudience)
	engine := prover.NewDevEngine(prover.WithLogger(log))

	attest := attestationService.New(backends.stores.commitments, backends.stores.nonces, engine, signer,
		attestationService.WithTxRunner(backends.stores.tx),
		attestationService.WithAuditor(auditor),
		attestationService.WithMetrics(m),
		attestationService.WithLogger(log),
	)
	board := callbackService.New(backends.stores.callbacks,
		callbackService.WithAuditor(auditor),
		callbackService.WithMetrics(m),
		callbackService.WithLogger(log),
	)
	forum := forumService.New(backends.stores.users, backends.stores.posts, attest, board, jwt,
		forumService.WithTokenTTL(cfg.Server.TokenTTL),
		forumService.WithTxRunner(backends.stores.tx),
		forumService.WithAuditor(auditor),
		forumService.WithMetrics(m),
		forumService.WithLogger(log),
	)

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))
	r.Use(platformMiddleware.LatencyMiddleware(m))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	r.Get("/healthz", backends.healthHandler)

	limiter := rateLimitMiddleware.New(backends.rateLimits, log,
		rateLimitMiddleware.WithPolicy(rateLimitModels.ClassForum, rateLimitModels.Policy{
			Limit: cfg.RateLimit.ForumLimit, Window: cfg.RateLimit.Window,
		}),
		rateLimitMiddleware.WithPolicy(rateLimitModels.ClassProof, rateLimitModels.Policy{
			Limit: cfg.RateLimit.ProofLimit, Window: cfg.RateLimit.Window,
		}),
		rateLimitMiddleware.WithMetrics(m),
	)

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		attestationHandler.New(attest, log, jwttoken.NewJWTServiceAdapter(jwt)).
			Register(r.With(limiter.Limit(rateLimitModels.ClassProof)))
		callbackHandler.New(board, log).Register(r)
		forumHandler.New(forum, log, cfg.Server.AdminToken).
			Register(r.With(limiter.Limit(rateLimitModels.ClassForum)))
	})

	if cfg.Server.AdminToken == "" {
		log.Warn("GHOSTPOST_ADMIN_TOKEN is empty; moderation routes are locked")
	}

	srv := httpserver.New(cfg.Server.Addr, r)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting ghostpost server",
			"addr", cfg.Server.Addr,
			"storage", cfg.Storage.Driver,
			"nonce_guard", cfg.Storage.NonceGuard,
			"rate_limit", cfg.RateLimit.Backend,
			"program_id", engine.ProgramID().String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// loadSigner uses the configured attestation key, or a fresh one. A fresh key
// invalidates every wallet on restart.
func loadSigner(keyHex string, log *slog.Logger) (*authorization.Signer, error) {
	if keyHex != "" {
		signer, err := authorization.SignerFromHex(keyHex)
		if err != nil {
			return nil, fmt.Errorf("GHOSTPOST_SIGNING_KEY: %w", err)
		}
		return signer, nil
	}
	signer, err := authorization.GenerateSigner()
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	log.Warn("GHOSTPOST_SIGNING_KEY is empty; generated an ephemeral attestation key")
	return signer, nil
}
