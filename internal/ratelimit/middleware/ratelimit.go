package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"ghostpost/internal/platform/metrics"
	"ghostpost/internal/ratelimit/models"
	dErrors "ghostpost/pkg/domain-errors"
	"ghostpost/pkg/platform/httputil"
)

// Store counts requests per key.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type Middleware struct {
	store    Store
	policies map[models.Class]models.Policy
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Middleware)

// WithPolicy sets the budget for class. Classes without a policy are not
// throttled.
func WithPolicy(class models.Class, policy models.Policy) Option {
	return func(m *Middleware) {
		m.policies[class] = policy
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) {
		mw.metrics = m
	}
}

func New(store Store, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:    store,
		policies: make(map[models.Class]models.Policy),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Limit throttles each client address against the budget of class. A store
// failure lets the request through.
func (m *Middleware) Limit(class models.Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy, ok := m.policies[class]
			if !ok || policy.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			result, err := m.store.Allow(ctx, string(class)+":"+clientIP(r), policy.Limit, policy.Window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit", "class", class, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.metrics.IncrementRateLimited(string(class))
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(time.Now())))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
