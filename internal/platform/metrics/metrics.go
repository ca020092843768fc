package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the server. A nil *Metrics is a
// valid no-op sink so handler tests can skip wiring it.
type Metrics struct {
	Enrollments         prometheus.Counter
	ProofSubmissions    *prometheus.CounterVec
	ReplaysRejected     prometheus.Counter
	ProofVerifyDuration prometheus.Histogram
	CallbacksRegistered prometheus.Counter
	PostsCreated        prometheus.Counter
	UsersCreated        prometheus.Counter
	RateLimited         *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Enrollments: f.NewCounter(prometheus.CounterOpts{
			Name: "ghostpost_enrollments_total",
			Help: "Identities enrolled with a signed initial commitment",
		}),
		ProofSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ghostpost_proof_submissions_total",
			Help: "Continuation receipts submitted, by result",
		}, []string{"result"}),
		ReplaysRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "ghostpost_replays_rejected_total",
			Help: "Receipts rejected because their replay nonce was already spent",
		}),
		ProofVerifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ghostpost_proof_verify_seconds",
			Help:    "Time spent verifying a receipt",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		CallbacksRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "ghostpost_callbacks_registered_total",
			Help: "Tickets newly placed on the callback board",
		}),
		PostsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "ghostpost_posts_created_total",
			Help: "Forum posts accepted",
		}),
		UsersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "ghostpost_users_created_total",
			Help: "Forum accounts registered",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ghostpost_rate_limited_total",
			Help: "Requests refused by the rate limiter, by endpoint class",
		}, []string{"class"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ghostpost_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementEnrollments() {
	if m == nil {
		return
	}
	m.Enrollments.Inc()
}

// IncrementProofSubmissions counts one submission with result "accepted",
// "invalid", "replay" or "conflict".
func (m *Metrics) IncrementProofSubmissions(result string) {
	if m == nil {
		return
	}
	m.ProofSubmissions.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementReplaysRejected() {
	if m == nil {
		return
	}
	m.ReplaysRejected.Inc()
}

func (m *Metrics) ObserveProofVerify(d time.Duration) {
	if m == nil {
		return
	}
	m.ProofVerifyDuration.Observe(d.Seconds())
}

func (m *Metrics) IncrementCallbacksRegistered() {
	if m == nil {
		return
	}
	m.CallbacksRegistered.Inc()
}

func (m *Metrics) IncrementPostsCreated() {
	if m == nil {
		return
	}
	m.PostsCreated.Inc()
}

// IncrementUsersCreated increments the users created counter by 1
func (m *Metrics) IncrementUsersCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

func (m *Metrics) IncrementRateLimited(class string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(class).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
