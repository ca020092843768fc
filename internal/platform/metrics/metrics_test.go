package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementEnrollments()
	m.IncrementProofSubmissions("accepted")
	m.IncrementProofSubmissions("accepted")
	m.IncrementProofSubmissions("replay")
	m.IncrementReplaysRejected()
	m.IncrementCallbacksRegistered()
	m.IncrementPostsCreated()
	m.IncrementUsersCreated()
	m.ObserveProofVerify(time.Millisecond)
	m.ObserveRequest("GET", "/zk/callbacks", "200", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Enrollments))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProofSubmissions.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProofSubmissions.WithLabelValues("replay")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReplaysRejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallbacksRegistered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PostsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UsersCreated))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementEnrollments()
		m.IncrementProofSubmissions("invalid")
		m.ObserveProofVerify(time.Second)
		m.ObserveRequest("GET", "/", "200", time.Second)
	})
}
