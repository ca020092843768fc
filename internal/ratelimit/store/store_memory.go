package store

import (
	"context"
	"sync"
	"time"

	"ghostpost/internal/ratelimit/models"
)

// InMemoryStore counts requests in a sliding window per key. It is local to
// one process. Keys whose window has emptied are swept so the map tracks only
// active clients.
type InMemoryStore struct {
	mu        sync.Mutex
	buckets   map[string]*slidingWindow
	lastSweep time.Time
	now       func() time.Time
}

type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		buckets: make(map[string]*slidingWindow),
		now:     time.Now,
	}
}

// Allow records one request for key when the window still has room.
func (s *InMemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if limit <= 0 {
		return &models.Result{Allowed: false, Limit: limit, ResetAt: now.Add(window)}, nil
	}
	s.sweep(now, window)

	sw := s.buckets[key]
	if sw == nil {
		sw = &slidingWindow{}
		s.buckets[key] = sw
	}
	sw.window = window
	sw.cleanup(now.Add(-window))

	if len(sw.timestamps) >= limit {
		return &models.Result{
			Allowed: false,
			Limit:   limit,
			ResetAt: sw.timestamps[0].Add(window),
		}, nil
	}
	sw.timestamps = append(sw.timestamps, now)
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(window),
	}, nil
}

// sweep removes buckets with no timestamps left in their window. It runs at
// most once per interval.
func (s *InMemoryStore) sweep(now time.Time, interval time.Duration) {
	if now.Sub(s.lastSweep) < interval {
		return
	}
	s.lastSweep = now
	for key, sw := range s.buckets {
		sw.cleanup(now.Add(-sw.window))
		if len(sw.timestamps) == 0 {
			delete(s.buckets, key)
		}
	}
}

// cleanup drops timestamps at or before cutoff.
func (sw *slidingWindow) cleanup(cutoff time.Time) {
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}
