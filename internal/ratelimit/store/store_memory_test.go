package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreAllow(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewInMemoryStore()
	s.now = func() time.Time { return clock }

	for i := range 3 {
		res, err := s.Allow(ctx, "forum:10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := s.Allow(ctx, "forum:10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, clock.Add(time.Minute), res.ResetAt)

	t.Run("other keys have their own window", func(t *testing.T) {
		res, err := s.Allow(ctx, "forum:10.0.0.2", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		clock = clock.Add(time.Minute)
		res, err := s.Allow(ctx, "forum:10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2, res.Remaining)
	})
}

func TestInMemoryStoreSweepsIdleKeys(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewInMemoryStore()
	s.now = func() time.Time { return clock }

	for _, key := range []string{"forum:10.0.0.1", "forum:10.0.0.2", "proof:10.0.0.3"} {
		_, err := s.Allow(ctx, key, 5, time.Minute)
		require.NoError(t, err)
	}
	require.Len(t, s.buckets, 3)

	clock = clock.Add(2 * time.Minute)
	_, err := s.Allow(ctx, "forum:10.0.0.4", 5, time.Minute)
	require.NoError(t, err)
	assert.Len(t, s.buckets, 1)
	assert.Contains(t, s.buckets, "forum:10.0.0.4")
}

func TestInMemoryStoreZeroLimitDenies(t *testing.T) {
	res, err := NewInMemoryStore().Allow(context.Background(), "proof:10.0.0.1", 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}
