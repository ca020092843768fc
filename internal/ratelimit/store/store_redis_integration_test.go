//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ghostpost/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestBlocksAfterLimit() {
	ctx := context.Background()
	for i := range 2 {
		res, err := s.store.Allow(ctx, "proof:10.0.0.1", 2, time.Minute)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(1-i, res.Remaining)
	}
	res, err := s.store.Allow(ctx, "proof:10.0.0.1", 2, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.WithinDuration(time.Now().Add(time.Minute), res.ResetAt, 5*time.Second)
}

func (s *RedisStoreSuite) TestWindowExpires() {
	ctx := context.Background()
	_, err := s.store.Allow(ctx, "proof:10.0.0.2", 1, 200*time.Millisecond)
	s.Require().NoError(err)
	res, err := s.store.Allow(ctx, "proof:10.0.0.2", 1, 200*time.Millisecond)
	s.Require().NoError(err)
	s.False(res.Allowed)

	s.Eventually(func() bool {
		res, err := s.store.Allow(ctx, "proof:10.0.0.2", 1, 200*time.Millisecond)
		return err == nil && res.Allowed
	}, 3*time.Second, 100*time.Millisecond)
}
