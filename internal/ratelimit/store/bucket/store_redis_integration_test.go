//go:build integration

package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustdash/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisBucketStore
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = NewRedisBucketStore(s.redis.Client)
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBucketStoreSuite) TestAllowUntilLimit() {
	ctx := context.Background()
	for i := range 3 {
		result, err := s.store.Allow(ctx, "acct:0xme:write", 3, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(2-i, result.Remaining)
	}

	result, err := s.store.Allow(ctx, "acct:0xme:write", 3, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Positive(result.RetryAfter)

	s.Require().NoError(s.store.Reset(ctx, "acct:0xme:write"))
	result, err = s.store.Allow(ctx, "acct:0xme:write", 3, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketStoreSuite) TestWindowSlides() {
	ctx := context.Background()
	base := time.Now()
	s.store.now = func() time.Time { return base }
	defer func() { s.store.now = time.Now }()

	_, err := s.store.Allow(ctx, "acct:0xme:read", 1, time.Minute)
	s.Require().NoError(err)

	s.store.now = func() time.Time { return base.Add(61 * time.Second) }
	result, err := s.store.Allow(ctx, "acct:0xme:read", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}
