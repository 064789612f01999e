//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	lockoutredis "sigil/internal/lockout/store/redis"
	"sigil/pkg/testutil/containers"
)

type RedisLockoutStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *lockoutredis.Store
}

func TestRedisLockoutStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockoutStoreSuite))
}

func (s *RedisLockoutStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = lockoutredis.New(s.redis.Client)
}

func (s *RedisLockoutStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLockoutStoreSuite) TestRecordFailureCounts() {
	ctx := context.Background()

	count, err := s.store.RecordFailure(ctx, "a@b.com|10.0.0.1", time.Minute)
	s.Require().NoError(err)
	s.Equal(1, count)

	count, err = s.store.RecordFailure(ctx, "a@b.com|10.0.0.1", time.Minute)
	s.Require().NoError(err)
	s.Equal(2, count)

	count, err = s.store.RecordFailure(ctx, "a@b.com|10.0.0.2", time.Minute)
	s.Require().NoError(err)
	s.Equal(1, count, "keys are independent")
}

func (s *RedisLockoutStoreSuite) TestFailureWindowExpires() {
	ctx := context.Background()

	_, err := s.store.RecordFailure(ctx, "a@b.com|10.0.0.1", 200*time.Millisecond)
	s.Require().NoError(err)

	time.Sleep(300 * time.Millisecond)

	count, err := s.store.RecordFailure(ctx, "a@b.com|10.0.0.1", 200*time.Millisecond)
	s.Require().NoError(err)
	s.Equal(1, count, "counter restarts once the window passes")
}

func (s *RedisLockoutStoreSuite) TestLockAndLockedFor() {
	ctx := context.Background()
	key := "a@b.com|10.0.0.1"

	remaining, err := s.store.LockedFor(ctx, key)
	s.Require().NoError(err)
	s.Zero(remaining)

	s.Require().NoError(s.store.Lock(ctx, key, time.Minute))

	remaining, err = s.store.LockedFor(ctx, key)
	s.Require().NoError(err)
	s.Greater(remaining, 30*time.Second)
}

func (s *RedisLockoutStoreSuite) TestClearRemovesEverything() {
	ctx := context.Background()
	key := "a@b.com|10.0.0.1"

	_, err := s.store.RecordFailure(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Lock(ctx, key, time.Minute))

	s.Require().NoError(s.store.Clear(ctx, key))

	remaining, err := s.store.LockedFor(ctx, key)
	s.Require().NoError(err)
	s.Zero(remaining)

	count, err := s.store.RecordFailure(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(1, count)
}
