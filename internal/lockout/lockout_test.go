package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigil/internal/lockout"
	"sigil/internal/lockout/store/memory"
	"sigil/internal/platform/config"
)

var policy = config.LockoutConfig{
	MaxFailures:  3,
	Window:       15 * time.Minute,
	LockDuration: 15 * time.Minute,
}

func TestKeyCombinesEmailAndAddress(t *testing.T) {
	assert.Equal(t, "a@b.com|10.0.0.1", lockout.Key("a@b.com", "10.0.0.1"))
	assert.NotEqual(t, lockout.Key("a@b.com", "10.0.0.1"), lockout.Key("a@b.com", "10.0.0.2"))
}

func TestLockEngagesAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	svc := lockout.New(memory.New(), policy)
	key := lockout.Key("a@b.com", "10.0.0.1")

	for i := 0; i < policy.MaxFailures-1; i++ {
		require.NoError(t, svc.RecordFailure(ctx, key))
		status, err := svc.Check(ctx, key)
		require.NoError(t, err)
		assert.False(t, status.Locked)
	}

	require.NoError(t, svc.RecordFailure(ctx, key))
	status, err := svc.Check(ctx, key)
	require.NoError(t, err)
	assert.True(t, status.Locked)
	assert.Greater(t, status.RetryAfter, time.Duration(0))
}

func TestLockExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := memory.New(memory.WithClock(func() time.Time { return now }))
	svc := lockout.New(store, policy)
	key := lockout.Key("a@b.com", "10.0.0.1")

	for i := 0; i < policy.MaxFailures; i++ {
		require.NoError(t, svc.RecordFailure(ctx, key))
	}
	status, err := svc.Check(ctx, key)
	require.NoError(t, err)
	require.True(t, status.Locked)

	now = now.Add(policy.LockDuration + time.Second)
	status, err = svc.Check(ctx, key)
	require.NoError(t, err)
	assert.False(t, status.Locked)
}

func TestWindowResetsFailureCount(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := memory.New(memory.WithClock(func() time.Time { return now }))
	svc := lockout.New(store, policy)
	key := lockout.Key("a@b.com", "10.0.0.1")

	require.NoError(t, svc.RecordFailure(ctx, key))
	require.NoError(t, svc.RecordFailure(ctx, key))

	// Old failures age out; the next two stay under the threshold.
	now = now.Add(policy.Window + time.Second)
	require.NoError(t, svc.RecordFailure(ctx, key))
	require.NoError(t, svc.RecordFailure(ctx, key))

	status, err := svc.Check(ctx, key)
	require.NoError(t, err)
	assert.False(t, status.Locked)
}

func TestClearRemovesLockAndCount(t *testing.T) {
	ctx := context.Background()
	svc := lockout.New(memory.New(), policy)
	key := lockout.Key("a@b.com", "10.0.0.1")

	for i := 0; i < policy.MaxFailures; i++ {
		require.NoError(t, svc.RecordFailure(ctx, key))
	}
	require.NoError(t, svc.Clear(ctx, key))

	status, err := svc.Check(ctx, key)
	require.NoError(t, err)
	assert.False(t, status.Locked)

	// Counter restarted from zero as well.
	require.NoError(t, svc.RecordFailure(ctx, key))
	status, err = svc.Check(ctx, key)
	require.NoError(t, err)
	assert.False(t, status.Locked)
}
