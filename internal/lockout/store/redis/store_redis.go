// Package redis backs the lockout store with Redis so failure counts and
// locks are shared across instances.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failureKeyPrefix = "lockout:fail:"
	lockKeyPrefix    = "lockout:lock:"
)

// Store implements lockout.Store on a shared Redis client. The client
// lifecycle is managed externally.
type Store struct {
	client *redis.Client
}

// New constructs a Redis-backed lockout store.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// RecordFailure increments the failure counter, starting the expiry window
// on the first failure. INCR and EXPIRE run in one pipeline so a crash
// between them cannot leave an immortal counter.
func (s *Store) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	failKey := failureKeyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, failKey)
	pipe.ExpireNX(ctx, failKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *Store) Lock(ctx context.Context, key string, duration time.Duration) error {
	return s.client.Set(ctx, lockKeyPrefix+key, "1", duration).Err()
}

func (s *Store) LockedFor(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, lockKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	// TTL reports negative durations for missing keys and keys without
	// expiry; neither means locked.
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *Store) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, failureKeyPrefix+key, lockKeyPrefix+key).Err()
}
