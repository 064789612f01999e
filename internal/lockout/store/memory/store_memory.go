// Package memory provides an in-memory lockout store for tests and
// single-instance deployments.
package memory

import (
	"context"
	"sync"
	"time"
)

type record struct {
	count       int
	windowEnds  time.Time
	lockedUntil time.Time
}

// Store keeps failure counters and locks keyed by credential and address.
type Store struct {
	mu      sync.Mutex
	records map[string]*record
	clock   func() time.Time
}

type Option func(*Store)

// WithClock sets the time source for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New returns an empty in-memory lockout store.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]*record),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) RecordFailure(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	rec, ok := s.records[key]
	if !ok || now.After(rec.windowEnds) {
		rec = &record{windowEnds: now.Add(window)}
		s.records[key] = rec
	}
	rec.count++
	return rec.count, nil
}

func (s *Store) Lock(_ context.Context, key string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		rec = &record{}
		s.records[key] = rec
	}
	rec.lockedUntil = s.clock().Add(duration)
	return nil
}

func (s *Store) LockedFor(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return 0, nil
	}
	remaining := rec.lockedUntil.Sub(s.clock())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func (s *Store) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
