// Package lockout throttles repeated login failures per credential and
// client address. It is advisory: the identity service stays correct
// without it, the transport layer just refuses to ask.
package lockout

import (
	"context"
	"time"

	"sigil/internal/platform/config"
	"sigil/internal/platform/metrics"
)

// Store tracks failure counts and active locks. Implementations expire
// counters after the configured window on their own.
type Store interface {
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Lock(ctx context.Context, key string, duration time.Duration) error
	LockedFor(ctx context.Context, key string) (time.Duration, error)
	Clear(ctx context.Context, key string) error
}

// Status reports whether a key is currently locked out.
type Status struct {
	Locked     bool
	RetryAfter time.Duration
}

// Service applies the lockout policy over a Store.
type Service struct {
	store   Store
	cfg     config.LockoutConfig
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a lockout Service.
func New(store Store, cfg config.LockoutConfig, opts ...Option) *Service {
	s := &Service{store: store, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key combines the credential and the client address so one address
// cannot lock a victim out from everywhere, and one credential cannot be
// hammered from one address.
func Key(email, clientIP string) string {
	return email + "|" + clientIP
}

// Check reports the lock state for a key. A store error degrades open:
// login proceeds and the error is surfaced for logging.
func (s *Service) Check(ctx context.Context, key string) (Status, error) {
	remaining, err := s.store.LockedFor(ctx, key)
	if err != nil {
		return Status{}, err
	}
	if remaining <= 0 {
		return Status{}, nil
	}
	return Status{Locked: true, RetryAfter: remaining}, nil
}

// RecordFailure counts a failed attempt and engages the lock once the
// window accumulates enough of them.
func (s *Service) RecordFailure(ctx context.Context, key string) error {
	count, err := s.store.RecordFailure(ctx, key, s.cfg.Window)
	if err != nil {
		return err
	}
	if count < s.cfg.MaxFailures {
		return nil
	}
	if err := s.store.Lock(ctx, key, s.cfg.LockDuration); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.LockoutsActive.Inc()
	}
	return nil
}

// Clear drops the failure count and any active lock after a successful
// login.
func (s *Service) Clear(ctx context.Context, key string) error {
	return s.store.Clear(ctx, key)
}
