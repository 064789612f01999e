// Package memory provides an in-memory audit store for tests and local runs.
package memory

import (
	"context"
	"sync"

	"sigil/internal/audit"
)

// Store keeps appended entries in order. Entries are copied out on read so
// callers cannot mutate the log.
type Store struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

// New returns an empty in-memory audit store.
func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) ListRecent(_ context.Context, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]audit.Entry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

func (s *Store) ListBySubject(_ context.Context, subjectID int64) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for _, e := range s.entries {
		if e.SubjectID != nil && *e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns a copy of every entry in append order. Test helper.
func (s *Store) All() []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry{}, s.entries...)
}
