// Package memory provides an in-memory AccountStore for tests and local
// runs. It intentionally favors clarity over performance.
package memory

import (
	"context"
	"sync"
	"time"

	"sigil/internal/identity"
	"sigil/pkg/platform/sentinel"
)

// Store keeps accounts in a map guarded by a RWMutex. IDs are assigned from
// a monotonically increasing counter, mirroring a serial primary key.
type Store struct {
	mu       sync.RWMutex
	accounts map[int64]identity.Account
	byEmail  map[string]int64
	nextID   int64
}

// New returns an empty in-memory account store.
func New() *Store {
	return &Store{
		accounts: make(map[int64]identity.Account),
		byEmail:  make(map[string]int64),
		nextID:   1,
	}
}

func (s *Store) Create(_ context.Context, account identity.Account) (identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[account.Email]; exists {
		return identity.Account{}, sentinel.ErrConflict
	}

	now := time.Now()
	account.ID = s.nextID
	account.CreatedAt = now
	account.UpdatedAt = now
	s.nextID++

	s.accounts[account.ID] = account
	s.byEmail[account.Email] = account.ID
	return account, nil
}

func (s *Store) List(_ context.Context) ([]identity.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]identity.Account, 0, len(s.accounts))
	for id := int64(1); id < s.nextID; id++ {
		if account, ok := s.accounts[id]; ok {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

func (s *Store) Get(_ context.Context, id int64) (identity.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if account, ok := s.accounts[id]; ok {
		return account, nil
	}
	return identity.Account{}, sentinel.ErrNotFound
}

func (s *Store) GetByEmail(_ context.Context, email string) (identity.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.byEmail[email]; ok {
		return s.accounts[id], nil
	}
	return identity.Account{}, sentinel.ErrNotFound
}

func (s *Store) Update(_ context.Context, id int64, changes identity.AccountChanges) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return 0, nil
	}

	if changes.Email != nil && *changes.Email != account.Email {
		if _, taken := s.byEmail[*changes.Email]; taken {
			return 0, sentinel.ErrConflict
		}
		delete(s.byEmail, account.Email)
		account.Email = *changes.Email
		s.byEmail[account.Email] = id
	}
	if changes.PasswordHash != nil {
		account.PasswordHash = *changes.PasswordHash
	}
	if changes.FirstName != nil {
		account.FirstName = *changes.FirstName
	}
	if changes.LastName != nil {
		account.LastName = *changes.LastName
	}
	if changes.Role != nil {
		account.Role = *changes.Role
	}
	if changes.Active != nil {
		account.Active = *changes.Active
	}
	account.UpdatedAt = time.Now()

	s.accounts[id] = account
	return 1, nil
}

func (s *Store) Delete(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return 0, nil
	}
	delete(s.accounts, id)
	delete(s.byEmail, account.Email)
	return 1, nil
}
