// Package service orchestrates account management and credential
// validation. Every mutation and every authentication attempt is recorded
// on the audit trail before the operation is reported successful.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sigil/internal/audit"
	"sigil/internal/identity"
	"sigil/internal/platform/metrics"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/sentinel"
)

type AccountStore interface {
	Create(ctx context.Context, account identity.Account) (identity.Account, error)
	List(ctx context.Context) ([]identity.Account, error)
	Get(ctx context.Context, id int64) (identity.Account, error)
	GetByEmail(ctx context.Context, email string) (identity.Account, error)
	Update(ctx context.Context, id int64, changes identity.AccountChanges) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Service is the identity façade used by transport handlers.
type Service struct {
	accounts AccountStore
	hasher   Hasher
	audit    AuditRecorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(accounts AccountStore, hasher Hasher, recorder AuditRecorder, opts ...Option) *Service {
	s := &Service{accounts: accounts, hasher: hasher, audit: recorder}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount hashes the credential and stores a new account. The stored
// hash never leaves the service through the audit trail.
func (s *Service) CreateAccount(ctx context.Context, req identity.CreateAccount) (*identity.Account, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	account, err := s.accounts.Create(ctx, identity.Account{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         identity.DefaultRole,
		Active:       true,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if auditErr := s.record(ctx, audit.Entry{
				Action: audit.ActionAccountCreateFailed,
				Detail: "email already registered",
			}); auditErr != nil {
				return nil, auditErr
			}
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		if auditErr := s.record(ctx, audit.Entry{
			Action: audit.ActionAccountCreateFailed,
			Detail: "storage error",
		}); auditErr != nil {
			return nil, auditErr
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	if auditErr := s.record(ctx, audit.Entry{
		Action:    audit.ActionAccountCreated,
		SubjectID: &account.ID,
		Detail:    "account created",
	}); auditErr != nil {
		return nil, auditErr
	}
	if s.metrics != nil {
		s.metrics.AccountsCreated.Inc()
	}
	s.log(ctx, "account created", "account_id", account.ID)
	return &account, nil
}

// ListAccounts returns every account.
func (s *Service) ListAccounts(ctx context.Context) ([]identity.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	if auditErr := s.record(ctx, audit.Entry{
		Action: audit.ActionAccountsListed,
		Detail: fmt.Sprintf("listed %d accounts", len(accounts)),
	}); auditErr != nil {
		return nil, auditErr
	}
	return accounts, nil
}

// GetAccount returns one account by ID. A miss is not audited; nothing
// happened to any account.
func (s *Service) GetAccount(ctx context.Context, id int64) (*identity.Account, error) {
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get account")
	}
	if auditErr := s.record(ctx, audit.Entry{
		Action:    audit.ActionAccountFetched,
		SubjectID: &account.ID,
		Detail:    "account fetched",
	}); auditErr != nil {
		return nil, auditErr
	}
	return &account, nil
}

// UpdateAccount applies the provided fields. A password update is hashed
// before it reaches the store.
func (s *Service) UpdateAccount(ctx context.Context, id int64, req identity.UpdateAccount) error {
	changes := identity.AccountChanges{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Active:    req.Active,
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeValidation) {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
		changes.PasswordHash = &hash
	}

	affected, err := s.accounts.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	}

	if auditErr := s.record(ctx, audit.Entry{
		Action:    audit.ActionAccountUpdated,
		SubjectID: &id,
		Detail:    "account updated",
	}); auditErr != nil {
		return auditErr
	}
	if s.metrics != nil {
		s.metrics.AccountsUpdated.Inc()
	}
	s.log(ctx, "account updated", "account_id", id)
	return nil
}

// DeleteAccount removes an account. The audit trail keeps the deleted ID.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	affected, err := s.accounts.Delete(ctx, id)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete account")
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	}

	if auditErr := s.record(ctx, audit.Entry{
		Action:    audit.ActionAccountDeleted,
		SubjectID: &id,
		Detail:    "account deleted",
	}); auditErr != nil {
		return auditErr
	}
	if s.metrics != nil {
		s.metrics.AccountsDeleted.Inc()
	}
	s.log(ctx, "account deleted", "account_id", id)
	return nil
}

// Authenticate validates a credential pair. A failed attempt returns
// (nil, nil) so callers cannot distinguish an unknown email from a wrong
// password or an inactive account; the audit trail records which it was.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*identity.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.failLogin(ctx, nil, "email not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up account")
	}

	if !account.Active {
		return s.failLogin(ctx, &account.ID, "account inactive")
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return s.failLogin(ctx, &account.ID, "password mismatch")
	}

	if auditErr := s.record(ctx, audit.Entry{
		Action:    audit.ActionLoginSucceeded,
		SubjectID: &account.ID,
		Detail:    "login succeeded",
	}); auditErr != nil {
		return nil, auditErr
	}
	if s.metrics != nil {
		s.metrics.LoginSuccesses.Inc()
	}
	s.log(ctx, "login succeeded", "account_id", account.ID)
	return &account, nil
}

func (s *Service) failLogin(ctx context.Context, subjectID *int64, reason string) (*identity.Account, error) {
	if auditErr := s.record(ctx, audit.Entry{
		Action:    audit.ActionLoginFailed,
		SubjectID: subjectID,
		Detail:    reason,
	}); auditErr != nil {
		return nil, auditErr
	}
	if s.metrics != nil {
		s.metrics.LoginFailures.Inc()
	}
	s.log(ctx, "login failed", "reason", reason)
	return nil, nil
}

// record appends to the audit trail, converting a trail failure into an
// internal error so the surrounding operation does not report success
// without its audit entry.
func (s *Service) record(ctx context.Context, entry audit.Entry) error {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log(ctx, "audit append failed", "action", entry.Action, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit entry")
	}
	return nil
}

func (s *Service) log(ctx context.Context, msg string, attributes ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, attributes...)
	}
}
