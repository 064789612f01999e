// Package postgres persists accounts in PostgreSQL. The unique index on
// email is the authority for duplicate detection; concurrent creations race
// and exactly one wins, the other surfaces sentinel.ErrConflict.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"sigil/internal/identity"
	"sigil/pkg/platform/sentinel"
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// Store implements identity.AccountStore on database/sql.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed account store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, account identity.Account) (identity.Account, error) {
	query := `
		INSERT INTO accounts (email, password_hash, first_name, last_name, role, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		account.Email,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.Role,
		account.Active,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.Account{}, sentinel.ErrConflict
		}
		return identity.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

func (s *Store) List(ctx context.Context) ([]identity.Account, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, role, active, created_at, updated_at
		FROM accounts
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []identity.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func (s *Store) Get(ctx context.Context, id int64) (identity.Account, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, role, active, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.Account{}, sentinel.ErrNotFound
		}
		return identity.Account{}, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (identity.Account, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, role, active, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.Account{}, sentinel.ErrNotFound
		}
		return identity.Account{}, fmt.Errorf("get account by email: %w", err)
	}
	return account, nil
}

func (s *Store) Update(ctx context.Context, id int64, changes identity.AccountChanges) (int64, error) {
	query := `
		UPDATE accounts SET
			email = COALESCE($2, email),
			password_hash = COALESCE($3, password_hash),
			first_name = COALESCE($4, first_name),
			last_name = COALESCE($5, last_name),
			role = COALESCE($6, role),
			active = COALESCE($7, active),
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		id,
		changes.Email,
		changes.PasswordHash,
		changes.FirstName,
		changes.LastName,
		changes.Role,
		changes.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, sentinel.ErrConflict
		}
		return 0, fmt.Errorf("update account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update account rows affected: %w", err)
	}
	return affected, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete account rows affected: %w", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (identity.Account, error) {
	var account identity.Account
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&account.Role,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	return account, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
