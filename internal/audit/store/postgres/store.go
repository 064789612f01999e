// Package postgres persists audit entries in PostgreSQL. Inserts are
// idempotent on entry ID so a retried append cannot duplicate the trail.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"sigil/internal/audit"
)

// Store implements audit.Store on database/sql.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO audit_entries (id, action, subject_id, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.Action),
		entry.SubjectID,
		entry.Detail,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	query := `
		SELECT id, action, subject_id, detail, occurred_at
		FROM audit_entries
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *Store) ListBySubject(ctx context.Context, subjectID int64) ([]audit.Entry, error) {
	query := `
		SELECT id, action, subject_id, detail, occurred_at
		FROM audit_entries
		WHERE subject_id = $1
		ORDER BY occurred_at
	`
	rows, err := s.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries by subject: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			entry  audit.Entry
			action string
		)
		if err := rows.Scan(&entry.ID, &action, &entry.SubjectID, &entry.Detail, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = audit.Action(action)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
