package audit

import "context"

// Store is the append-only persistence boundary for audit entries. Entries
// are never updated or deleted through this interface.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	ListBySubject(ctx context.Context, subjectID int64) ([]Entry, error)
}
