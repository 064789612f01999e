package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigil/internal/audit"
	"sigil/internal/audit/store/memory"
)

func entryFor(action audit.Action, subject *int64, at time.Time) audit.Entry {
	return audit.Entry{
		ID:        uuid.New(),
		Action:    action,
		SubjectID: subject,
		Timestamp: at,
	}
}

func TestListRecentReturnsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, entryFor(audit.ActionAccountsListed, nil, base.Add(time.Duration(i)*time.Minute))))
	}

	entries, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, base.Add(2*time.Minute), entries[0].Timestamp)
	assert.Equal(t, base.Add(time.Minute), entries[1].Timestamp)
}

func TestListRecentZeroLimitReturnsAll(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Append(ctx, entryFor(audit.ActionLoginFailed, nil, time.Now())))
	require.NoError(t, store.Append(ctx, entryFor(audit.ActionLoginSucceeded, nil, time.Now())))

	entries, err := store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestListBySubjectFiltersEntries(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Now()
	alice, bob := int64(1), int64(2)

	require.NoError(t, store.Append(ctx, entryFor(audit.ActionAccountCreated, &alice, now)))
	require.NoError(t, store.Append(ctx, entryFor(audit.ActionAccountCreated, &bob, now)))
	require.NoError(t, store.Append(ctx, entryFor(audit.ActionAccountUpdated, &alice, now)))
	require.NoError(t, store.Append(ctx, entryFor(audit.ActionAccountsListed, nil, now)))

	entries, err := store.ListBySubject(ctx, alice)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionAccountCreated, entries[0].Action)
	assert.Equal(t, audit.ActionAccountUpdated, entries[1].Action)
}
