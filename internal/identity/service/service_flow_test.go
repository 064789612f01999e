package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigil/internal/audit"
	auditmemory "sigil/internal/audit/store/memory"
	"sigil/internal/identity"
	"sigil/internal/identity/hasher"
	"sigil/internal/identity/service"
	accountmemory "sigil/internal/identity/store/memory"
	dErrors "sigil/pkg/domain-errors"
)

func newFlowService(t *testing.T) (*service.Service, *auditmemory.Store) {
	t.Helper()
	trail := auditmemory.New()
	svc := service.New(
		accountmemory.New(),
		hasher.NewBcrypt(4),
		audit.NewRecorder(trail),
	)
	return svc, trail
}

func actions(entries []audit.Entry) []audit.Action {
	out := make([]audit.Action, len(entries))
	for i, e := range entries {
		out[i] = e.Action
	}
	return out
}

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, trail := newFlowService(t)

	account, err := svc.CreateAccount(ctx, identity.CreateAccount{
		Email:     "a@b.com",
		Password:  "secret",
		FirstName: "Ada",
	})
	require.NoError(t, err)
	require.NotZero(t, account.ID)
	assert.NotEqual(t, "secret", account.PasswordHash, "stored credential must be hashed")

	logged, err := svc.Authenticate(ctx, "a@b.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, logged)
	assert.Equal(t, account.ID, logged.ID)

	denied, err := svc.Authenticate(ctx, "a@b.com", "wrong")
	require.NoError(t, err)
	assert.Nil(t, denied)

	require.NoError(t, svc.DeleteAccount(ctx, account.ID))

	_, err = svc.GetAccount(ctx, account.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	assert.Equal(t, []audit.Action{
		audit.ActionAccountCreated,
		audit.ActionLoginSucceeded,
		audit.ActionLoginFailed,
		audit.ActionAccountDeleted,
	}, actions(trail.All()))
}

func TestDuplicateEmailIsAudited(t *testing.T) {
	ctx := context.Background()
	svc, trail := newFlowService(t)

	_, err := svc.CreateAccount(ctx, identity.CreateAccount{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, identity.CreateAccount{Email: "a@b.com", Password: "other"})
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	got := actions(trail.All())
	require.Len(t, got, 2)
	assert.Equal(t, audit.ActionAccountCreateFailed, got[1])
}

func TestDeactivatedAccountCannotAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, trail := newFlowService(t)

	account, err := svc.CreateAccount(ctx, identity.CreateAccount{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)

	inactive := false
	require.NoError(t, svc.UpdateAccount(ctx, account.ID, identity.UpdateAccount{Active: &inactive}))

	denied, err := svc.Authenticate(ctx, "a@b.com", "secret")
	require.NoError(t, err)
	assert.Nil(t, denied)

	entries, err := trail.ListBySubject(ctx, account.ID)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, audit.ActionLoginFailed, last.Action)
	assert.Equal(t, "account inactive", last.Detail)
}

func TestPasswordChangeTakesEffect(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFlowService(t)

	account, err := svc.CreateAccount(ctx, identity.CreateAccount{Email: "a@b.com", Password: "old-secret"})
	require.NoError(t, err)

	newPassword := "new-secret"
	require.NoError(t, svc.UpdateAccount(ctx, account.ID, identity.UpdateAccount{Password: &newPassword}))

	denied, err := svc.Authenticate(ctx, "a@b.com", "old-secret")
	require.NoError(t, err)
	assert.Nil(t, denied)

	granted, err := svc.Authenticate(ctx, "a@b.com", "new-secret")
	require.NoError(t, err)
	assert.NotNil(t, granted)
}
