// Package audit records every identity-affecting action as an immutable,
// append-only entry. The model is transport-agnostic so stores and sinks
// can fan out.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action tags an audit entry. The set is closed; stores reject nothing, but
// the identity service only ever emits these.
type Action string

const (
	ActionAccountCreated      Action = "account_created"
	ActionAccountCreateFailed Action = "account_create_failed"
	ActionAccountsListed      Action = "accounts_listed"
	ActionAccountFetched      Action = "account_fetched"
	ActionAccountUpdated      Action = "account_updated"
	ActionAccountDeleted      Action = "account_deleted"
	ActionLoginSucceeded      Action = "login_succeeded"
	ActionLoginFailed         Action = "login_failed"
)

// Entry is one audit record. SubjectID is the affected account when known;
// Detail is free text and must never contain password or hash material.
type Entry struct {
	ID        uuid.UUID
	Action    Action
	SubjectID *int64
	Detail    string
	Timestamp time.Time
}
