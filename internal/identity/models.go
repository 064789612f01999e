// Package identity holds the account model and the persistence contract for
// the credential-validation and audited-mutation pipeline.
package identity

import (
	"context"
	"time"
)

// DefaultRole is assigned to accounts created without an explicit role and
// is the value carried in the session token's role claim.
const DefaultRole = "user"

// Account is the canonical identity record. PasswordHash always holds a
// bcrypt hash; plaintext never reaches a store.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateAccount carries the fields of an account-creation request. Password
// is plaintext here; the service hashes it before anything is persisted.
type CreateAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateAccount carries a partial update. Nil fields are left unchanged.
// Password is plaintext; the service replaces it with a hash.
type UpdateAccount struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	Role      *string
	Active    *bool
}

// AccountChanges is the store-level form of a partial update: the password,
// if changing, has already been hashed.
type AccountChanges struct {
	Email        *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
	Role         *string
	Active       *bool
}

// AccountStore is the persistence boundary for accounts. Implementations
// enforce email uniqueness and return sentinel errors for infrastructure
// facts; they never log — auditing is the service's responsibility.
//
// Update and Delete return the number of affected records; 0 signals
// not-found to the caller without an error.
type AccountStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	Update(ctx context.Context, id int64, changes AccountChanges) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}
