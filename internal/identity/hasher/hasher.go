// Package hasher provides the one-way password transform. bcrypt embeds a
// per-call random salt and its cost in the hash string, so two hashes of the
// same plaintext differ and verification needs no stored parameters.
package hasher

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "sigil/pkg/domain-errors"
)

// Bcrypt hashes and verifies passwords with a fixed work factor.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a Bcrypt hasher. Costs outside bcrypt's supported range
// fall back to the library default rather than silently drifting.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns a bcrypt hash of the plaintext.
func (b *Bcrypt) Hash(plain string) (string, error) {
	if plain == "" {
		return "", dErrors.New(dErrors.CodeValidation, "password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plain matches hash by re-deriving. A malformed
// hash yields false, never an error; bcrypt's comparison is constant-time
// over the derived key.
func (b *Bcrypt) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
