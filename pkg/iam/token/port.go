package token

import (
	"context"
	"time"

	"github.com/Abraxas-365/keygate/pkg/kernel"
)

// Repository defines the contract for ephemeral token persistence.
//
// Lookups are by value alone: a token's bearer does not know which tenant
// minted it. Callers re-check the tenant on the returned token and treat a
// mismatch as CodeNotFound.
type Repository interface {
	// Create stores a freshly minted token.
	Create(ctx context.Context, t Token) error

	// FindByValue returns the token with the exact value, expired or not.
	// Missing tokens return CodeNotFound.
	FindByValue(ctx context.Context, value string) (*Token, error)

	// Delete removes a token by value. Deleting a token that is already
	// gone is not an error.
	Delete(ctx context.Context, value string) error

	// DeleteAllOfKind removes every token of one kind held by a user, so a
	// reissued token is the only live one.
	DeleteAllOfKind(ctx context.Context, kind Kind, userID kernel.UserID) error

	// DeleteExpired purges tokens that expired before the cutoff and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
