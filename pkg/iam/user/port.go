package user

import (
	"context"
	"time"

	"github.com/Abraxas-365/keygate/pkg/kernel"
)

// Repository defines the contract for user persistence.
type Repository interface {
	// FindByEmail looks up a user inside one tenant. Cross-tenant lookups
	// are impossible by construction: the tenant ID is part of the key.
	FindByEmail(ctx context.Context, email string, tenantID kernel.TenantID) (*User, error)

	// FindByID looks up a user by its platform-wide ID.
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)

	// FindOwner returns the singular platform owner, if bootstrapped.
	FindOwner(ctx context.Context) (*User, error)

	// Create inserts a new user. Duplicate (email, tenant) pairs return
	// CodeEmailTaken.
	Create(ctx context.Context, u User) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id kernel.UserID, passwordHash string) error

	// SetEmailConfirmed marks the user's email as confirmed and activates
	// the account.
	SetEmailConfirmed(ctx context.Context, id kernel.UserID) error

	// RecordSignIn stamps the last successful authentication time.
	RecordSignIn(ctx context.Context, id kernel.UserID, at time.Time) error
}
