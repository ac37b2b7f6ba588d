package authflow

import (
	"context"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/iam/password"
	"github.com/Abraxas-365/keygate/pkg/iam/tenant"
	"github.com/Abraxas-365/keygate/pkg/iam/token"
	"github.com/Abraxas-365/keygate/pkg/iam/user"
)

// Validator checks credentials and ephemeral tokens. It never mutates
// state: token validation is a peek, and the caller deletes the token once
// its own mutation has gone through.
type Validator struct {
	users  user.Repository
	tokens token.Repository
	hasher *password.Hasher
}

// NewValidator creates a validator over the given stores.
func NewValidator(users user.Repository, tokens token.Repository, hasher *password.Hasher) *Validator {
	return &Validator{users: users, tokens: tokens, hasher: hasher}
}

// AuthenticateWithPassword resolves the user by (email, tenant) and checks
// the password. Unknown email and wrong password return the same error, so
// responses do not reveal which emails are registered.
func (v *Validator) AuthenticateWithPassword(ctx context.Context, email, plainPassword string, tn *tenant.Tenant) (*user.User, error) {
	u, err := v.users.FindByEmail(ctx, email, tn.ID)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			return nil, ErrInvalidCredentials()
		}
		return nil, err
	}

	if !u.Active {
		return nil, user.ErrUserInactive()
	}
	if !u.HasPassword() {
		return nil, ErrInvalidCredentials()
	}
	if !v.hasher.Verify(plainPassword, *u.PasswordHash) {
		return nil, ErrInvalidCredentials()
	}
	return u, nil
}

// ValidateToken looks up an ephemeral token by value and checks kind,
// tenant and expiry. The token is not consumed.
//
// Lookups are tenant-oblivious; a token that exists but belongs to another
// tenant fails closed as not-found. On expiry the token is returned
// alongside the error so callers can act on its owner.
func (v *Validator) ValidateToken(ctx context.Context, value string, kind token.Kind, tn *tenant.Tenant) (*token.Token, error) {
	t, err := v.tokens.FindByValue(ctx, value)
	if err != nil {
		return nil, err
	}

	if t.Kind != kind {
		return nil, token.ErrTokenNotFound()
	}
	if t.TenantID != tn.ID {
		return nil, token.ErrTokenNotFound()
	}
	if t.IsExpired() {
		return t, token.ErrTokenExpired(t.UserID, t.TenantID)
	}
	return t, nil
}
