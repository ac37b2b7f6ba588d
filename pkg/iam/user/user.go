package user

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/kernel"
)

// User is an account inside a tenant. Email uniqueness is tenant-scoped,
// except the platform owner, which is global and singular.
type User struct {
	ID       kernel.UserID   `db:"id" json:"id"`
	TenantID kernel.TenantID `db:"tenant_id" json:"tenant_id"`
	Email    string          `db:"email" json:"email"`
	FullName string          `db:"full_name" json:"full_name"`

	// PasswordHash is nil for magic-link and freshly invited users.
	PasswordHash *string `db:"password_hash" json:"-"`

	Active         bool `db:"active" json:"active"`
	EmailConfirmed bool `db:"email_confirmed" json:"email_confirmed"`
	Owner          bool `db:"owner" json:"owner"`

	// LastSignInAt is nil until the first successful authentication. The
	// invitation flow uses this to detect users who never completed
	// onboarding.
	LastSignInAt *time.Time `db:"last_sign_in_at" json:"last_sign_in_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the user has a stored credential.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasSignedIn reports whether the user ever completed an authentication.
func (u *User) HasSignedIn() bool {
	return u.LastSignInAt != nil
}

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeNotFound   = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeEmailTaken = ErrRegistry.Register("EMAIL_TAKEN", errx.TypeConflict, http.StatusConflict, "Email is already registered")
	CodeInactive   = ErrRegistry.Register("INACTIVE", errx.TypeForbidden, http.StatusForbidden, "User account is inactive")
)

func ErrUserNotFound() *errx.Error { return ErrRegistry.New(CodeNotFound) }
func ErrEmailTaken() *errx.Error   { return ErrRegistry.New(CodeEmailTaken) }
func ErrUserInactive() *errx.Error { return ErrRegistry.New(CodeInactive) }
