package tenant

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/kernel"
)

// AuthPolicy selects how a tenant's users authenticate. It is a tagged
// variant consumed via a branch, not a type hierarchy.
type AuthPolicy string

const (
	// PolicyPassword authenticates users with email + password.
	PolicyPassword AuthPolicy = "password"

	// PolicyMagicLink authenticates users with single-use emailed tokens.
	PolicyMagicLink AuthPolicy = "magic-link"
)

// IsValid reports whether the policy is one of the known variants.
func (p AuthPolicy) IsValid() bool {
	return p == PolicyPassword || p == PolicyMagicLink
}

// Tenant is the isolation boundary for users, tokens and sessions. Client
// applications identify their tenant with the public key; the signing key
// never leaves the server.
type Tenant struct {
	ID            kernel.TenantID `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	PublicKey     string          `db:"public_key" json:"public_key"`
	SigningKey    string          `db:"signing_key" json:"-"`
	AuthPolicy    AuthPolicy      `db:"auth_policy" json:"auth_policy"`
	SignupEnabled bool            `db:"signup_enabled" json:"signup_enabled"`

	// RefreshTTL is the refresh token lifetime. Nil disables refresh for
	// this tenant: only access tokens are issued and refresh requests fail.
	RefreshTTL *time.Duration `db:"-" json:"refresh_ttl,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RefreshEnabled reports whether this tenant issues refresh tokens.
func (t *Tenant) RefreshEnabled() bool {
	return t.RefreshTTL != nil && *t.RefreshTTL > 0
}

var ErrRegistry = errx.NewRegistry("TENANT")

var (
	CodeNotFound      = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Tenant not found")
	CodeInvalidPolicy = ErrRegistry.Register("INVALID_POLICY", errx.TypeInternal, http.StatusInternalServerError, "Tenant auth policy is misconfigured")
	CodeAlreadyExists = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Tenant already exists")
)

func ErrTenantNotFound() *errx.Error { return ErrRegistry.New(CodeNotFound) }
func ErrInvalidPolicy() *errx.Error  { return ErrRegistry.New(CodeInvalidPolicy) }
func ErrTenantExists() *errx.Error   { return ErrRegistry.New(CodeAlreadyExists) }
