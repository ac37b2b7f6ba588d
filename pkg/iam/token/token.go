package token

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/kernel"
	"github.com/google/uuid"
)

// Kind is the single purpose an ephemeral token may serve.
type Kind string

const (
	KindConfirmEmail  Kind = "confirm-email"
	KindMagicLogin    Kind = "magic-login"
	KindResetPassword Kind = "reset-password"
	KindInviteUser    Kind = "invite-user"

	// KindRefresh is used only when refresh token tracking is enabled, so
	// logout can revoke issued refresh tokens.
	KindRefresh Kind = "refresh"
)

// Token is a single-purpose, time-boxed, single-use grant. It is never
// updated in place: it is created by one flow and deleted by the flow that
// consumes it.
type Token struct {
	ID        string          `db:"id" json:"id"`
	Value     string          `db:"value" json:"value"`
	Kind      Kind            `db:"kind" json:"kind"`
	UserID    kernel.UserID   `db:"user_id" json:"user_id"`
	TenantID  kernel.TenantID `db:"tenant_id" json:"tenant_id"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	ExpiresAt time.Time       `db:"expires_at" json:"expires_at"`
}

// IsExpired reports whether the token is past its TTL. Expired tokens stay
// in the store until a flow explicitly deletes them; the confirm-email
// resend accommodation depends on that.
func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

const opaqueTokenBytes = 32

// NewOpaqueValue returns a cryptographically random, URL-safe token string
// with 256 bits of entropy.
func NewOpaqueValue() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to generate token value", errx.TypeInternal)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// New mints a token of the given kind for a user within a tenant. The
// plaintext value is returned inside the token and is never recoverable
// from the store other than by exact-match lookup.
func New(kind Kind, userID kernel.UserID, tenantID kernel.TenantID, ttl time.Duration) (*Token, error) {
	value, err := NewOpaqueValue()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Token{
		ID:        uuid.NewString(),
		Value:     value,
		Kind:      kind,
		UserID:    userID,
		TenantID:  tenantID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

var ErrRegistry = errx.NewRegistry("TOKEN")

var (
	CodeNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Token not found")
	CodeExpired  = ErrRegistry.Register("EXPIRED", errx.TypeExpired, http.StatusGone, "Token has expired")
)

func ErrTokenNotFound() *errx.Error { return ErrRegistry.New(CodeNotFound) }

// ErrTokenExpired carries the owning user and tenant so callers can act on
// expiry (the confirm-email flow resends a fresh confirmation).
func ErrTokenExpired(userID kernel.UserID, tenantID kernel.TenantID) *errx.Error {
	return ErrRegistry.New(CodeExpired).
		WithDetail("user_id", userID.String()).
		WithDetail("tenant_id", tenantID.String())
}
