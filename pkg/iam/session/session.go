package session

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/golang-jwt/jwt/v5"
)

// Session is an issued credential pair. RefreshToken is empty when the
// tenant has refresh disabled.
type Session struct {
	AccessToken      string     `json:"access_token"`
	AccessExpiresAt  time.Time  `json:"access_expires_at"`
	RefreshToken     string     `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
	TokenType        string     `json:"token_type"`
}

const (
	// TokenUseAccess and TokenUseRefresh discriminate the two JWT kinds so
	// a refresh token can never pass as an access token or vice versa.
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims is the JWT payload for both session token kinds.
type Claims struct {
	TenantID string `json:"tid"`
	Email    string `json:"email,omitempty"`
	TokenUse string `json:"use"`
	jwt.RegisteredClaims
}

var ErrRegistry = errx.NewRegistry("SESSION")

var (
	CodeInvalidToken    = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired session token")
	CodeRefreshDisabled = ErrRegistry.Register("REFRESH_DISABLED", errx.TypeAuthorization, http.StatusUnauthorized, "Refresh is not enabled for this tenant")
	CodeRefreshRevoked  = ErrRegistry.Register("REFRESH_REVOKED", errx.TypeAuthorization, http.StatusUnauthorized, "Refresh token has been revoked")
)

func ErrInvalidToken() *errx.Error    { return ErrRegistry.New(CodeInvalidToken) }
func ErrRefreshDisabled() *errx.Error { return ErrRegistry.New(CodeRefreshDisabled) }
func ErrRefreshRevoked() *errx.Error  { return ErrRegistry.New(CodeRefreshRevoked) }
