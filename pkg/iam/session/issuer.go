package session

import (
	"context"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/iam/tenant"
	"github.com/Abraxas-365/keygate/pkg/iam/token"
	"github.com/Abraxas-365/keygate/pkg/iam/user"
	"github.com/Abraxas-365/keygate/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config holds the issuer-wide knobs; per-tenant behavior (signing key,
// refresh TTL override) comes from the tenant itself.
type Config struct {
	Issuer            string
	AccessTTL         time.Duration
	DefaultRefreshTTL time.Duration
}

// Issuer mints and verifies session token pairs, signed per tenant with
// HS256. Refresh tokens are stateless unless a token repository is
// attached, in which case they are recorded so logout can revoke them.
type Issuer struct {
	cfg      Config
	tracking token.Repository
}

// NewIssuer creates a stateless issuer.
func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg}
}

// NewTrackingIssuer creates an issuer that records refresh tokens in the
// given repository, making them individually revocable.
func NewTrackingIssuer(cfg Config, repo token.Repository) *Issuer {
	return &Issuer{cfg: cfg, tracking: repo}
}

// CreateSessionPair issues an access token, and a refresh token when the
// tenant allows refresh.
func (i *Issuer) CreateSessionPair(ctx context.Context, u *user.User, t *tenant.Tenant) (*Session, error) {
	now := time.Now().UTC()
	accessExpiry := now.Add(i.cfg.AccessTTL)

	accessToken, err := i.sign(u, t, TokenUseAccess, now, accessExpiry)
	if err != nil {
		return nil, err
	}

	session := &Session{
		AccessToken:     accessToken,
		AccessExpiresAt: accessExpiry,
		TokenType:       "Bearer",
	}

	if !t.RefreshEnabled() {
		return session, nil
	}

	refreshTTL := i.cfg.DefaultRefreshTTL
	if t.RefreshTTL != nil {
		refreshTTL = *t.RefreshTTL
	}
	refreshExpiry := now.Add(refreshTTL)

	refreshToken, err := i.sign(u, t, TokenUseRefresh, now, refreshExpiry)
	if err != nil {
		return nil, err
	}

	if i.tracking != nil {
		record := token.Token{
			ID:        uuid.NewString(),
			Value:     refreshToken,
			Kind:      token.KindRefresh,
			UserID:    u.ID,
			TenantID:  t.ID,
			CreatedAt: now,
			ExpiresAt: refreshExpiry,
		}
		if err := i.tracking.Create(ctx, record); err != nil {
			return nil, errx.Wrap(err, "failed to track refresh token", errx.TypeInternal)
		}
	}

	session.RefreshToken = refreshToken
	session.RefreshExpiresAt = &refreshExpiry
	return session, nil
}

// VerifyAccess checks signature, expiry and token use, and returns the
// claims of a valid access token.
func (i *Issuer) VerifyAccess(tokenString string, t *tenant.Tenant) (*Claims, error) {
	claims, err := i.parse(tokenString, t)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != TokenUseAccess {
		return nil, ErrInvalidToken().WithDetail("use", claims.TokenUse)
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token against the tenant and returns
// the subject user. Tenants without refresh reject every refresh token,
// including ones minted before the policy changed.
func (i *Issuer) VerifyRefresh(ctx context.Context, tokenString string, t *tenant.Tenant) (kernel.UserID, error) {
	if !t.RefreshEnabled() {
		return "", ErrRefreshDisabled()
	}

	claims, err := i.parse(tokenString, t)
	if err != nil {
		return "", err
	}
	if claims.TokenUse != TokenUseRefresh {
		return "", ErrInvalidToken().WithDetail("use", claims.TokenUse)
	}

	if i.tracking != nil {
		if _, err := i.tracking.FindByValue(ctx, tokenString); err != nil {
			if errx.IsType(err, errx.TypeNotFound) {
				return "", ErrRefreshRevoked()
			}
			return "", err
		}
	}

	return kernel.UserID(claims.Subject), nil
}

// RotateOut retires a consumed refresh token when tracking is enabled.
func (i *Issuer) RotateOut(ctx context.Context, tokenString string) error {
	if i.tracking == nil {
		return nil
	}
	return i.tracking.Delete(ctx, tokenString)
}

// Revoke invalidates every tracked refresh token held by the user. Without
// tracking, refresh tokens are stateless and simply age out.
func (i *Issuer) Revoke(ctx context.Context, userID kernel.UserID) error {
	if i.tracking == nil {
		return nil
	}
	return i.tracking.DeleteAllOfKind(ctx, token.KindRefresh, userID)
}

func (i *Issuer) sign(u *user.User, t *tenant.Tenant, use string, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		TenantID: t.ID.String(),
		Email:    u.Email,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.SigningKey))
	if err != nil {
		return "", errx.Wrap(err, "failed to sign session token", errx.TypeInternal)
	}
	return signed, nil
}

func (i *Issuer) parse(tokenString string, t *tenant.Tenant) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken().WithDetail("alg", tok.Header["alg"])
		}
		return []byte(t.SigningKey), nil
	}, jwt.WithIssuer(i.cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken()
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken()
	}

	// A token signed for one tenant must never verify under another, even
	// if both tenants were provisioned with the same signing key.
	if claims.TenantID != t.ID.String() {
		return nil, ErrInvalidToken()
	}
	return claims, nil
}
