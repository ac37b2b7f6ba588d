package config

import "time"

// AuthConfig configures the token lifecycle engine: session signing defaults,
// ephemeral token lifetimes and the owner bootstrap secret.
type AuthConfig struct {
	// BootstrapSecret guards the one-time platform owner signup. Empty
	// disables the endpoint entirely.
	BootstrapSecret string

	// Issuer is the `iss` claim stamped on every signed session token.
	Issuer string

	// AccessTokenTTL is the lifetime of access tokens for all tenants.
	AccessTokenTTL time.Duration

	// DefaultRefreshTTL seeds the refresh lifetime of newly created tenants.
	// Individual tenants may override or disable refresh.
	DefaultRefreshTTL time.Duration

	// Ephemeral token lifetimes, per kind.
	ConfirmTokenTTL time.Duration
	MagicTokenTTL   time.Duration
	ResetTokenTTL   time.Duration
	InviteTokenTTL  time.Duration

	// TokenStore selects the ephemeral token backend: "postgres" or "redis".
	TokenStore string

	// TrackRefreshTokens records issued refresh tokens in the token store so
	// logout can revoke them. Off by default: the minimal core rotates
	// refresh tokens statelessly.
	TrackRefreshTokens bool

	// BcryptCost is the password hashing cost factor.
	BcryptCost int

	// CleanupInterval is how often expired ephemeral tokens are purged.
	CleanupInterval time.Duration
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		BootstrapSecret:    getEnv("AUTH_BOOTSTRAP_SECRET", ""),
		Issuer:             getEnv("AUTH_ISSUER", "keygate"),
		AccessTokenTTL:     getEnvDuration("AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		DefaultRefreshTTL:  getEnvDuration("AUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		ConfirmTokenTTL:    getEnvDuration("AUTH_CONFIRM_TOKEN_TTL", 48*time.Hour),
		MagicTokenTTL:      getEnvDuration("AUTH_MAGIC_TOKEN_TTL", 15*time.Minute),
		ResetTokenTTL:      getEnvDuration("AUTH_RESET_TOKEN_TTL", time.Hour),
		InviteTokenTTL:     getEnvDuration("AUTH_INVITE_TOKEN_TTL", 7*24*time.Hour),
		TokenStore:         getEnv("AUTH_TOKEN_STORE", "postgres"),
		TrackRefreshTokens: getEnvBool("AUTH_TRACK_REFRESH_TOKENS", false),
		BcryptCost:         getEnvInt("AUTH_BCRYPT_COST", 12),
		CleanupInterval:    getEnvDuration("AUTH_CLEANUP_INTERVAL", 24*time.Hour),
	}
}
