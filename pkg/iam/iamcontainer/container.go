package iamcontainer

import (
	"context"
	"time"

	"github.com/Abraxas-365/keygate/pkg/config"
	"github.com/Abraxas-365/keygate/pkg/iam/authflow"
	"github.com/Abraxas-365/keygate/pkg/iam/authflow/authflowapi"
	"github.com/Abraxas-365/keygate/pkg/iam/password"
	"github.com/Abraxas-365/keygate/pkg/iam/session"
	"github.com/Abraxas-365/keygate/pkg/iam/tenant/tenantinfra"
	"github.com/Abraxas-365/keygate/pkg/iam/token"
	"github.com/Abraxas-365/keygate/pkg/iam/token/tokeninfra"
	"github.com/Abraxas-365/keygate/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/keygate/pkg/jobx"
	"github.com/Abraxas-365/keygate/pkg/logx"
	"github.com/Abraxas-365/keygate/pkg/notifx"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state — everything comes through here.
// ---------------------------------------------------------------------------

type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Cfg   *config.Config

	// Notifier is injected so the IAM module has zero knowledge of which
	// email provider is behind it.
	Notifier *notifx.Client

	// Jobs carries the queue client used for deferred email delivery.
	Jobs *jobx.Client
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// Only expose what cmd/ actually needs; repos stay private.
// ---------------------------------------------------------------------------

type Container struct {
	AuthService *authflow.Service
	Issuer      *session.Issuer

	// Handlers and middleware — needed by cmd/ to register routes.
	AuthHandlers *authflowapi.Handlers
	Middleware   *authflowapi.Middleware
}

// New constructs the IAM dependency graph.
// Order matters: repos → services → handlers → middleware.
func New(deps Deps) *Container {
	logx.Info("🔧 Initializing IAM container...")

	c := &Container{}

	// ── Repositories ─────────────────────────────────────────────────────

	tenantRepo := tenantinfra.NewPostgresTenantRepository(deps.DB)
	userRepo := userinfra.NewPostgresUserRepository(deps.DB)

	var tokenRepo token.Repository
	if deps.Cfg.Auth.TokenStore == "redis" {
		tokenRepo = tokeninfra.NewRedisTokenRepository(deps.Redis)
		logx.Info("  ✅ Using Redis token store")
	} else {
		tokenRepo = tokeninfra.NewPostgresTokenRepository(deps.DB)
		logx.Info("  ✅ Using Postgres token store")
	}

	// ── Infrastructure services ──────────────────────────────────────────

	hasher := password.NewHasher(deps.Cfg.Auth.BcryptCost)

	issuerCfg := session.Config{
		Issuer:            deps.Cfg.Auth.Issuer,
		AccessTTL:         deps.Cfg.Auth.AccessTokenTTL,
		DefaultRefreshTTL: deps.Cfg.Auth.DefaultRefreshTTL,
	}
	if deps.Cfg.Auth.TrackRefreshTokens {
		c.Issuer = session.NewTrackingIssuer(issuerCfg, tokenRepo)
		logx.Info("  ✅ Refresh token tracking enabled")
	} else {
		c.Issuer = session.NewIssuer(issuerCfg)
	}

	mailer, err := authflow.NewNotifxMailer(deps.Notifier, deps.Jobs, deps.Cfg.Notifx.FromAddress)
	if err != nil {
		logx.Fatalf("Failed to initialize auth mailer: %v", err)
	}
	authflow.RegisterEmailJobHandler(deps.Jobs, mailer)

	// ── Domain services ──────────────────────────────────────────────────

	validator := authflow.NewValidator(userRepo, tokenRepo, hasher)

	welcomeDelay, err := time.ParseDuration(deps.Cfg.Notifx.WelcomeDelay)
	if err != nil {
		welcomeDelay = 10 * time.Minute
	}

	c.AuthService = authflow.NewService(
		authflow.Config{
			BootstrapSecret:   deps.Cfg.Auth.BootstrapSecret,
			BaseURL:           deps.Cfg.Server.BaseURL,
			ConfirmTokenTTL:   deps.Cfg.Auth.ConfirmTokenTTL,
			MagicTokenTTL:     deps.Cfg.Auth.MagicTokenTTL,
			ResetTokenTTL:     deps.Cfg.Auth.ResetTokenTTL,
			InviteTokenTTL:    deps.Cfg.Auth.InviteTokenTTL,
			DefaultRefreshTTL: deps.Cfg.Auth.DefaultRefreshTTL,
			WelcomeDelay:      welcomeDelay,
		},
		userRepo,
		tenantRepo,
		tokenRepo,
		hasher,
		c.Issuer,
		validator,
		mailer,
	)

	// ── Handlers and middleware ──────────────────────────────────────────

	c.Middleware = authflowapi.NewMiddleware(c.AuthService, c.Issuer)
	c.AuthHandlers = authflowapi.NewHandlers(c.AuthService, c.Middleware)

	logx.Info("✅ IAM container initialized")
	return c
}

// StartTokenCleanup runs the expired-token purge on the configured interval
// until ctx is cancelled. Expired tokens are kept one interval past expiry
// so the confirmation retry path can still resolve them.
func (c *Container) StartTokenCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.AuthService.PurgeExpiredTokens(ctx, interval)
			if err != nil {
				logx.WithError(err).Warn("token cleanup failed")
				continue
			}
			if n > 0 {
				logx.Infof("token cleanup removed %d expired tokens", n)
			}
		}
	}
}
