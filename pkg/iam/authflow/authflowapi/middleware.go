package authflowapi

import (
	"strings"

	"github.com/Abraxas-365/keygate/pkg/iam"
	"github.com/Abraxas-365/keygate/pkg/iam/authflow"
	"github.com/Abraxas-365/keygate/pkg/iam/session"
	"github.com/Abraxas-365/keygate/pkg/iam/tenant"
	"github.com/Abraxas-365/keygate/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

const (
	// TenantKeyHeader carries the tenant's public key on every request.
	TenantKeyHeader = "X-Tenant-Key"

	tenantLocal = "tenant"
	authLocal   = "auth_context"
)

// Middleware resolves tenants and validates session tokens for protected
// routes.
type Middleware struct {
	svc    *authflow.Service
	issuer *session.Issuer
}

// NewMiddleware creates the middleware set.
func NewMiddleware(svc *authflow.Service, issuer *session.Issuer) *Middleware {
	return &Middleware{svc: svc, issuer: issuer}
}

// RequireTenant resolves the X-Tenant-Key header into a tenant and stores
// it in the request locals.
func (m *Middleware) RequireTenant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		publicKey := c.Get(TenantKeyHeader)
		if publicKey == "" {
			return iam.ErrUnauthorized().WithDetail("reason", "missing tenant key")
		}

		tn, err := m.svc.ResolveTenant(c.Context(), publicKey)
		if err != nil {
			return iam.ErrUnauthorized().WithDetail("reason", "unknown tenant key")
		}

		c.Locals(tenantLocal, tn)
		return c.Next()
	}
}

// RequireSession validates the bearer access token against the resolved
// tenant and stores the authenticated identity in the request locals. It
// must run after RequireTenant.
func (m *Middleware) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tn := TenantFromCtx(c)
		if tn == nil {
			return iam.ErrUnauthorized().WithDetail("reason", "missing tenant context")
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			return iam.ErrUnauthorized().WithDetail("reason", "missing bearer token")
		}

		claims, err := m.issuer.VerifyAccess(tokenString, tn)
		if err != nil {
			return err
		}

		c.Locals(authLocal, &kernel.AuthContext{
			UserID:   kernel.NewUserID(claims.Subject),
			TenantID: tn.ID,
			Email:    claims.Email,
		})
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// TenantFromCtx returns the tenant resolved by RequireTenant, or nil.
func TenantFromCtx(c *fiber.Ctx) *tenant.Tenant {
	tn, _ := c.Locals(tenantLocal).(*tenant.Tenant)
	return tn
}

// AuthFromCtx returns the identity stored by RequireSession, or nil.
func AuthFromCtx(c *fiber.Ctx) *kernel.AuthContext {
	ac, _ := c.Locals(authLocal).(*kernel.AuthContext)
	return ac
}
