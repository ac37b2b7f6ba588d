package authflowapi

import (
	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/iam"
	"github.com/Abraxas-365/keygate/pkg/iam/authflow"
	"github.com/gofiber/fiber/v2"
)

// Handlers exposes the authentication flows over HTTP.
type Handlers struct {
	svc *authflow.Service
	mw  *Middleware
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(svc *authflow.Service, mw *Middleware) *Handlers {
	return &Handlers{svc: svc, mw: mw}
}

// RegisterRoutes mounts the auth endpoints. All routes except the owner
// bootstrap require the X-Tenant-Key header.
func (h *Handlers) RegisterRoutes(app fiber.Router) {
	auth := app.Group("/auth")

	auth.Post("/signup/owner", h.signupOwner)

	tenanted := auth.Group("", h.mw.RequireTenant())
	tenanted.Post("/signup", h.signup)
	tenanted.Post("/login", h.login)

	// The magic link arrives as a GET from the email client; POST serves
	// API clients that relay the token themselves.
	tenanted.Get("/magic/:token", h.consumeMagicLink)
	tenanted.Post("/magic/:token", h.consumeMagicLink)

	tenanted.Post("/refresh", h.refresh)

	tenanted.Post("/reset-password/request", h.requestPasswordReset)
	tenanted.Get("/reset-password/validate/:token", h.validatePasswordReset)
	tenanted.Patch("/reset-password", h.updatePassword)

	tenanted.Get("/confirm-email/:token", h.confirmEmail)

	protected := tenanted.Group("", h.mw.RequireSession())
	protected.Post("/logout", h.logout)
	protected.Post("/invite", h.invite)
	protected.Post("/tenants", h.createTenant)
}

func (h *Handlers) signupOwner(c *fiber.Ctx) error {
	var in authflow.OwnerSignupInput
	if err := c.BodyParser(&in); err != nil {
		return errx.Validation("Invalid request body")
	}

	result, err := h.svc.SignupOwner(c.Context(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *Handlers) createTenant(c *fiber.Ctx) error {
	ac := AuthFromCtx(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var in authflow.CreateTenantInput
	if err := c.BodyParser(&in); err != nil {
		return errx.Validation("Invalid request body")
	}

	tn, err := h.svc.CreateTenant(c.Context(), *ac, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tn)
}

func (h *Handlers) signup(c *fiber.Ctx) error {
	tn := TenantFromCtx(c)

	var in authflow.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return errx.Validation("Invalid request body")
	}

	result, err := h.svc.Signup(c.Context(), tn, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *Handlers) login(c *fiber.Ctx) error {
	tn := TenantFromCtx(c)

	var in authflow.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return errx.Validation("Invalid request body")
	}

	result, err := h.svc.Login(c.Context(), tn, in)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handlers) consumeMagicLink(c *fiber.Ctx) error {
	tn := TenantFromCtx(c)

	sess, err := h.svc.ConsumeMagicLink(c.Context(), tn, c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handlers) refresh(c *fiber.Ctx) error {
	tn := TenantFromCtx(c)

	var in refreshRequest
	if err := c.BodyParser(&in); err != nil {
		return errx.Validation("Invalid request body")
	}

	sess, err := h.svc.Refresh(c.Context(), tn, in.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

func (h *Handlers) logout(c *fiber.Ctx) error {
	ac := AuthFromCtx(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	if err := h.svc.Logout(c.Context(), ac.UserID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type resetRequest struct {
	Email string `json:"email"`
}

func (h *Handlers) requestPasswordReset(c *fiber.Ctx) error {
	tn := TenantFromCtx(c)

	var in resetRequest
	if err := c.BodyParser(&in); err != nil {
		return errx.Validation("Invalid request body")
	}

	if err := h.svc.RequestPasswordReset(c.Context(), tn, in.Email); err != nil {
		return err
	}
	// Always acknowledged, registered email or not.
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *Handlers) validatePasswordReset(c *fiber.Ctx) error {
	tn := TenantFromCtx(c)

	t, err := h.svc.ValidatePasswordReset(c.Context(), tn, c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"valid": true, "expires_at": t.ExpiresAt})
}

type updatePasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handlers) updatePassword(c *fiber.Ctx) error {
	tn := TenantFromCtx(c)

	var in updatePasswordRequest
	if err := c.BodyParser(&in); err != nil {
		return errx.Validation("Invalid request body")
	}

	if err := h.svc.UpdatePassword(c.Context(), tn, in.Token, in.Password); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) confirmEmail(c *fiber.Ctx) error {
	tn := TenantFromCtx(c)

	result, err := h.svc.ConfirmEmail(c.Context(), tn, c.Params("token"))
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if result.Status == authflow.ConfirmStatusResent {
		// The link is gone, but a new one is on its way.
		status = fiber.StatusGone
	}
	return c.Status(status).JSON(result)
}

func (h *Handlers) invite(c *fiber.Ctx) error {
	tn := TenantFromCtx(c)

	var in authflow.InviteInput
	if err := c.BodyParser(&in); err != nil {
		return errx.Validation("Invalid request body")
	}

	u, err := h.svc.InviteUser(c.Context(), tn, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}
