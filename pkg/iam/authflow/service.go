package authflow

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/iam/password"
	"github.com/Abraxas-365/keygate/pkg/iam/session"
	"github.com/Abraxas-365/keygate/pkg/iam/tenant"
	"github.com/Abraxas-365/keygate/pkg/iam/token"
	"github.com/Abraxas-365/keygate/pkg/iam/user"
	"github.com/Abraxas-365/keygate/pkg/kernel"
	"github.com/Abraxas-365/keygate/pkg/logx"
	"github.com/google/uuid"
)

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid email or password")
	CodeSignupDisabled     = ErrRegistry.Register("SIGNUP_DISABLED", errx.TypeForbidden, http.StatusForbidden, "Signup is disabled for this tenant")
	CodeBootstrapDisabled  = ErrRegistry.Register("BOOTSTRAP_DISABLED", errx.TypeForbidden, http.StatusForbidden, "Owner bootstrap is disabled")
	CodeOwnerExists        = ErrRegistry.Register("OWNER_EXISTS", errx.TypeConflict, http.StatusConflict, "Platform owner already exists")
	CodePasswordRequired   = ErrRegistry.Register("PASSWORD_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "Password is required")
	CodeNotOwner           = ErrRegistry.Register("NOT_OWNER", errx.TypeForbidden, http.StatusForbidden, "Only the platform owner may do this")
)

func ErrInvalidCredentials() *errx.Error { return ErrRegistry.New(CodeInvalidCredentials) }
func ErrSignupDisabled() *errx.Error     { return ErrRegistry.New(CodeSignupDisabled) }
func ErrBootstrapDisabled() *errx.Error  { return ErrRegistry.New(CodeBootstrapDisabled) }
func ErrOwnerExists() *errx.Error        { return ErrRegistry.New(CodeOwnerExists) }
func ErrPasswordRequired() *errx.Error   { return ErrRegistry.New(CodePasswordRequired) }
func ErrNotOwner() *errx.Error           { return ErrRegistry.New(CodeNotOwner) }

// Config carries the flow-level knobs: token lifetimes, the bootstrap
// secret and the public base URL used in emailed links.
type Config struct {
	BootstrapSecret string
	BaseURL         string

	ConfirmTokenTTL time.Duration
	MagicTokenTTL   time.Duration
	ResetTokenTTL   time.Duration
	InviteTokenTTL  time.Duration

	// DefaultRefreshTTL seeds newly created tenants.
	DefaultRefreshTTL time.Duration

	// WelcomeDelay is how long after signup the welcome email goes out.
	WelcomeDelay time.Duration
}

// Service implements the authentication flows: signup, login, magic links,
// refresh rotation, password reset, email confirmation and invitations.
type Service struct {
	cfg       Config
	users     user.Repository
	tenants   tenant.Repository
	tokens    token.Repository
	hasher    *password.Hasher
	issuer    *session.Issuer
	validator *Validator
	mailer    Mailer
}

// NewService wires the flow service.
func NewService(
	cfg Config,
	users user.Repository,
	tenants tenant.Repository,
	tokens token.Repository,
	hasher *password.Hasher,
	issuer *session.Issuer,
	validator *Validator,
	mailer Mailer,
) *Service {
	return &Service{
		cfg:       cfg,
		users:     users,
		tenants:   tenants,
		tokens:    tokens,
		hasher:    hasher,
		issuer:    issuer,
		validator: validator,
		mailer:    mailer,
	}
}

// ResolveTenant maps a client-presented public key to its tenant.
func (s *Service) ResolveTenant(ctx context.Context, publicKey string) (*tenant.Tenant, error) {
	return s.tenants.FindByPublicKey(ctx, publicKey)
}

// --- Owner bootstrap and tenant provisioning ---

// OwnerSignupInput bootstraps the platform owner and their first tenant.
type OwnerSignupInput struct {
	Secret     string `json:"secret"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	TenantName string `json:"tenant_name"`
}

// OwnerSignupResult returns the provisioned tenant alongside the session so
// the caller learns the public key it must present from now on.
type OwnerSignupResult struct {
	User    *user.User       `json:"user"`
	Tenant  *tenant.Tenant   `json:"tenant"`
	Session *session.Session `json:"session"`
}

// SignupOwner provisions the singular platform owner. The endpoint is
// guarded by a deployment secret and refuses once an owner exists.
func (s *Service) SignupOwner(ctx context.Context, in OwnerSignupInput) (*OwnerSignupResult, error) {
	if s.cfg.BootstrapSecret == "" {
		return nil, ErrBootstrapDisabled()
	}
	if subtle.ConstantTimeCompare([]byte(in.Secret), []byte(s.cfg.BootstrapSecret)) != 1 {
		return nil, ErrInvalidCredentials()
	}
	if in.Password == "" {
		return nil, ErrPasswordRequired()
	}

	if _, err := s.users.FindOwner(ctx); err == nil {
		return nil, ErrOwnerExists()
	} else if !errx.IsType(err, errx.TypeNotFound) {
		return nil, err
	}

	tn, err := s.provisionTenant(ctx, in.TenantName, tenant.PolicyPassword, true)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	owner := user.User{
		ID:             kernel.NewUserID(uuid.NewString()),
		TenantID:       tn.ID,
		Email:          in.Email,
		FullName:       in.FullName,
		PasswordHash:   &hash,
		Active:         true,
		EmailConfirmed: true,
		Owner:          true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, owner); err != nil {
		return nil, err
	}
	if err := s.users.RecordSignIn(ctx, owner.ID, now); err != nil {
		return nil, err
	}

	sess, err := s.issuer.CreateSessionPair(ctx, &owner, tn)
	if err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{"tenant_id": tn.ID.String()}).Info("platform owner bootstrapped")
	return &OwnerSignupResult{User: &owner, Tenant: tn, Session: sess}, nil
}

// CreateTenantInput provisions a new tenant.
type CreateTenantInput struct {
	Name          string         `json:"name"`
	AuthPolicy    string         `json:"auth_policy"`
	SignupEnabled bool           `json:"signup_enabled"`
	RefreshTTL    *time.Duration `json:"refresh_ttl,omitempty"`
}

// CreateTenant provisions a tenant. Only the platform owner may call it.
func (s *Service) CreateTenant(ctx context.Context, caller kernel.AuthContext, in CreateTenantInput) (*tenant.Tenant, error) {
	u, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if !u.Owner {
		return nil, ErrNotOwner()
	}

	policy := tenant.AuthPolicy(in.AuthPolicy)
	if !policy.IsValid() {
		return nil, tenant.ErrInvalidPolicy().WithDetail("auth_policy", in.AuthPolicy)
	}

	tn, err := s.provisionTenant(ctx, in.Name, policy, in.SignupEnabled)
	if err != nil {
		return nil, err
	}
	if in.RefreshTTL != nil {
		tn.RefreshTTL = in.RefreshTTL
		if err := s.tenants.Save(ctx, *tn); err != nil {
			return nil, err
		}
	}
	return tn, nil
}

func (s *Service) provisionTenant(ctx context.Context, name string, policy tenant.AuthPolicy, signupEnabled bool) (*tenant.Tenant, error) {
	signingKey, err := token.NewOpaqueValue()
	if err != nil {
		return nil, err
	}

	refreshTTL := s.cfg.DefaultRefreshTTL
	now := time.Now().UTC()
	tn := tenant.Tenant{
		ID:            kernel.NewTenantID(uuid.NewString()),
		Name:          name,
		PublicKey:     "pk_" + uuid.NewString(),
		SigningKey:    signingKey,
		AuthPolicy:    policy,
		SignupEnabled: signupEnabled,
		RefreshTTL:    &refreshTTL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.tenants.Save(ctx, tn); err != nil {
		return nil, err
	}
	return &tn, nil
}

// --- Signup ---

// SignupInput registers a user in a tenant.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	FullName string `json:"full_name"`
}

// SignupResult is the outcome of a signup. Password tenants get a session
// right away; magic-link tenants get only an acknowledgement and sign in
// through the emailed link.
type SignupResult struct {
	User    *user.User       `json:"user"`
	Session *session.Session `json:"session,omitempty"`
}

// Signup registers a user per the tenant's auth policy. Duplicate emails
// surface as a conflict: signup is the one flow allowed to disclose that an
// email is registered.
func (s *Service) Signup(ctx context.Context, tn *tenant.Tenant, in SignupInput) (*SignupResult, error) {
	if !tn.SignupEnabled {
		return nil, ErrSignupDisabled()
	}

	switch tn.AuthPolicy {
	case tenant.PolicyPassword:
		return s.signupWithPassword(ctx, tn, in)
	case tenant.PolicyMagicLink:
		return s.signupWithMagicLink(ctx, tn, in)
	default:
		return nil, tenant.ErrInvalidPolicy().WithDetail("auth_policy", string(tn.AuthPolicy))
	}
}

func (s *Service) signupWithPassword(ctx context.Context, tn *tenant.Tenant, in SignupInput) (*SignupResult, error) {
	if in.Password == "" {
		return nil, ErrPasswordRequired()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.createUser(ctx, tn, in.Email, in.FullName, &hash, true)
	if err != nil {
		return nil, err
	}

	if err := s.issueAndSendToken(ctx, u, tn, token.KindConfirmEmail, s.cfg.ConfirmTokenTTL, TemplateConfirmEmail); err != nil {
		return nil, err
	}
	s.scheduleWelcome(ctx, u, tn)

	// The session is issued before the email is confirmed. Confirmation
	// gates nothing here; tenants that need gating check EmailConfirmed
	// themselves.
	sess, err := s.issuer.CreateSessionPair(ctx, u, tn)
	if err != nil {
		return nil, err
	}
	return &SignupResult{User: u, Session: sess}, nil
}

func (s *Service) signupWithMagicLink(ctx context.Context, tn *tenant.Tenant, in SignupInput) (*SignupResult, error) {
	u, err := s.createUser(ctx, tn, in.Email, in.FullName, nil, true)
	if err != nil {
		return nil, err
	}

	if err := s.issueAndSendToken(ctx, u, tn, token.KindMagicLogin, s.cfg.MagicTokenTTL, TemplateMagicLink); err != nil {
		return nil, err
	}
	s.scheduleWelcome(ctx, u, tn)

	return &SignupResult{User: u}, nil
}

func (s *Service) createUser(ctx context.Context, tn *tenant.Tenant, email, fullName string, passwordHash *string, active bool) (*user.User, error) {
	now := time.Now().UTC()
	u := user.User{
		ID:           kernel.NewUserID(uuid.NewString()),
		TenantID:     tn.ID,
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// --- Login ---

// LoginInput authenticates a user per the tenant's auth policy.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// LoginResult carries a session for password tenants. Magic-link tenants
// get MagicLinkSent instead; the session comes later from the link.
type LoginResult struct {
	Session       *session.Session `json:"session,omitempty"`
	MagicLinkSent bool             `json:"magic_link_sent,omitempty"`
}

// Login authenticates per tenant policy. For magic-link tenants an unknown
// email is acknowledged exactly like a known one.
func (s *Service) Login(ctx context.Context, tn *tenant.Tenant, in LoginInput) (*LoginResult, error) {
	switch tn.AuthPolicy {
	case tenant.PolicyPassword:
		u, err := s.validator.AuthenticateWithPassword(ctx, in.Email, in.Password, tn)
		if err != nil {
			return nil, err
		}
		if err := s.users.RecordSignIn(ctx, u.ID, time.Now().UTC()); err != nil {
			return nil, err
		}
		sess, err := s.issuer.CreateSessionPair(ctx, u, tn)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Session: sess}, nil

	case tenant.PolicyMagicLink:
		if err := s.requestMagicLink(ctx, tn, in.Email); err != nil {
			return nil, err
		}
		return &LoginResult{MagicLinkSent: true}, nil

	default:
		return nil, tenant.ErrInvalidPolicy().WithDetail("auth_policy", string(tn.AuthPolicy))
	}
}

func (s *Service) requestMagicLink(ctx context.Context, tn *tenant.Tenant, email string) error {
	u, err := s.users.FindByEmail(ctx, email, tn.ID)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			// Acknowledge without sending. The response must not reveal
			// whether the email is registered.
			return nil
		}
		return err
	}
	if !u.Active {
		return nil
	}
	return s.issueAndSendToken(ctx, u, tn, token.KindMagicLogin, s.cfg.MagicTokenTTL, TemplateMagicLink)
}

// ConsumeMagicLink exchanges a magic-login token for a session. A magic
// sign-in proves control of the inbox, so it also confirms the email.
func (s *Service) ConsumeMagicLink(ctx context.Context, tn *tenant.Tenant, value string) (*session.Session, error) {
	t, err := s.validator.ValidateToken(ctx, value, token.KindMagicLogin, tn)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, user.ErrUserInactive()
	}

	now := time.Now().UTC()
	if err := s.users.RecordSignIn(ctx, u.ID, now); err != nil {
		return nil, err
	}
	if !u.EmailConfirmed {
		if err := s.users.SetEmailConfirmed(ctx, u.ID); err != nil {
			return nil, err
		}
	}

	if err := s.tokens.Delete(ctx, t.Value); err != nil {
		return nil, err
	}
	return s.issuer.CreateSessionPair(ctx, u, tn)
}

// --- Session lifecycle ---

// Refresh rotates a refresh token into a fresh session pair.
func (s *Service) Refresh(ctx context.Context, tn *tenant.Tenant, refreshToken string) (*session.Session, error) {
	userID, err := s.issuer.VerifyRefresh(ctx, refreshToken, tn)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			return nil, session.ErrInvalidToken()
		}
		return nil, err
	}
	if !u.Active {
		return nil, user.ErrUserInactive()
	}

	if err := s.issuer.RotateOut(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issuer.CreateSessionPair(ctx, u, tn)
}

// Logout revokes the user's tracked refresh tokens. With stateless refresh
// this is a no-op server side; clients drop their tokens.
func (s *Service) Logout(ctx context.Context, userID kernel.UserID) error {
	return s.issuer.Revoke(ctx, userID)
}

// --- Password reset ---

// RequestPasswordReset issues a reset token and emails it. Unknown and
// inactive users are silently acknowledged.
func (s *Service) RequestPasswordReset(ctx context.Context, tn *tenant.Tenant, email string) error {
	u, err := s.users.FindByEmail(ctx, email, tn.ID)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			return nil
		}
		return err
	}
	if !u.Active {
		return nil
	}
	return s.issueAndSendToken(ctx, u, tn, token.KindResetPassword, s.cfg.ResetTokenTTL, TemplateResetPassword)
}

// ValidatePasswordReset peeks at a reset token so a client can check it
// before showing the new-password form. The token stays usable. The owning
// user must still be active.
func (s *Service) ValidatePasswordReset(ctx context.Context, tn *tenant.Tenant, value string) (*token.Token, error) {
	t, err := s.validator.ValidateToken(ctx, value, token.KindResetPassword, tn)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, user.ErrUserInactive()
	}
	return t, nil
}

// UpdatePassword consumes a reset token and sets the new password. The
// token is deleted even when the update fails: a failed attempt must not
// leave a live reset token behind.
func (s *Service) UpdatePassword(ctx context.Context, tn *tenant.Tenant, value, newPassword string) error {
	t, err := s.validator.ValidateToken(ctx, value, token.KindResetPassword, tn)
	if err != nil {
		return err
	}
	if newPassword == "" {
		return ErrPasswordRequired()
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	updateErr := s.users.UpdatePassword(ctx, t.UserID, hash)

	if err := s.tokens.Delete(ctx, t.Value); err != nil {
		logx.WithError(err).Error("failed to delete consumed reset token")
	}
	if updateErr != nil {
		return updateErr
	}

	// A password change ends existing refresh grants when tracking is on.
	return s.issuer.Revoke(ctx, t.UserID)
}

// --- Email confirmation and invitations ---

// ConfirmStatus is the outcome variant of ConfirmEmail.
type ConfirmStatus string

const (
	// ConfirmStatusConfirmed: the email is now confirmed.
	ConfirmStatusConfirmed ConfirmStatus = "confirmed"

	// ConfirmStatusResent: the token had expired; a fresh confirmation
	// email was sent and the stale token removed.
	ConfirmStatusResent ConfirmStatus = "confirmation_resent"
)

// ConfirmResult is the outcome of an email confirmation. Invited users who
// never signed in additionally receive a follow-up token so they can
// establish a way to sign in.
type ConfirmResult struct {
	Status ConfirmStatus `json:"status"`

	FollowUpKind  token.Kind `json:"follow_up_kind,omitempty"`
	FollowUpToken string     `json:"follow_up_token,omitempty"`
}

// ConfirmEmail consumes a confirm-email token, falling back to invite-user
// tokens so invitation links land on the same endpoint.
//
// An expired confirm-email token gets one retry: a fresh token is issued
// and emailed, and the stale one removed so the retry happens exactly once.
// Expired invitations are not retried.
func (s *Service) ConfirmEmail(ctx context.Context, tn *tenant.Tenant, value string) (*ConfirmResult, error) {
	t, err := s.validator.ValidateToken(ctx, value, token.KindConfirmEmail, tn)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			return s.confirmInvite(ctx, tn, value)
		}
		if errx.IsType(err, errx.TypeExpired) && t != nil {
			return s.resendConfirmation(ctx, tn, t)
		}
		return nil, err
	}

	if err := s.users.SetEmailConfirmed(ctx, t.UserID); err != nil {
		return nil, err
	}
	if err := s.tokens.Delete(ctx, t.Value); err != nil {
		return nil, err
	}
	return &ConfirmResult{Status: ConfirmStatusConfirmed}, nil
}

func (s *Service) resendConfirmation(ctx context.Context, tn *tenant.Tenant, stale *token.Token) (*ConfirmResult, error) {
	u, err := s.users.FindByID(ctx, stale.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.issueAndSendToken(ctx, u, tn, token.KindConfirmEmail, s.cfg.ConfirmTokenTTL, TemplateConfirmEmail); err != nil {
		return nil, err
	}
	if err := s.tokens.Delete(ctx, stale.Value); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{"user_id": u.ID.String()}).Info("expired confirmation retried")
	return &ConfirmResult{Status: ConfirmStatusResent}, nil
}

func (s *Service) confirmInvite(ctx context.Context, tn *tenant.Tenant, value string) (*ConfirmResult, error) {
	t, err := s.validator.ValidateToken(ctx, value, token.KindInviteUser, tn)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetEmailConfirmed(ctx, u.ID); err != nil {
		return nil, err
	}
	if err := s.tokens.Delete(ctx, t.Value); err != nil {
		return nil, err
	}

	result := &ConfirmResult{Status: ConfirmStatusConfirmed}
	if u.HasSignedIn() {
		return result, nil
	}

	// The invitee has no way to sign in yet. Hand back a follow-up token
	// in-band so the client can complete onboarding without another email
	// round trip.
	var followUp token.Kind
	var ttl time.Duration
	switch tn.AuthPolicy {
	case tenant.PolicyPassword:
		followUp, ttl = token.KindResetPassword, s.cfg.ResetTokenTTL
	case tenant.PolicyMagicLink:
		followUp, ttl = token.KindMagicLogin, s.cfg.MagicTokenTTL
	default:
		return nil, tenant.ErrInvalidPolicy().WithDetail("auth_policy", string(tn.AuthPolicy))
	}

	next, err := s.issueToken(ctx, u, tn, followUp, ttl)
	if err != nil {
		return nil, err
	}
	result.FollowUpKind = followUp
	result.FollowUpToken = next.Value
	return result, nil
}

// InviteInput invites a user into the caller's tenant.
type InviteInput struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// InviteUser creates an inactive user and emails an invitation token. The
// account activates when the invitation is accepted.
func (s *Service) InviteUser(ctx context.Context, tn *tenant.Tenant, in InviteInput) (*user.User, error) {
	u, err := s.createUser(ctx, tn, in.Email, in.FullName, nil, false)
	if err != nil {
		return nil, err
	}

	if err := s.issueAndSendToken(ctx, u, tn, token.KindInviteUser, s.cfg.InviteTokenTTL, TemplateInvite); err != nil {
		return nil, err
	}
	return u, nil
}

// --- Maintenance ---

// PurgeExpiredTokens removes ephemeral tokens that expired before now minus
// the retention window and returns how many were purged.
func (s *Service) PurgeExpiredTokens(ctx context.Context, retention time.Duration) (int64, error) {
	return s.tokens.DeleteExpired(ctx, time.Now().Add(-retention))
}

// --- Internals ---

// issueToken replaces any live tokens of the same kind before minting, so
// the newest token is the only valid one.
func (s *Service) issueToken(ctx context.Context, u *user.User, tn *tenant.Tenant, kind token.Kind, ttl time.Duration) (*token.Token, error) {
	if err := s.tokens.DeleteAllOfKind(ctx, kind, u.ID); err != nil {
		return nil, err
	}

	t, err := token.New(kind, u.ID, tn.ID, ttl)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, *t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) issueAndSendToken(ctx context.Context, u *user.User, tn *tenant.Tenant, kind token.Kind, ttl time.Duration, template string) error {
	t, err := s.issueToken(ctx, u, tn, kind, ttl)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, template, u.Email, map[string]interface{}{
		"Name":       u.FullName,
		"TenantName": tn.Name,
		"Link":       s.tokenLink(kind, t.Value),
		"TTL":        ttl.String(),
	})
}

func (s *Service) tokenLink(kind token.Kind, value string) string {
	switch kind {
	case token.KindMagicLogin:
		return fmt.Sprintf("%s/auth/magic/%s", s.cfg.BaseURL, value)
	case token.KindResetPassword:
		return fmt.Sprintf("%s/auth/reset-password/validate/%s", s.cfg.BaseURL, value)
	default:
		// Confirm and invite links land on the same endpoint.
		return fmt.Sprintf("%s/auth/confirm-email/%s", s.cfg.BaseURL, value)
	}
}

func (s *Service) scheduleWelcome(ctx context.Context, u *user.User, tn *tenant.Tenant) {
	err := s.mailer.SendDelayed(ctx, TemplateWelcome, u.Email, map[string]interface{}{
		"Name":       u.FullName,
		"TenantName": tn.Name,
	}, s.cfg.WelcomeDelay)
	if err != nil {
		// Welcome email is best effort; signup must not fail on it.
		logx.WithError(err).Warn("failed to schedule welcome email")
	}
}
