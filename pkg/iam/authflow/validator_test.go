package authflow

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/iam/password"
	"github.com/Abraxas-365/keygate/pkg/iam/tenant"
	"github.com/Abraxas-365/keygate/pkg/iam/token"
	"github.com/Abraxas-365/keygate/pkg/iam/user"
	"github.com/Abraxas-365/keygate/pkg/kernel"
	"github.com/google/uuid"
)

func newValidatorFixture(t *testing.T) (*Validator, *fakeUsers, *fakeTokens, *tenant.Tenant) {
	t.Helper()
	users := newFakeUsers()
	tokens := newFakeTokens()
	tn := &tenant.Tenant{
		ID:         kernel.NewTenantID(uuid.NewString()),
		Name:       "acme",
		AuthPolicy: tenant.PolicyPassword,
	}
	return NewValidator(users, tokens, password.NewHasher(4)), users, tokens, tn
}

func seedPasswordUser(t *testing.T, users *fakeUsers, tn *tenant.Tenant, email, plain string) *user.User {
	t.Helper()
	hash, err := password.NewHasher(4).Hash(plain)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	return users.add(user.User{
		ID:           kernel.NewUserID(uuid.NewString()),
		TenantID:     tn.ID,
		Email:        email,
		PasswordHash: &hash,
		Active:       true,
	})
}

func TestAuthenticateWithPassword(t *testing.T) {
	v, users, _, tn := newValidatorFixture(t)
	seedPasswordUser(t, users, tn, "jo@example.com", "hunter22")

	u, err := v.AuthenticateWithPassword(context.Background(), "jo@example.com", "hunter22", tn)
	if err != nil {
		t.Fatalf("valid credentials rejected: %v", err)
	}
	if u.Email != "jo@example.com" {
		t.Errorf("wrong user returned: %s", u.Email)
	}
}

func TestAuthenticateUniformFailure(t *testing.T) {
	v, users, _, tn := newValidatorFixture(t)
	seedPasswordUser(t, users, tn, "jo@example.com", "hunter22")

	_, unknownErr := v.AuthenticateWithPassword(context.Background(), "nobody@example.com", "hunter22", tn)
	_, wrongErr := v.AuthenticateWithPassword(context.Background(), "jo@example.com", "wrong", tn)

	var unknown, wrong *errx.Error
	if !errx.As(unknownErr, &unknown) || !errx.As(wrongErr, &wrong) {
		t.Fatalf("expected structured errors, got %v and %v", unknownErr, wrongErr)
	}
	// Unknown email and wrong password must be indistinguishable.
	if unknown.Code != wrong.Code {
		t.Errorf("error codes differ: %s vs %s", unknown.Code, wrong.Code)
	}
}

func TestAuthenticateInactiveUser(t *testing.T) {
	v, users, _, tn := newValidatorFixture(t)
	u := seedPasswordUser(t, users, tn, "jo@example.com", "hunter22")
	u.Active = false
	users.add(*u)

	_, err := v.AuthenticateWithPassword(context.Background(), "jo@example.com", "hunter22", tn)
	if !errx.IsType(err, errx.TypeForbidden) {
		t.Fatalf("inactive user should be forbidden, got %v", err)
	}
}

func TestValidateTokenPeeksWithoutConsuming(t *testing.T) {
	v, _, tokens, tn := newValidatorFixture(t)

	tok, err := token.New(token.KindResetPassword, kernel.NewUserID(uuid.NewString()), tn.ID, time.Hour)
	if err != nil {
		t.Fatalf("minting: %v", err)
	}
	if err := tokens.Create(context.Background(), *tok); err != nil {
		t.Fatalf("storing: %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := v.ValidateToken(context.Background(), tok.Value, token.KindResetPassword, tn)
		if err != nil {
			t.Fatalf("validation %d failed: %v", i+1, err)
		}
		if got.UserID != tok.UserID {
			t.Errorf("wrong token returned")
		}
	}
}

func TestValidateTokenKindMismatch(t *testing.T) {
	v, _, tokens, tn := newValidatorFixture(t)

	tok, _ := token.New(token.KindMagicLogin, kernel.NewUserID(uuid.NewString()), tn.ID, time.Hour)
	tokens.Create(context.Background(), *tok)

	_, err := v.ValidateToken(context.Background(), tok.Value, token.KindResetPassword, tn)
	if !errx.IsType(err, errx.TypeNotFound) {
		t.Fatalf("kind mismatch should be not-found, got %v", err)
	}
}

func TestValidateTokenCrossTenantFailsClosed(t *testing.T) {
	v, _, tokens, tn := newValidatorFixture(t)

	otherTenant := kernel.NewTenantID(uuid.NewString())
	tok, _ := token.New(token.KindMagicLogin, kernel.NewUserID(uuid.NewString()), otherTenant, time.Hour)
	tokens.Create(context.Background(), *tok)

	_, err := v.ValidateToken(context.Background(), tok.Value, token.KindMagicLogin, tn)
	if !errx.IsType(err, errx.TypeNotFound) {
		t.Fatalf("cross-tenant token should be not-found, got %v", err)
	}
}

func TestValidateTokenExpiredReturnsOwner(t *testing.T) {
	v, _, tokens, tn := newValidatorFixture(t)

	userID := kernel.NewUserID(uuid.NewString())
	tok, _ := token.New(token.KindConfirmEmail, userID, tn.ID, time.Hour)
	tokens.Create(context.Background(), *tok)
	tokens.expire(tok.Value)

	got, err := v.ValidateToken(context.Background(), tok.Value, token.KindConfirmEmail, tn)
	if !errx.IsType(err, errx.TypeExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
	if got == nil || got.UserID != userID {
		t.Fatal("expired validation should still return the token")
	}

	// Expired tokens are not consumed by validation.
	if _, err := tokens.FindByValue(context.Background(), tok.Value); err != nil {
		t.Error("expired token should remain in the store")
	}
}
