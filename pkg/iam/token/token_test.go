package token

import (
	"testing"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/kernel"
	"github.com/google/uuid"
)

func TestNewMintsUniqueValues(t *testing.T) {
	userID := kernel.NewUserID(uuid.NewString())
	tenantID := kernel.NewTenantID(uuid.NewString())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := New(KindConfirmEmail, userID, tenantID, time.Hour)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		if tok.Value == "" {
			t.Fatal("token value is empty")
		}
		if seen[tok.Value] {
			t.Fatalf("duplicate token value generated: %s", tok.Value)
		}
		seen[tok.Value] = true
	}
}

func TestNewValueIsURLSafe(t *testing.T) {
	tok, err := New(KindMagicLogin, kernel.NewUserID(uuid.NewString()), kernel.NewTenantID(uuid.NewString()), time.Hour)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	for _, c := range tok.Value {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			t.Fatalf("token value contains non URL-safe character %q", c)
		}
	}
}

func TestIsExpired(t *testing.T) {
	tok, err := New(KindResetPassword, kernel.NewUserID(uuid.NewString()), kernel.NewTenantID(uuid.NewString()), time.Hour)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if tok.IsExpired() {
		t.Error("fresh token reported as expired")
	}

	tok.ExpiresAt = time.Now().Add(-time.Minute)
	if !tok.IsExpired() {
		t.Error("past-TTL token not reported as expired")
	}
}

func TestErrTokenExpiredCarriesOwner(t *testing.T) {
	userID := kernel.NewUserID(uuid.NewString())
	tenantID := kernel.NewTenantID(uuid.NewString())

	err := ErrTokenExpired(userID, tenantID)
	if !errx.IsType(err, errx.TypeExpired) {
		t.Fatalf("expected TypeExpired, got %v", err.Type)
	}
	if got, ok := err.Detail("user_id"); !ok || got != userID.String() {
		t.Errorf("user_id detail = %v, want %s", got, userID.String())
	}
	if got, ok := err.Detail("tenant_id"); !ok || got != tenantID.String() {
		t.Errorf("tenant_id detail = %v, want %s", got, tenantID.String())
	}
}
