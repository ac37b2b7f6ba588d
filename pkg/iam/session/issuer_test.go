package session

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/iam/tenant"
	"github.com/Abraxas-365/keygate/pkg/iam/token"
	"github.com/Abraxas-365/keygate/pkg/iam/user"
	"github.com/Abraxas-365/keygate/pkg/kernel"
	"github.com/google/uuid"
)

func testConfig() Config {
	return Config{
		Issuer:            "keygate",
		AccessTTL:         15 * time.Minute,
		DefaultRefreshTTL: 7 * 24 * time.Hour,
	}
}

func testTenant(refreshTTL *time.Duration) *tenant.Tenant {
	return &tenant.Tenant{
		ID:         kernel.NewTenantID(uuid.NewString()),
		Name:       "acme",
		PublicKey:  "pk_" + uuid.NewString(),
		SigningKey: uuid.NewString(),
		AuthPolicy: tenant.PolicyPassword,
		RefreshTTL: refreshTTL,
	}
}

func testUser(tenantID kernel.TenantID) *user.User {
	return &user.User{
		ID:       kernel.NewUserID(uuid.NewString()),
		TenantID: tenantID,
		Email:    "jo@example.com",
		Active:   true,
	}
}

func TestCreateSessionPairWithRefresh(t *testing.T) {
	issuer := NewIssuer(testConfig())
	ttl := 24 * time.Hour
	tn := testTenant(&ttl)
	u := testUser(tn.ID)

	s, err := issuer.CreateSessionPair(context.Background(), u, tn)
	if err != nil {
		t.Fatalf("CreateSessionPair: %v", err)
	}
	if s.AccessToken == "" || s.RefreshToken == "" {
		t.Fatal("expected both access and refresh tokens")
	}
	if s.TokenType != "Bearer" {
		t.Errorf("token type = %q, want Bearer", s.TokenType)
	}

	claims, err := issuer.VerifyAccess(s.AccessToken, tn)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Subject != u.ID.String() {
		t.Errorf("subject = %s, want %s", claims.Subject, u.ID)
	}
	if claims.TenantID != tn.ID.String() {
		t.Errorf("tenant claim = %s, want %s", claims.TenantID, tn.ID)
	}

	userID, err := issuer.VerifyRefresh(context.Background(), s.RefreshToken, tn)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if userID != u.ID {
		t.Errorf("refresh subject = %s, want %s", userID, u.ID)
	}
}

func TestRefreshDisabledTenant(t *testing.T) {
	issuer := NewIssuer(testConfig())
	tn := testTenant(nil)
	u := testUser(tn.ID)

	s, err := issuer.CreateSessionPair(context.Background(), u, tn)
	if err != nil {
		t.Fatalf("CreateSessionPair: %v", err)
	}
	if s.RefreshToken != "" {
		t.Error("refresh-disabled tenant should not receive a refresh token")
	}

	// Even a well-formed refresh token minted while refresh was enabled
	// must fail once the tenant disables it.
	ttl := time.Hour
	enabled := *tn
	enabled.RefreshTTL = &ttl
	withRefresh, err := issuer.CreateSessionPair(context.Background(), u, &enabled)
	if err != nil {
		t.Fatalf("CreateSessionPair: %v", err)
	}

	_, err = issuer.VerifyRefresh(context.Background(), withRefresh.RefreshToken, tn)
	if !errx.IsType(err, errx.TypeAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestTokenUseIsEnforced(t *testing.T) {
	issuer := NewIssuer(testConfig())
	ttl := time.Hour
	tn := testTenant(&ttl)
	u := testUser(tn.ID)

	s, err := issuer.CreateSessionPair(context.Background(), u, tn)
	if err != nil {
		t.Fatalf("CreateSessionPair: %v", err)
	}

	if _, err := issuer.VerifyAccess(s.RefreshToken, tn); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := issuer.VerifyRefresh(context.Background(), s.AccessToken, tn); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestCrossTenantVerificationFails(t *testing.T) {
	issuer := NewIssuer(testConfig())
	tnA := testTenant(nil)
	tnB := testTenant(nil)
	u := testUser(tnA.ID)

	s, err := issuer.CreateSessionPair(context.Background(), u, tnA)
	if err != nil {
		t.Fatalf("CreateSessionPair: %v", err)
	}

	if _, err := issuer.VerifyAccess(s.AccessToken, tnB); err == nil {
		t.Error("token verified under a different tenant")
	}

	// Same signing key on both tenants still must not cross the boundary.
	tnB.SigningKey = tnA.SigningKey
	if _, err := issuer.VerifyAccess(s.AccessToken, tnB); err == nil {
		t.Error("token verified under a different tenant sharing the key")
	}
}

type fakeTokenRepo struct {
	byValue map[string]token.Token
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byValue: make(map[string]token.Token)}
}

func (f *fakeTokenRepo) Create(_ context.Context, t token.Token) error {
	f.byValue[t.Value] = t
	return nil
}

func (f *fakeTokenRepo) FindByValue(_ context.Context, value string) (*token.Token, error) {
	t, ok := f.byValue[value]
	if !ok {
		return nil, token.ErrTokenNotFound()
	}
	return &t, nil
}

func (f *fakeTokenRepo) Delete(_ context.Context, value string) error {
	delete(f.byValue, value)
	return nil
}

func (f *fakeTokenRepo) DeleteAllOfKind(_ context.Context, kind token.Kind, userID kernel.UserID) error {
	for v, t := range f.byValue {
		if t.Kind == kind && t.UserID == userID {
			delete(f.byValue, v)
		}
	}
	return nil
}

func (f *fakeTokenRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for v, t := range f.byValue {
		if t.ExpiresAt.Before(cutoff) {
			delete(f.byValue, v)
			n++
		}
	}
	return n, nil
}

func TestTrackedRefreshRevocation(t *testing.T) {
	repo := newFakeTokenRepo()
	issuer := NewTrackingIssuer(testConfig(), repo)
	ttl := time.Hour
	tn := testTenant(&ttl)
	u := testUser(tn.ID)
	ctx := context.Background()

	s, err := issuer.CreateSessionPair(ctx, u, tn)
	if err != nil {
		t.Fatalf("CreateSessionPair: %v", err)
	}

	if _, err := issuer.VerifyRefresh(ctx, s.RefreshToken, tn); err != nil {
		t.Fatalf("tracked refresh should verify: %v", err)
	}

	if err := issuer.Revoke(ctx, u.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	_, err = issuer.VerifyRefresh(ctx, s.RefreshToken, tn)
	if !errx.IsType(err, errx.TypeAuthorization) {
		t.Fatalf("revoked refresh token should be rejected, got %v", err)
	}
}

func TestRotateOutRetiresTrackedToken(t *testing.T) {
	repo := newFakeTokenRepo()
	issuer := NewTrackingIssuer(testConfig(), repo)
	ttl := time.Hour
	tn := testTenant(&ttl)
	u := testUser(tn.ID)
	ctx := context.Background()

	s, err := issuer.CreateSessionPair(ctx, u, tn)
	if err != nil {
		t.Fatalf("CreateSessionPair: %v", err)
	}

	if err := issuer.RotateOut(ctx, s.RefreshToken); err != nil {
		t.Fatalf("RotateOut: %v", err)
	}

	if _, err := issuer.VerifyRefresh(ctx, s.RefreshToken, tn); err == nil {
		t.Error("rotated-out refresh token should be rejected")
	}
}
