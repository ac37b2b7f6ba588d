package authflow

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/keygate/pkg/iam/tenant"
	"github.com/Abraxas-365/keygate/pkg/iam/token"
	"github.com/Abraxas-365/keygate/pkg/iam/user"
	"github.com/Abraxas-365/keygate/pkg/kernel"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[kernel.UserID]*user.User

	failUpdatePassword bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[kernel.UserID]*user.User)}
}

func (f *fakeUsers) add(u user.User) *user.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := u
	f.byID[u.ID] = &copied
	return &copied
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string, tenantID kernel.TenantID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email && u.TenantID == tenantID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (f *fakeUsers) FindByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound()
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) FindOwner(_ context.Context) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Owner {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (f *fakeUsers) Create(_ context.Context, u user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email && existing.TenantID == u.TenantID {
			return user.ErrEmailTaken()
		}
	}
	copied := u
	f.byID[u.ID] = &copied
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id kernel.UserID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdatePassword {
		return user.ErrUserNotFound()
	}
	u, ok := f.byID[id]
	if !ok {
		return user.ErrUserNotFound()
	}
	u.PasswordHash = &passwordHash
	return nil
}

func (f *fakeUsers) SetEmailConfirmed(_ context.Context, id kernel.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return user.ErrUserNotFound()
	}
	u.EmailConfirmed = true
	u.Active = true
	return nil
}

func (f *fakeUsers) RecordSignIn(_ context.Context, id kernel.UserID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return user.ErrUserNotFound()
	}
	u.LastSignInAt = &at
	return nil
}

type fakeTenants struct {
	mu          sync.Mutex
	byID        map[kernel.TenantID]*tenant.Tenant
	byPublicKey map[string]*tenant.Tenant
}

func newFakeTenants() *fakeTenants {
	return &fakeTenants{
		byID:        make(map[kernel.TenantID]*tenant.Tenant),
		byPublicKey: make(map[string]*tenant.Tenant),
	}
}

func (f *fakeTenants) FindByPublicKey(_ context.Context, publicKey string) (*tenant.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tn, ok := f.byPublicKey[publicKey]
	if !ok {
		return nil, tenant.ErrTenantNotFound()
	}
	copied := *tn
	return &copied, nil
}

func (f *fakeTenants) FindByID(_ context.Context, id kernel.TenantID) (*tenant.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tn, ok := f.byID[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound()
	}
	copied := *tn
	return &copied, nil
}

func (f *fakeTenants) Save(_ context.Context, tn tenant.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := tn
	f.byID[tn.ID] = &copied
	f.byPublicKey[tn.PublicKey] = &copied
	return nil
}

type fakeTokens struct {
	mu      sync.Mutex
	byValue map[string]token.Token
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byValue: make(map[string]token.Token)}
}

func (f *fakeTokens) Create(_ context.Context, t token.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byValue[t.Value] = t
	return nil
}

func (f *fakeTokens) FindByValue(_ context.Context, value string) (*token.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byValue[value]
	if !ok {
		return nil, token.ErrTokenNotFound()
	}
	return &t, nil
}

func (f *fakeTokens) Delete(_ context.Context, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byValue, value)
	return nil
}

func (f *fakeTokens) DeleteAllOfKind(_ context.Context, kind token.Kind, userID kernel.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for v, t := range f.byValue {
		if t.Kind == kind && t.UserID == userID {
			delete(f.byValue, v)
		}
	}
	return nil
}

func (f *fakeTokens) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for v, t := range f.byValue {
		if t.ExpiresAt.Before(cutoff) {
			delete(f.byValue, v)
			n++
		}
	}
	return n, nil
}

// ofKind returns the tokens of one kind for a user, newest arbitrary order.
func (f *fakeTokens) ofKind(kind token.Kind, userID kernel.UserID) []token.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []token.Token
	for _, t := range f.byValue {
		if t.Kind == kind && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// expire backdates a stored token's expiry.
func (f *fakeTokens) expire(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byValue[value]
	if !ok {
		return
	}
	t.ExpiresAt = time.Now().Add(-time.Hour)
	f.byValue[value] = t
}

type sentEmail struct {
	Template string
	To       string
	Data     map[string]interface{}
	Delay    time.Duration
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentEmail
	delayed []sentEmail
}

func (f *fakeMailer) Send(_ context.Context, template, to string, data map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{Template: template, To: to, Data: data})
	return nil
}

func (f *fakeMailer) SendDelayed(_ context.Context, template, to string, data map[string]interface{}, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delayed = append(f.delayed, sentEmail{Template: template, To: to, Data: data, Delay: delay})
	return nil
}

func (f *fakeMailer) lastSent() *sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	last := f.sent[len(f.sent)-1]
	return &last
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
