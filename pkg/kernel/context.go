package kernel

// AuthContext is the authenticated identity injected into each request once
// the session middleware has validated the access token.
type AuthContext struct {
	UserID   UserID   `json:"user_id"`
	TenantID TenantID `json:"tenant_id"`
	Email    string   `json:"email"`
}

// IsValid reports whether the context identifies a user within a tenant.
func (ac *AuthContext) IsValid() bool {
	return !ac.UserID.IsEmpty() && !ac.TenantID.IsEmpty()
}

// ContextKey is the type for values stored in request contexts.
type ContextKey string

const (
	// AuthContextKey stores the *AuthContext for the current request.
	AuthContextKey ContextKey = "auth_context"

	// RequestIDKey stores the request correlation ID.
	RequestIDKey ContextKey = "request_id"
)
