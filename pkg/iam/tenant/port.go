package tenant

import (
	"context"

	"github.com/Abraxas-365/keygate/pkg/kernel"
)

// Repository defines the contract for tenant persistence.
type Repository interface {
	// FindByPublicKey resolves the tenant a client application presents
	// itself as. Unknown keys return CodeNotFound.
	FindByPublicKey(ctx context.Context, publicKey string) (*Tenant, error)

	// FindByID looks up a tenant by its internal ID.
	FindByID(ctx context.Context, id kernel.TenantID) (*Tenant, error)

	// Save inserts or updates a tenant.
	Save(ctx context.Context, t Tenant) error
}
