package tenantinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/iam/tenant"
	"github.com/Abraxas-365/keygate/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresTenantRepository is the PostgreSQL implementation of
// tenant.Repository.
type PostgresTenantRepository struct {
	db *sqlx.DB
}

// NewPostgresTenantRepository creates a new repository instance.
func NewPostgresTenantRepository(db *sqlx.DB) tenant.Repository {
	return &PostgresTenantRepository{db: db}
}

// FindByPublicKey looks up a tenant by the key its clients present.
func (r *PostgresTenantRepository) FindByPublicKey(ctx context.Context, publicKey string) (*tenant.Tenant, error) {
	var row tenantPersistence
	query := `SELECT * FROM tenants WHERE public_key = $1`
	err := r.db.GetContext(ctx, &row, query, publicKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, tenant.ErrTenantNotFound()
		}
		return nil, errx.Wrap(err, "failed to find tenant by public key", errx.TypeInternal)
	}
	t := toDomain(row)
	return &t, nil
}

// FindByID looks up a tenant by internal ID.
func (r *PostgresTenantRepository) FindByID(ctx context.Context, id kernel.TenantID) (*tenant.Tenant, error) {
	var row tenantPersistence
	query := `SELECT * FROM tenants WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, tenant.ErrTenantNotFound()
		}
		return nil, errx.Wrap(err, "failed to find tenant by ID", errx.TypeInternal).
			WithDetail("tenant_id", id.String())
	}
	t := toDomain(row)
	return &t, nil
}

// Save inserts or updates a tenant.
func (r *PostgresTenantRepository) Save(ctx context.Context, t tenant.Tenant) error {
	query := `
		INSERT INTO tenants (
			id, name, public_key, signing_key, auth_policy,
			signup_enabled, refresh_ttl_seconds, created_at, updated_at
		) VALUES (
			:id, :name, :public_key, :signing_key, :auth_policy,
			:signup_enabled, :refresh_ttl_seconds, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			auth_policy = EXCLUDED.auth_policy,
			signup_enabled = EXCLUDED.signup_enabled,
			refresh_ttl_seconds = EXCLUDED.refresh_ttl_seconds,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, toPersistence(t))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return tenant.ErrTenantExists().WithDetail("public_key", t.PublicKey)
		}
		return errx.Wrap(err, "failed to save tenant", errx.TypeInternal).
			WithDetail("tenant_id", t.ID.String())
	}
	return nil
}

// tenantPersistence maps DB-specific types for the tenants table.
type tenantPersistence struct {
	ID                kernel.TenantID   `db:"id"`
	Name              string            `db:"name"`
	PublicKey         string            `db:"public_key"`
	SigningKey        string            `db:"signing_key"`
	AuthPolicy        tenant.AuthPolicy `db:"auth_policy"`
	SignupEnabled     bool              `db:"signup_enabled"`
	RefreshTTLSeconds sql.NullInt64     `db:"refresh_ttl_seconds"`
	CreatedAt         time.Time         `db:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at"`
}

func toPersistence(t tenant.Tenant) tenantPersistence {
	p := tenantPersistence{
		ID:            t.ID,
		Name:          t.Name,
		PublicKey:     t.PublicKey,
		SigningKey:    t.SigningKey,
		AuthPolicy:    t.AuthPolicy,
		SignupEnabled: t.SignupEnabled,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.RefreshTTL != nil {
		p.RefreshTTLSeconds = sql.NullInt64{Int64: int64(t.RefreshTTL.Seconds()), Valid: true}
	}
	return p
}

func toDomain(p tenantPersistence) tenant.Tenant {
	t := tenant.Tenant{
		ID:            p.ID,
		Name:          p.Name,
		PublicKey:     p.PublicKey,
		SigningKey:    p.SigningKey,
		AuthPolicy:    p.AuthPolicy,
		SignupEnabled: p.SignupEnabled,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.RefreshTTLSeconds.Valid {
		ttl := time.Duration(p.RefreshTTLSeconds.Int64) * time.Second
		t.RefreshTTL = &ttl
	}
	return t
}
