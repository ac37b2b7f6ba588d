package userinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/iam/user"
	"github.com/Abraxas-365/keygate/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresUserRepository is the PostgreSQL implementation of user.Repository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository creates a new repository instance.
func NewPostgresUserRepository(db *sqlx.DB) user.Repository {
	return &PostgresUserRepository{db: db}
}

// FindByEmail looks up a user by (email, tenant).
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string, tenantID kernel.TenantID) (*user.User, error) {
	var row userPersistence
	query := `SELECT * FROM users WHERE email = $1 AND tenant_id = $2`
	err := r.db.GetContext(ctx, &row, query, email, tenantID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user by email", errx.TypeInternal)
	}
	u := toDomain(row)
	return &u, nil
}

// FindByID looks up a user by ID.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	var row userPersistence
	query := `SELECT * FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user by ID", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	u := toDomain(row)
	return &u, nil
}

// FindOwner returns the platform owner user, if one exists.
func (r *PostgresUserRepository) FindOwner(ctx context.Context) (*user.User, error) {
	var row userPersistence
	query := `SELECT * FROM users WHERE owner = true LIMIT 1`
	err := r.db.GetContext(ctx, &row, query)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find owner user", errx.TypeInternal)
	}
	u := toDomain(row)
	return &u, nil
}

// Create inserts a new user.
func (r *PostgresUserRepository) Create(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (
			id, tenant_id, email, full_name, password_hash,
			active, email_confirmed, owner, last_sign_in_at, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :email, :full_name, :password_hash,
			:active, :email_confirmed, :owner, :last_sign_in_at, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, toPersistence(u))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return user.ErrEmailTaken().WithDetail("email", u.Email)
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id kernel.UserID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, passwordHash, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to update password", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	return requireRowsAffected(result, "update password")
}

// SetEmailConfirmed marks the email confirmed and activates the account.
func (r *PostgresUserRepository) SetEmailConfirmed(ctx context.Context, id kernel.UserID) error {
	query := `UPDATE users SET email_confirmed = true, active = true, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to confirm email", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	return requireRowsAffected(result, "confirm email")
}

// RecordSignIn stamps the last successful authentication.
func (r *PostgresUserRepository) RecordSignIn(ctx context.Context, id kernel.UserID, at time.Time) error {
	query := `UPDATE users SET last_sign_in_at = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to record sign-in", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	return requireRowsAffected(result, "record sign-in")
}

func requireRowsAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errx.Wrapf(err, errx.TypeInternal, "failed to get rows affected on %s", op)
	}
	if n == 0 {
		return user.ErrUserNotFound()
	}
	return nil
}

// userPersistence maps DB-specific types for the users table.
type userPersistence struct {
	ID             kernel.UserID   `db:"id"`
	TenantID       kernel.TenantID `db:"tenant_id"`
	Email          string          `db:"email"`
	FullName       string          `db:"full_name"`
	PasswordHash   sql.NullString  `db:"password_hash"`
	Active         bool            `db:"active"`
	EmailConfirmed bool            `db:"email_confirmed"`
	Owner          bool            `db:"owner"`
	LastSignInAt   *time.Time      `db:"last_sign_in_at"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func toPersistence(u user.User) userPersistence {
	p := userPersistence{
		ID:             u.ID,
		TenantID:       u.TenantID,
		Email:          u.Email,
		FullName:       u.FullName,
		Active:         u.Active,
		EmailConfirmed: u.EmailConfirmed,
		Owner:          u.Owner,
		LastSignInAt:   u.LastSignInAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if u.PasswordHash != nil {
		p.PasswordHash = sql.NullString{String: *u.PasswordHash, Valid: true}
	}
	return p
}

func toDomain(p userPersistence) user.User {
	u := user.User{
		ID:             p.ID,
		TenantID:       p.TenantID,
		Email:          p.Email,
		FullName:       p.FullName,
		Active:         p.Active,
		EmailConfirmed: p.EmailConfirmed,
		Owner:          p.Owner,
		LastSignInAt:   p.LastSignInAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.PasswordHash.Valid {
		hash := p.PasswordHash.String
		u.PasswordHash = &hash
	}
	return u
}
