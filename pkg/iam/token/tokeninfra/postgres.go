package tokeninfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/iam/token"
	"github.com/Abraxas-365/keygate/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// PostgresTokenRepository is the PostgreSQL implementation of
// token.Repository.
type PostgresTokenRepository struct {
	db *sqlx.DB
}

// NewPostgresTokenRepository creates a new repository instance.
func NewPostgresTokenRepository(db *sqlx.DB) token.Repository {
	return &PostgresTokenRepository{db: db}
}

// Create stores a freshly minted token.
func (r *PostgresTokenRepository) Create(ctx context.Context, t token.Token) error {
	query := `
		INSERT INTO ephemeral_tokens (
			id, value, kind, user_id, tenant_id, created_at, expires_at
		) VALUES (
			:id, :value, :kind, :user_id, :tenant_id, :created_at, :expires_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, t)
	if err != nil {
		return errx.Wrap(err, "failed to create token", errx.TypeInternal).
			WithDetail("kind", string(t.Kind))
	}
	return nil
}

// FindByValue returns the token with the exact value, expired or not.
func (r *PostgresTokenRepository) FindByValue(ctx context.Context, value string) (*token.Token, error) {
	var t token.Token
	query := `SELECT * FROM ephemeral_tokens WHERE value = $1`
	err := r.db.GetContext(ctx, &t, query, value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, token.ErrTokenNotFound()
		}
		return nil, errx.Wrap(err, "failed to find token", errx.TypeInternal)
	}
	return &t, nil
}

// Delete removes a token by value. No rows affected is fine: a concurrent
// consumer may have deleted it first.
func (r *PostgresTokenRepository) Delete(ctx context.Context, value string) error {
	query := `DELETE FROM ephemeral_tokens WHERE value = $1`
	_, err := r.db.ExecContext(ctx, query, value)
	if err != nil {
		return errx.Wrap(err, "failed to delete token", errx.TypeInternal)
	}
	return nil
}

// DeleteAllOfKind removes every token of one kind held by a user.
func (r *PostgresTokenRepository) DeleteAllOfKind(ctx context.Context, kind token.Kind, userID kernel.UserID) error {
	query := `DELETE FROM ephemeral_tokens WHERE kind = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, string(kind), userID.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete tokens by kind", errx.TypeInternal).
			WithDetail("kind", string(kind)).
			WithDetail("user_id", userID.String())
	}
	return nil
}

// DeleteExpired purges tokens that expired before the cutoff.
func (r *PostgresTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM ephemeral_tokens WHERE expires_at < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, errx.Wrap(err, "failed to delete expired tokens", errx.TypeInternal)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errx.Wrap(err, "failed to count deleted tokens", errx.TypeInternal)
	}
	return n, nil
}
