package tokeninfra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/keygate/pkg/errx"
	"github.com/Abraxas-365/keygate/pkg/iam/token"
	"github.com/Abraxas-365/keygate/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix   = "token:value:"
	tokenIndexPrefix = "token:user:"

	// expiryGrace keeps expired tokens queryable after their TTL so flows
	// can still resolve them to a user (the confirm-email resend path
	// needs the expired token, not a miss). Redis evicts them after the
	// grace window even if no flow ever deletes them.
	expiryGrace = 72 * time.Hour
)

// RedisTokenRepository is the Redis implementation of token.Repository.
type RedisTokenRepository struct {
	client *redis.Client
}

// NewRedisTokenRepository creates a new repository instance.
func NewRedisTokenRepository(client *redis.Client) token.Repository {
	return &RedisTokenRepository{client: client}
}

func tokenKey(value string) string {
	return tokenKeyPrefix + value
}

func indexKey(userID kernel.UserID, kind token.Kind) string {
	return fmt.Sprintf("%s%s:%s", tokenIndexPrefix, userID.String(), kind)
}

// Create stores the token as JSON and indexes it under (user, kind).
func (r *RedisTokenRepository) Create(ctx context.Context, t token.Token) error {
	data, err := json.Marshal(t)
	if err != nil {
		return errx.Wrap(err, "failed to marshal token", errx.TypeInternal)
	}

	retention := time.Until(t.ExpiresAt) + expiryGrace
	idx := indexKey(t.UserID, t.Kind)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, tokenKey(t.Value), data, retention)
	pipe.SAdd(ctx, idx, t.Value)
	pipe.Expire(ctx, idx, retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return errx.Wrap(err, "failed to store token", errx.TypeInternal).
			WithDetail("kind", string(t.Kind))
	}
	return nil
}

// FindByValue returns the token with the exact value, expired or not.
func (r *RedisTokenRepository) FindByValue(ctx context.Context, value string) (*token.Token, error) {
	data, err := r.client.Get(ctx, tokenKey(value)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, token.ErrTokenNotFound()
		}
		return nil, errx.Wrap(err, "failed to fetch token", errx.TypeInternal)
	}

	var t token.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errx.Wrap(err, "failed to unmarshal token", errx.TypeInternal)
	}
	return &t, nil
}

// Delete removes a token by value. Missing tokens are not an error.
func (r *RedisTokenRepository) Delete(ctx context.Context, value string) error {
	t, err := r.FindByValue(ctx, value)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			return nil
		}
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, tokenKey(value))
	pipe.SRem(ctx, indexKey(t.UserID, t.Kind), value)
	if _, err := pipe.Exec(ctx); err != nil {
		return errx.Wrap(err, "failed to delete token", errx.TypeInternal)
	}
	return nil
}

// DeleteAllOfKind removes every token of one kind held by a user.
func (r *RedisTokenRepository) DeleteAllOfKind(ctx context.Context, kind token.Kind, userID kernel.UserID) error {
	idx := indexKey(userID, kind)
	values, err := r.client.SMembers(ctx, idx).Result()
	if err != nil {
		return errx.Wrap(err, "failed to list tokens by kind", errx.TypeInternal).
			WithDetail("kind", string(kind))
	}
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values)+1)
	for _, v := range values {
		keys = append(keys, tokenKey(v))
	}
	keys = append(keys, idx)

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return errx.Wrap(err, "failed to delete tokens by kind", errx.TypeInternal).
			WithDetail("kind", string(kind)).
			WithDetail("user_id", userID.String())
	}
	return nil
}

// DeleteExpired purges tokens that expired before the cutoff. Redis already
// evicts tokens past their grace window; this walks the keyspace to reclaim
// the ones inside it.
func (r *RedisTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	iter := r.client.Scan(ctx, 0, tokenKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return deleted, errx.Wrap(err, "failed to fetch token during cleanup", errx.TypeInternal)
		}

		var t token.Token
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		if !t.ExpiresAt.Before(cutoff) {
			continue
		}

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, key)
		pipe.SRem(ctx, indexKey(t.UserID, t.Kind), t.Value)
		if _, err := pipe.Exec(ctx); err != nil {
			return deleted, errx.Wrap(err, "failed to delete expired token", errx.TypeInternal)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, errx.Wrap(err, "failed to scan tokens", errx.TypeInternal)
	}
	return deleted, nil
}
