package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore remembers refresh tokens that have been used and must not be accepted again.
// Revoke reports whether this call was the first to revoke jti; concurrent
// callers with the same jti see true exactly once.
type TokenStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) (bool, error)
}

const revokedKeyPrefix = "auth:revoked:"

// RedisTokenStore keeps revoked token ids in Redis until the token would have expired anyway.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Revoke(ctx context.Context, jti string, until time.Time) (bool, error) {
	ttl := time.Until(until)
	if ttl <= 0 {
		return false, nil
	}
	first, err := s.client.SetNX(ctx, revokedKeyPrefix+jti, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("revoke token %s: %w", jti, err)
	}
	return first, nil
}

// NopTokenStore never remembers anything, so every refresh token is accepted
// until it expires. Used when Redis is not configured.
type NopTokenStore struct{}

func (NopTokenStore) Revoke(context.Context, string, time.Time) (bool, error) { return true, nil }
