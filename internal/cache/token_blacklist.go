package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// TokenBlacklist stores revoked token IDs until their natural expiry so
// logged-out tokens stop working before the JWT itself expires.
type TokenBlacklist struct {
	client *redisv9.Client
}

func NewTokenBlacklist(client *redisv9.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set token blacklist failed: %w", err)
	}
	return nil
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check token blacklist failed: %w", err)
	}
	return exists > 0, nil
}

func (b *TokenBlacklist) key(tokenID string) string {
	return fmt.Sprintf("auth:blacklist:%s", tokenID)
}
