package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
	"github.com/redis/go-redis/v9"
)

const bannedTokenKeyPrefix = "banned_token:"

// RedisBannedTokenStore stores each revoked token under a key whose TTL is
// the token's remaining lifetime
type RedisBannedTokenStore struct {
	redis redis.UniversalClient
	now   func() time.Time
}

func NewRedisBannedTokenStore(client redis.UniversalClient) *RedisBannedTokenStore {
	return &RedisBannedTokenStore{redis: client, now: time.Now}
}

func bannedTokenKey(token models.Secret) string {
	return bannedTokenKeyPrefix + token.Expose()
}

// AddBannedToken is a no-op for a token that has already expired
func (s *RedisBannedTokenStore) AddBannedToken(ctx context.Context, token models.Secret, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, bannedTokenKey(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to ban token: %w", err)
	}
	return nil
}

func (s *RedisBannedTokenStore) IsBanned(ctx context.Context, token models.Secret) (bool, error) {
	n, err := s.redis.Exists(ctx, bannedTokenKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check banned token: %w", err)
	}
	return n > 0, nil
}
