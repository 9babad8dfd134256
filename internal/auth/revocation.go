package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "taskhub:revoked:"

// RevocationStore remembers logged-out token ids until their expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationStore keeps the denylist in Redis with per-key expiry.
type RedisRevocationStore struct {
	client redis.Cmdable
	now    func() time.Time
}

var _ RevocationStore = (*RedisRevocationStore)(nil)

// NewRedisRevocationStore builds a store on client.
func NewRedisRevocationStore(client redis.Cmdable) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, now: time.Now}
}

// Revoke stores tokenID until the given time. Already expired ids are skipped.
func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err()
}

// IsRevoked reports whether tokenID is denylisted.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
