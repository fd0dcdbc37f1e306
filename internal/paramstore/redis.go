package paramstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrSealingUnavailable is returned when a secure value is written to a
// Redis store constructed without an age identity.
var ErrSealingUnavailable = errors.New("secure parameters require an age identity")

// RedisStore keeps parameters as plain Redis strings under a key prefix.
// Secure values are age-sealed before they are written.
type RedisStore struct {
	client *redis.Client
	prefix string
	sealer *Sealer
}

// NewRedisStore wraps a client. sealer may be nil, in which case secure
// writes fail.
func NewRedisStore(client *redis.Client, prefix string, sealer *Sealer) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, sealer: sealer}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) Get(ctx context.Context, name string) (string, error) {
	stored, err := s.client.Get(ctx, s.key(name)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", name, err)
	}
	if !IsSealed(stored) {
		return stored, nil
	}
	if s.sealer == nil {
		return "", fmt.Errorf("redis get %s: %w", name, ErrSealingUnavailable)
	}
	return s.sealer.Open(stored)
}

func (s *RedisStore) Put(ctx context.Context, name, value string, secure bool) error {
	stored := value
	if secure {
		if s.sealer == nil {
			return fmt.Errorf("redis put %s: %w", name, ErrSealingUnavailable)
		}
		sealed, err := s.sealer.Seal(value)
		if err != nil {
			return fmt.Errorf("redis put %s: %w", name, err)
		}
		stored = sealed
	}
	if err := s.client.Set(ctx, s.key(name), stored, 0).Err(); err != nil {
		return fmt.Errorf("redis put %s: %w", name, err)
	}
	return nil
}
