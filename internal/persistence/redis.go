package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/paramstore"
)

const redisPingTimeout = 3 * time.Second

// Redis holds the client and key namespace for the redis parameter backend.
type Redis struct {
	Client *redis.Client
	prefix string
}

// NewRedis connects to Redis. An unreachable server is logged, not fatal:
// parameter reads fail later with their own errors.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	r := &Redis{Client: client, prefix: KeyPrefix(cfg.KeyPrefix)}

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.String("prefix", r.prefix))
	}
	return r
}

// KeyPrefix normalises a configured namespace so parameter names hang off a
// single ":" separator. An empty prefix stays empty.
func KeyPrefix(prefix string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		return ""
	}
	return prefix + ":"
}

// Prefix returns the normalised key namespace.
func (r *Redis) Prefix() string {
	return r.prefix
}

// ParamStore exposes the connection as a parameter store. sealer may be nil.
func (r *Redis) ParamStore(sealer *paramstore.Sealer) *paramstore.RedisStore {
	return paramstore.NewRedisStore(r.Client, r.prefix, sealer)
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
