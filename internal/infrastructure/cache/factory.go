package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/config"
)

// NewIdempotencyStore creates an idempotency store based on configuration.
// When Redis is enabled it is tried first; on failure the store degrades to
// in-memory with a warning. In-memory state is per-process, so replicas may
// each accept one copy of the same submission.
func NewIdempotencyStore(cfg config.RedisConfig, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Enabled {
		logger.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
			zap.Error(err))
		return NewInMemoryIdempotencyStore(), nil
	}

	logger.Info("using Redis idempotency store", zap.String("addr", cfg.Addr()))
	return store, nil
}

// RequireRedisIdempotencyStore creates a Redis store or fails. For
// deployments where a shared replay guard is mandatory.
func RequireRedisIdempotencyStore(cfg config.RedisConfig) (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}
	return store, nil
}
