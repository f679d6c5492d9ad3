package cache

import (
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/anycrm/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore picks the store backend for the deployment. With
// Redis disabled it returns the in-memory store; with Redis enabled it
// connects and falls back to in-memory when the connection fails, since
// a lost idempotency window only risks a duplicate webhook being
// processed twice.
func NewIdempotencyStore(cfg config.RedisConfig, log *zap.Logger) shared.IdempotencyStore {
	if log == nil {
		log = zap.NewNop()
	}

	if !cfg.Enabled {
		log.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore()
	}

	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
			"Duplicate webhook deliveries may be processed twice across instances.",
			zap.Error(err))
		return NewInMemoryIdempotencyStore()
	}

	log.Info("using Redis idempotency store")
	return store
}
