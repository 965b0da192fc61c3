package cache

import (
	"fmt"
	"time"

	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SelectionStoreFactory picks a selection store based on configuration
type SelectionStoreFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
	dial                  func(config.RedisConfig) (*redis.Client, error)
}

// SelectionStoreFactoryOption is a functional option for configuring the factory
type SelectionStoreFactoryOption func(*SelectionStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SelectionStoreFactoryOption {
	return func(f *SelectionStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) SelectionStoreFactoryOption {
	return func(f *SelectionStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSelectionStoreFactory creates a new factory
func NewSelectionStoreFactory(cfg config.RedisConfig, ttl time.Duration, opts ...SelectionStoreFactoryOption) *SelectionStoreFactory {
	f := &SelectionStoreFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		dial:                  NewRedisClient,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore returns a Redis store when Redis is enabled and reachable,
// otherwise an in-memory store if fallback is allowed. The returned close
// function releases whatever the store holds.
func (f *SelectionStoreFactory) CreateStore() (checkout.SelectionStore, func() error, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory selection store")
		mem := NewInMemorySelectionStore(f.ttl)
		return mem, mem.Close, nil
	}

	client, err := f.dial(f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis selection store", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisSelectionStore(client, f.ttl), client.Close, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("redis required for selection store but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory selection store. "+
		"Selections will not be shared across instances.",
		zap.Error(err),
	)
	mem := NewInMemorySelectionStore(f.ttl)
	return mem, mem.Close, nil
}
