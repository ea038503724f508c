package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/config"
)

// SnapshotStoreFactory creates catalog snapshot stores based on configuration
type SnapshotStoreFactory struct {
	cacheConfig       config.CacheConfig
	redisConfig       config.RedisConfig
	logger            *zap.Logger
	allowFileFallback bool
}

// SnapshotStoreFactoryOption is a functional option for configuring the factory
type SnapshotStoreFactoryOption func(*SnapshotStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SnapshotStoreFactoryOption {
	return func(f *SnapshotStoreFactory) {
		f.logger = logger
	}
}

// WithFileFallback controls whether to fall back to the file store when Redis is unavailable
// Default is true (allow fallback)
func WithFileFallback(allow bool) SnapshotStoreFactoryOption {
	return func(f *SnapshotStoreFactory) {
		f.allowFileFallback = allow
	}
}

// NewSnapshotStoreFactory creates a new factory
func NewSnapshotStoreFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...SnapshotStoreFactoryOption) *SnapshotStoreFactory {
	f := &SnapshotStoreFactory{
		cacheConfig:       cacheCfg,
		redisConfig:       redisCfg,
		logger:            zap.NewNop(),
		allowFileFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based snapshot store
func (f *SnapshotStoreFactory) CreateRedisStore() (*RedisSnapshotStore, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	store, err := NewRedisSnapshotStore(redisCfg, f.cacheConfig.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis snapshot store: %w", err)
	}

	return store, nil
}

// CreateFileStore creates a file-based snapshot store under the cache directory
func (f *SnapshotStoreFactory) CreateFileStore() (*FileSnapshotStore, error) {
	return NewFileSnapshotStore(f.cacheConfig.Dir)
}

// CreateStore creates the store named by cache.backend
// A redis backend falls back to the file store when Redis is unreachable
// and fallback is allowed
func (f *SnapshotStoreFactory) CreateStore() (sales.SnapshotStore, error) {
	switch f.cacheConfig.Backend {
	case "memory":
		f.logger.Info("using in-memory catalog snapshots")
		return NewInMemorySnapshotStore(), nil
	case "redis":
		store, err := f.CreateRedisStore()
		if err == nil {
			f.logger.Info("using Redis catalog snapshots")
			return store, nil
		}

		if !f.allowFileFallback {
			return nil, fmt.Errorf("Redis required for catalog snapshots but unavailable: %w", err)
		}

		f.logger.Warn("Redis unavailable, falling back to file catalog snapshots. "+
			"Snapshots will not be shared with other operators.",
			zap.Error(err),
		)
		return f.CreateFileStore()
	case "", "file":
		f.logger.Info("using file catalog snapshots", zap.String("dir", f.cacheConfig.Dir))
		return f.CreateFileStore()
	default:
		return nil, fmt.Errorf("unknown cache backend %q", f.cacheConfig.Backend)
	}
}
