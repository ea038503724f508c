package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// DefaultSnapshotKeyPrefix namespaces catalog snapshots in Redis
const DefaultSnapshotKeyPrefix = "salesreport:catalog:"

// RedisSnapshotStore implements SnapshotStore using Redis
// This lets several operators share one set of catalog snapshots. Keys never
// expire; they are removed only through Delete.
type RedisSnapshotStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSnapshotStore connects to Redis and verifies the connection
func NewRedisSnapshotStore(cfg RedisConfig, keyPrefix string) (*RedisSnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSnapshotStoreWithClient(client, keyPrefix), nil
}

// NewRedisSnapshotStoreWithClient creates a store with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisSnapshotStoreWithClient(client *redis.Client, keyPrefix string) *RedisSnapshotStore {
	if keyPrefix == "" {
		keyPrefix = DefaultSnapshotKeyPrefix
	}
	return &RedisSnapshotStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Load returns the snapshot for key
func (s *RedisSnapshotStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}
	return data, true, nil
}

// Save stores the snapshot without expiry
func (s *RedisSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", key, err)
	}
	return nil
}

// Delete removes the snapshot for key
func (s *RedisSnapshotStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}

// Ensure RedisSnapshotStore implements SnapshotStore
var _ sales.SnapshotStore = (*RedisSnapshotStore)(nil)
