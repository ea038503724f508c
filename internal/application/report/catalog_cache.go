package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// FetchFunc performs a full remote fetch of one catalog
type FetchFunc func(ctx context.Context) ([]json.RawMessage, error)

// CatalogCache serves catalog collections from snapshots, fetching and
// saving them only on a miss. Snapshots are never revalidated; Invalidate is
// the only way to drop one.
type CatalogCache struct {
	store  sales.SnapshotStore
	logger *zap.Logger
}

// NewCatalogCache creates a cache over store
func NewCatalogCache(store sales.SnapshotStore, logger *zap.Logger) *CatalogCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogCache{
		store:  store,
		logger: logger.Named("catalog_cache"),
	}
}

// GetOrLoad returns the snapshot for name, or calls fetch and saves its
// result when there is none. A corrupt snapshot counts as a miss. Fetch
// errors propagate and nothing is saved.
func (c *CatalogCache) GetOrLoad(ctx context.Context, name string, fetch FetchFunc) ([]json.RawMessage, error) {
	records, hit, err := c.load(ctx, name)
	if err != nil {
		c.logger.Warn("discarding catalog snapshot",
			zap.String("catalog", name),
			zap.Error(err),
		)
	}
	if hit {
		c.logger.Debug("catalog snapshot hit",
			zap.String("catalog", name),
			zap.Int("records", len(records)),
		)
		return records, nil
	}

	records, err = fetch(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []json.RawMessage{}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode catalog %s: %w", name, err)
	}
	if err := c.store.Save(ctx, name, data); err != nil {
		c.logger.Warn("failed to save catalog snapshot",
			zap.String("catalog", name),
			zap.Error(err),
		)
	} else {
		c.logger.Info("catalog snapshot saved",
			zap.String("catalog", name),
			zap.Int("records", len(records)),
		)
	}
	return records, nil
}

// Invalidate deletes the snapshots for names
func (c *CatalogCache) Invalidate(ctx context.Context, names ...string) error {
	var errs []error
	for _, name := range names {
		if err := c.store.Delete(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("invalidate catalog %s: %w", name, err))
			continue
		}
		c.logger.Info("catalog snapshot invalidated", zap.String("catalog", name))
	}
	return errors.Join(errs...)
}

// load reads and decodes a snapshot. Any read or decode failure is reported
// as ErrCacheCorrupted with hit=false.
func (c *CatalogCache) load(ctx context.Context, name string) ([]json.RawMessage, bool, error) {
	data, ok, err := c.store.Load(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", sales.ErrCacheCorrupted, name, err)
	}
	if !ok {
		return nil, false, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", sales.ErrCacheCorrupted, name, err)
	}
	if records == nil {
		return nil, false, fmt.Errorf("%w: %s: snapshot is not an array", sales.ErrCacheCorrupted, name)
	}
	return records, true, nil
}
