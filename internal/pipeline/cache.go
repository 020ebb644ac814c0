package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"trade-eda/internal/domain"
	"trade-eda/internal/logger"
	"trade-eda/internal/observability"
	"trade-eda/internal/storage"
)

// DefaultCacheEntries bounds a cache created with a non-positive size.
const DefaultCacheEntries = 16

// Cache memoizes derived datasets by content fingerprint.
// At most one computation per fingerprint is in flight; concurrent callers
// for the same fingerprint wait for it and share the result. When the cache
// is full the oldest inserted dataset is evicted.
type Cache struct {
	store      storage.DatasetStore
	group      singleflight.Group
	maxEntries int
	logger     *zap.Logger

	mu sync.Mutex // serializes insert and eviction
}

// NewCache creates a cache over store holding at most maxEntries datasets.
func NewCache(store storage.DatasetStore, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &Cache{
		store:      store,
		maxEntries: maxEntries,
		logger:     zap.NewNop(),
	}
}

// WithLogger sets the logger.
func (c *Cache) WithLogger(l *zap.Logger) *Cache {
	c.logger = logger.OrNop(l)
	return c
}

// Get returns the cached dataset for id. Returns storage.ErrNotFound when
// the dataset is not cached.
func (c *Cache) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	return c.store.GetByID(ctx, id)
}

type flightResult struct {
	ds       *domain.Dataset
	computed bool
}

// GetOrCompute returns the dataset cached under id, running compute to
// produce it on a miss. hit reports whether the dataset was served without
// running compute in this call's flight.
func (c *Cache) GetOrCompute(ctx context.Context, id string, compute func() (*domain.Dataset, error)) (ds *domain.Dataset, hit bool, err error) {
	if ds, err := c.lookup(ctx, id); err != nil || ds != nil {
		if ds != nil {
			observability.RecordCacheHit()
		}
		return ds, ds != nil, err
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		// A flight for id may have completed between lookup and Do.
		if ds, err := c.lookup(ctx, id); err != nil || ds != nil {
			return flightResult{ds: ds}, err
		}

		observability.RecordCacheMiss()
		ds, err := compute()
		if err != nil {
			return nil, err
		}
		if ds.ID != id {
			return nil, fmt.Errorf("%w: computed dataset id %q, want %q", storage.ErrInvalidInput, ds.ID, id)
		}
		if err := c.insert(ctx, ds); err != nil {
			return nil, err
		}
		return flightResult{ds: ds, computed: true}, nil
	})
	if err != nil {
		return nil, false, err
	}

	res := v.(flightResult)
	if !res.computed {
		observability.RecordCacheHit()
	}
	return res.ds, !res.computed, nil
}

// Invalidate drops the dataset cached under id. Reports whether it was cached.
func (c *Cache) Invalidate(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("invalidate dataset %s: %w", id, err)
	}

	observability.RecordCacheEviction()
	c.updateSize(ctx)
	c.logger.Debug("dataset invalidated", zap.String("dataset_id", id))
	return true, nil
}

// Len returns the number of cached datasets.
func (c *Cache) Len(ctx context.Context) int {
	ids, err := c.store.IDs(ctx)
	if err != nil {
		return 0
	}
	return len(ids)
}

// lookup returns (nil, nil) on a miss.
func (c *Cache) lookup(ctx context.Context, id string) (*domain.Dataset, error) {
	ds, err := c.store.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup dataset %s: %w", id, err)
	}
	return ds, nil
}

func (c *Cache) insert(ctx context.Context, ds *domain.Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Insert(ctx, ds); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("cache dataset %s: %w", ds.ID, err)
	}

	ids, err := c.store.IDs(ctx)
	if err != nil {
		return fmt.Errorf("list cached datasets: %w", err)
	}
	for len(ids) > c.maxEntries {
		oldest := ids[0]
		ids = ids[1:]
		if oldest == ds.ID {
			continue
		}
		if err := c.store.Delete(ctx, oldest); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("evict dataset %s: %w", oldest, err)
		}
		observability.RecordCacheEviction()
		c.logger.Debug("dataset evicted", zap.String("dataset_id", oldest))
	}

	c.updateSize(ctx)
	return nil
}

func (c *Cache) updateSize(ctx context.Context) {
	if ids, err := c.store.IDs(ctx); err == nil {
		observability.UpdateCachedDatasets(len(ids))
	}
}
