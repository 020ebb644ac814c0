package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"trade-eda/internal/domain"
	"trade-eda/internal/idhash"
	"trade-eda/internal/ingestion"
	"trade-eda/internal/logger"
	"trade-eda/internal/normalization"
	"trade-eda/internal/observability"
)

// Loader turns a source into a memoized derived dataset.
//
// Every Load reads the source and fingerprints the raw table. An unchanged
// fingerprint is served from the cache without normalizing again. When a
// source's fingerprint changes, the dataset cached for its previous
// fingerprint is invalidated.
type Loader struct {
	cache  *Cache
	logger *zap.Logger

	mu   sync.Mutex
	last map[string]string // source name -> last fingerprint
}

// NewLoader creates a loader backed by cache.
func NewLoader(cache *Cache, l *zap.Logger) *Loader {
	return &Loader{
		cache:  cache,
		logger: logger.OrNop(l),
		last:   make(map[string]string),
	}
}

// Cache returns the loader's dataset cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Load reads src and returns its normalized and derived dataset.
// Returns ingestion.ErrNoData when the source yields no rows and
// ingestion.ErrInvalidTable when it is not a well-formed table.
func (l *Loader) Load(ctx context.Context, src ingestion.Source) (*domain.Dataset, error) {
	name := src.Name()

	start := time.Now()
	raw, err := src.Read(ctx)
	elapsed := time.Since(start).Seconds()
	observability.RecordSourceRead(SourceKind(name), elapsed, err)
	observability.RecordStage("read", elapsed)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if len(raw.Rows) == 0 {
		return nil, fmt.Errorf("load %s: %w: table has no rows", name, ingestion.ErrNoData)
	}

	id := idhash.ComputeDatasetID(raw.Columns, raw.Rows)
	ds, hit, err := l.cache.GetOrCompute(ctx, id, func() (*domain.Dataset, error) {
		return l.compute(name, raw)
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	if hit {
		l.logger.Debug("dataset cache hit",
			zap.String("source", name),
			zap.String("dataset_id", id))
	}

	l.remember(ctx, name, id)
	return ds, nil
}

func (l *Loader) compute(name string, raw *ingestion.RawTable) (*domain.Dataset, error) {
	start := time.Now()
	normalized, err := normalization.Normalize(raw)
	if err != nil {
		return nil, err
	}
	normalized.Source = name
	observability.RecordStage("normalize", time.Since(start).Seconds())

	start = time.Now()
	ds := normalization.Derive(normalized)
	observability.RecordStage("derive", time.Since(start).Seconds())

	q := ds.Quality
	observability.RecordDatasetLoaded(ds.Len(), q.Unparseable, q.NegativeDurations)

	l.logger.Info("dataset loaded",
		zap.String("source", name),
		zap.String("dataset_id", ds.ID),
		zap.Int("rows", ds.Len()),
		zap.Strings("columns", ds.Schema.Names()),
		zap.Int("unparseable", q.UnparseableTotal()))

	if q.NegativeDurations > 0 {
		l.logger.Warn("trades exit before entry",
			zap.String("dataset_id", ds.ID),
			zap.Int("count", q.NegativeDurations))
	}

	return ds, nil
}

// remember records id as the current fingerprint of name and invalidates
// the previous one.
func (l *Loader) remember(ctx context.Context, name, id string) {
	l.mu.Lock()
	prev := l.last[name]
	l.last[name] = id
	l.mu.Unlock()

	if prev == "" || prev == id {
		return
	}
	if _, err := l.cache.Invalidate(ctx, prev); err != nil {
		l.logger.Warn("invalidate previous dataset failed",
			zap.String("source", name),
			zap.String("dataset_id", prev),
			zap.Error(err))
		return
	}
	l.logger.Info("source changed",
		zap.String("source", name),
		zap.String("previous_id", prev),
		zap.String("dataset_id", id))
}

// SourceKind returns the kind prefix of a source name ("csv:trades.csv" -> "csv").
func SourceKind(name string) string {
	if i := strings.IndexByte(name, ':'); i > 0 {
		return name[:i]
	}
	return "unknown"
}
