package warehouse

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/reunion-climate-etl/internal/cache"
	"github.com/couchcryptid/reunion-climate-etl/internal/observability"
)

// CachedRunner memoizes successful query results by SQL text.
// Cached slices are shared between callers and must not be modified.
type CachedRunner struct {
	inner   Runner
	cache   *cache.LRU[string, []Row]
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedRunner wraps inner with the given cache.
func NewCachedRunner(inner Runner, c *cache.LRU[string, []Row], logger *slog.Logger, metrics *observability.Metrics) *CachedRunner {
	return &CachedRunner{inner: inner, cache: c, logger: logger, metrics: metrics}
}

func (r *CachedRunner) Run(ctx context.Context, q Query) ([]Row, error) {
	if rows, ok := r.cache.Get(q.SQL); ok {
		r.metrics.QueryCache.WithLabelValues("hit").Inc()
		return rows, nil
	}
	r.metrics.QueryCache.WithLabelValues("miss").Inc()

	rows, err := r.inner.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	r.cache.Put(q.SQL, rows)
	return rows, nil
}

// Invalidate drops every cached result so the next run of each query reaches the warehouse.
func (r *CachedRunner) Invalidate() {
	r.cache.Purge()
	r.logger.Debug("query cache invalidated")
}
