package warehouse

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/reunion-climate-etl/internal/observability"
)

// InstrumentedRunner records query counts, durations and row counts.
type InstrumentedRunner struct {
	inner   Runner
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewInstrumentedRunner wraps inner with metrics and logging.
func NewInstrumentedRunner(inner Runner, logger *slog.Logger, metrics *observability.Metrics) *InstrumentedRunner {
	return &InstrumentedRunner{inner: inner, logger: logger, metrics: metrics}
}

func (r *InstrumentedRunner) Run(ctx context.Context, q Query) ([]Row, error) {
	start := time.Now()
	rows, err := r.inner.Run(ctx, q)
	r.metrics.WarehouseQueryDuration.WithLabelValues(q.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		r.metrics.WarehouseQueries.WithLabelValues(q.Name, "error").Inc()
		r.logger.Error("warehouse query failed", "query", q.Name, "error", err)
		return nil, err
	}
	r.metrics.WarehouseQueries.WithLabelValues(q.Name, "success").Inc()
	r.metrics.WarehouseRows.WithLabelValues(q.Name).Add(float64(len(rows)))
	r.logger.Debug("warehouse query served", "query", q.Name, "rows", len(rows), "duration", time.Since(start))
	return rows, nil
}
