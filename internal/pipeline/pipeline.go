package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/reunion-climate-etl/internal/observability"
	"github.com/couchcryptid/reunion-climate-etl/internal/report"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ReportBuilder builds a named report with its default parameters.
type ReportBuilder interface {
	Build(ctx context.Context, name string) (data any, rows int, err error)
}

// Publisher writes built reports to a sink.
type Publisher interface {
	Publish(ctx context.Context, env report.Envelope) error
}

// Invalidator drops memoized warehouse results so a refresh reads fresh rows.
type Invalidator interface {
	Invalidate()
}

// ReportResult is the outcome of one report within a refresh.
type ReportResult struct {
	Name  string `json:"report"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

// RunResult summarizes one refresh.
type RunResult struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Reports    []ReportResult `json:"reports"`
}

// Pipeline rebuilds every report and publishes it. Refreshes are serialized.
type Pipeline struct {
	builder     ReportBuilder
	publisher   Publisher
	invalidator Invalidator
	names       []string
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics

	mu    sync.Mutex
	ready atomic.Bool
	last  atomic.Pointer[RunResult]
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPublisher sends every built report to pub.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithInvalidator clears the query cache at the start of each refresh.
func WithInvalidator(inv Invalidator) Option {
	return func(p *Pipeline) { p.invalidator = inv }
}

// WithClock overrides the clock used for run timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithReports restricts a refresh to the named reports.
func WithReports(names ...string) Option {
	return func(p *Pipeline) { p.names = names }
}

// New creates a Pipeline refreshing every report of the builder.
func New(b ReportBuilder, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		builder: b,
		names:   report.Names(),
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CheckReadiness returns nil once the last refresh built every report,
// or an error describing why the service is not ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		if last := p.last.Load(); last != nil {
			return fmt.Errorf("last refresh %s failed", last.RunID)
		}
		return errors.New("no refresh has completed yet")
	}
	return nil
}

// Ready reports whether the last refresh succeeded.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// LastRun returns the most recent refresh result, if any.
func (p *Pipeline) LastRun() (RunResult, bool) {
	r := p.last.Load()
	if r == nil {
		return RunResult{}, false
	}
	return *r, true
}

// Refresh rebuilds every report and publishes it. A failing report does not
// stop the others; the joined errors are returned.
func (p *Pipeline) Refresh(ctx context.Context) (RunResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := RunResult{
		RunID:     uuid.NewString(),
		StartedAt: p.clock.Now().UTC(),
		Reports:   make([]ReportResult, 0, len(p.names)),
	}
	start := time.Now()
	logger := p.logger.With("run_id", res.RunID)
	logger.Info("refresh started", "reports", len(p.names))

	if p.invalidator != nil {
		p.invalidator.Invalidate()
	}

	var errs []error
	for _, name := range p.names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rr, err := p.refreshOne(ctx, res, name)
		if err != nil {
			logger.Error("report refresh failed", "report", name, "error", err)
			p.metrics.ReportErrors.WithLabelValues(name).Inc()
			rr.Error = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		res.Reports = append(res.Reports, rr)
	}

	res.FinishedAt = p.clock.Now().UTC()
	p.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	p.last.Store(&res)

	if len(errs) > 0 {
		p.ready.Store(false)
		p.metrics.PipelineReady.Set(0)
		return res, errors.Join(errs...)
	}
	p.ready.Store(true)
	p.metrics.PipelineReady.Set(1)
	logger.Info("refresh completed", "duration", time.Since(start))
	return res, nil
}

func (p *Pipeline) refreshOne(ctx context.Context, run RunResult, name string) (ReportResult, error) {
	rr := ReportResult{Name: name}
	data, rows, err := p.builder.Build(ctx, name)
	if err != nil {
		return rr, fmt.Errorf("build: %w", err)
	}
	rr.Rows = rows
	p.metrics.ReportRows.WithLabelValues(name).Set(float64(rows))

	if p.publisher == nil {
		return rr, nil
	}
	env := report.Envelope{
		Name:        name,
		RunID:       run.RunID,
		GeneratedAt: p.clock.Now().UTC(),
		Rows:        rows,
		Data:        data,
	}
	if err := p.publisher.Publish(ctx, env); err != nil {
		return rr, fmt.Errorf("publish: %w", err)
	}
	p.metrics.ReportsPublished.Inc()
	return rr, nil
}
