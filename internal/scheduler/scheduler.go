package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/reunion-climate-etl/internal/observability"
	"github.com/couchcryptid/reunion-climate-etl/internal/pipeline"
	"github.com/go-co-op/gocron"
)

// Refresher rebuilds every report.
type Refresher interface {
	Refresh(ctx context.Context) (pipeline.RunResult, error)
}

// Scheduler runs a refresh at start and then at a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Scheduler. Each refresh is bounded by timeout; a zero timeout
// bounds it by the interval instead.
func New(r Refresher, interval, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if timeout <= 0 {
		timeout = interval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: r,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
// The first refresh runs immediately. Refreshes never overlap.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("refresh interval must be positive")
	}

	s.scheduler.SingletonModeAll()
	if _, err := s.scheduler.Every(s.interval).Do(s.runOnce, ctx); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}

	s.scheduler.StartAsync()
	s.metrics.SchedulerRunning.Set(1)
	s.logger.Info("refresh scheduled", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.metrics.SchedulerRunning.Set(0)
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.refresher.Refresh(ctx)
	if err != nil {
		s.logger.Error("scheduled refresh failed", "run_id", res.RunID, "error", err)
		return
	}
	s.logger.Debug("scheduled refresh done", "run_id", res.RunID)
}
