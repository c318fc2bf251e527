package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/reunion-climate-etl/internal/observability"
	"github.com/sony/gobreaker"
)

// BreakerSettings configure the warehouse circuit breaker.
type BreakerSettings struct {
	MaxFailures uint32        // consecutive failures before the breaker opens
	OpenTimeout time.Duration // how long the breaker stays open before probing
}

// BreakerRunner fails fast once the warehouse has failed MaxFailures times in a row.
// Errors returned after the caller's context ended and missing fixtures do not
// count as failures. A query timeout set by the runner itself does.
type BreakerRunner struct {
	inner Runner
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerRunner wraps inner with a circuit breaker.
func NewBreakerRunner(inner Runner, s BreakerSettings, logger *slog.Logger, metrics *observability.Metrics) *BreakerRunner {
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "warehouse",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			var done callerDoneError
			return err == nil ||
				errors.As(err, &done) ||
				errors.Is(err, ErrFixtureNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.Set(float64(to))
		},
	})
	return &BreakerRunner{inner: inner, cb: cb}
}

func (r *BreakerRunner) Run(ctx context.Context, q Query) ([]Row, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		rows, err := r.inner.Run(ctx, q)
		if err != nil && ctx.Err() != nil {
			return nil, callerDoneError{err: err}
		}
		return rows, err
	})
	var done callerDoneError
	if errors.As(err, &done) {
		return nil, done.err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w: %v", q.Name, ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	rows, _ := res.([]Row)
	return rows, nil
}

// callerDoneError marks an error seen after the caller's context ended.
type callerDoneError struct{ err error }

func (e callerDoneError) Error() string { return e.err.Error() }

func (e callerDoneError) Unwrap() error { return e.err }

// State reports the current breaker state.
func (r *BreakerRunner) State() gobreaker.State {
	return r.cb.State()
}
