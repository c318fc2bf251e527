package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/reunion-climate-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/reunion-climate-etl/internal/adapter/kafka"
	"github.com/couchcryptid/reunion-climate-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/reunion-climate-etl/internal/cache"
	"github.com/couchcryptid/reunion-climate-etl/internal/config"
	"github.com/couchcryptid/reunion-climate-etl/internal/domain"
	"github.com/couchcryptid/reunion-climate-etl/internal/observability"
	"github.com/couchcryptid/reunion-climate-etl/internal/pipeline"
	"github.com/couchcryptid/reunion-climate-etl/internal/report"
	"github.com/couchcryptid/reunion-climate-etl/internal/scheduler"
	"github.com/couchcryptid/reunion-climate-etl/internal/warehouse"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cached, closeRunner, err := newRunner(ctx, cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("create warehouse runner: %w", err)
	}
	defer closeRunner()

	catalog, err := warehouse.NewCatalog(cfg.Tables, cfg.Window.Horizon)
	if err != nil {
		return fmt.Errorf("warehouse tables: %w", err)
	}
	classifier, err := domain.NewClassifier(cfg.Thresholds)
	if err != nil {
		return err
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	opts := report.DefaultOptions()
	opts.Window = cfg.Window
	opts.WarmNightsFromYear = cfg.WarmNightsFromYear
	opts.RainEventMinDays = cfg.RainEventMinDays
	builder, err := report.NewBuilder(warehouse.NewSource(cached, catalog, logger), classifier, geocoder, opts, logger)
	if err != nil {
		return err
	}

	pipelineOpts := []pipeline.Option{pipeline.WithInvalidator(cached)}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		pipelineOpts = append(pipelineOpts, pipeline.WithPublisher(writer))
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
	}
	p := pipeline.New(builder, logger, metrics, pipelineOpts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, builder, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start refreshes. An interval of 0 runs a single refresh.
	if cfg.RefreshInterval > 0 {
		sched := scheduler.New(p, cfg.RefreshInterval, 0, logger, metrics)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	} else {
		go func() {
			if _, err := p.Refresh(ctx); err != nil {
				logger.Error("refresh failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newRunner builds the warehouse decorator chain:
// cache -> breaker -> instrumentation -> BigQuery (or fixture files).
func newRunner(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*warehouse.CachedRunner, func(), error) {
	var base warehouse.Runner
	closeFn := func() {}
	if cfg.FixtureDir != "" {
		base = warehouse.NewFixtureRunner(cfg.FixtureDir)
		logger.Info("serving warehouse queries from fixtures", "dir", cfg.FixtureDir)
	} else {
		bq, err := warehouse.NewBigQueryRunner(ctx, cfg.WarehouseConfig(), logger)
		if err != nil {
			return nil, nil, err
		}
		base = bq
		closeFn = func() {
			if err := bq.Close(); err != nil {
				logger.Error("bigquery close error", "error", err)
			}
		}
	}

	instrumented := warehouse.NewInstrumentedRunner(base, logger, metrics)
	breaker := warehouse.NewBreakerRunner(instrumented, warehouse.BreakerSettings{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, logger, metrics)
	lru := cache.New[string, []warehouse.Row](cfg.QueryCacheSize, cache.WithTTL(cfg.QueryCacheTTL))
	return warehouse.NewCachedRunner(breaker, lru, logger, metrics), closeFn, nil
}
