package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate"

// Metrics holds the Prometheus counters, histograms, and gauges for the climate pipeline.
type Metrics struct {
	// Warehouse metrics.
	WarehouseQueries       *prometheus.CounterVec   // labels: query, outcome={success,error}
	WarehouseQueryDuration *prometheus.HistogramVec // labels: query
	WarehouseRows          *prometheus.CounterVec   // labels: query
	QueryCache             *prometheus.CounterVec   // labels: result={hit,miss}
	BreakerState           prometheus.Gauge         // 0 closed, 1 half-open, 2 open

	// Refresh pipeline metrics.
	ReportRows       *prometheus.GaugeVec   // labels: report
	ReportErrors     *prometheus.CounterVec // labels: report
	ReportsPublished prometheus.Counter
	RefreshDuration  prometheus.Histogram
	PipelineReady    prometheus.Gauge
	SchedulerRunning prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.WarehouseQueries,
		m.WarehouseQueryDuration,
		m.WarehouseRows,
		m.QueryCache,
		m.BreakerState,
		m.ReportRows,
		m.ReportErrors,
		m.ReportsPublished,
		m.RefreshDuration,
		m.PipelineReady,
		m.SchedulerRunning,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many instances as they need without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		WarehouseQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warehouse_queries_total",
			Help:      help("Warehouse queries by query name and outcome."),
		}, []string{"query", "outcome"}),
		WarehouseQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "warehouse_query_duration_seconds",
			Help:      help("Warehouse query duration in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"query"}),
		WarehouseRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warehouse_rows_total",
			Help:      help("Rows read from the warehouse by query name."),
		}, []string{"query"}),
		QueryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_total",
			Help:      help("Query cache lookups by result."),
		}, []string{"result"}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warehouse_breaker_state",
			Help:      help("Warehouse circuit breaker state: 0 closed, 1 half-open, 2 open."),
		}),
		ReportRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_rows",
			Help:      help("Rows in the last built report, by report."),
		}, []string{"report"}),
		ReportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_errors_total",
			Help:      help("Report build or publish failures, by report."),
		}, []string{"report"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      help("Reports written to the publisher."),
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      help("Duration of a complete refresh of every report."),
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_ready",
			Help:      help("1 once a refresh has completed successfully."),
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      help("1 when the periodic refresh is scheduled, 0 when stopped."),
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      help("Geocoding API requests by method and outcome."),
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      help("Geocoding cache lookups by method and result."),
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      help("Mapbox API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      help("1 when locality enrichment is enabled, 0 otherwise."),
		}),
	}
}
