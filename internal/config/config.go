package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/reunion-climate-etl/internal/domain"
	"github.com/couchcryptid/reunion-climate-etl/internal/warehouse"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Warehouse access. FixtureDir replaces BigQuery with local fixture files.
	GCPProjectID       string
	GCPCredentials     []byte
	FixtureDir         string
	WarehouseLocation  string
	QueryTimeout       time.Duration
	QueryCacheSize     int
	QueryCacheTTL      time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	Tables             warehouse.Tables

	// Report parameters.
	Window             domain.Window
	WarmNightsFromYear int
	RainEventMinDays   float64
	Thresholds         domain.Thresholds

	// RefreshInterval of 0 disables the scheduler.
	RefreshInterval time.Duration

	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaReportTopic string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:          sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,
		GCPProjectID:      os.Getenv("GCP_PROJECT_ID"),
		FixtureDir:        os.Getenv("WAREHOUSE_FIXTURE_DIR"),
		WarehouseLocation: sharedcfg.EnvOrDefault("WAREHOUSE_LOCATION", "EU"),
		KafkaEnabled:      os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic:  sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "climate-reports"),
	}

	if err := loadWarehouse(cfg); err != nil {
		return nil, err
	}
	if err := loadReports(cfg); err != nil {
		return nil, err
	}
	if err := loadMapbox(cfg); err != nil {
		return nil, err
	}

	if cfg.RefreshInterval, err = parseDuration("REFRESH_INTERVAL", "60m", true); err != nil {
		return nil, err
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaReportTopic == "" {
			return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// WarehouseConfig returns the BigQuery client settings.
func (c *Config) WarehouseConfig() warehouse.Config {
	return warehouse.Config{
		ProjectID:       c.GCPProjectID,
		CredentialsJSON: c.GCPCredentials,
		Location:        c.WarehouseLocation,
		QueryTimeout:    c.QueryTimeout,
	}
}

func loadWarehouse(cfg *Config) error {
	var err error
	if cfg.QueryTimeout, err = parseDuration("QUERY_TIMEOUT", "30s", false); err != nil {
		return err
	}
	if cfg.QueryCacheSize, err = parsePositiveInt("QUERY_CACHE_SIZE", 128); err != nil {
		return err
	}
	if cfg.QueryCacheTTL, err = parseDuration("QUERY_CACHE_TTL", "1h", true); err != nil {
		return err
	}
	maxFailures, err := parsePositiveInt("BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return err
	}
	cfg.BreakerMaxFailures = uint32(maxFailures) //nolint:gosec // bounded by strconv.Atoi on a positive value
	if cfg.BreakerOpenTimeout, err = parseDuration("BREAKER_OPEN_TIMEOUT", "30s", false); err != nil {
		return err
	}

	def := warehouse.DefaultTables()
	cfg.Tables = warehouse.Tables{
		Rainfall:   sharedcfg.EnvOrDefault("TABLE_RAINFALL", def.Rainfall),
		HotDays:    sharedcfg.EnvOrDefault("TABLE_HOT_DAYS", def.HotDays),
		WarmNights: sharedcfg.EnvOrDefault("TABLE_WARM_NIGHTS", def.WarmNights),
		Stations:   sharedcfg.EnvOrDefault("TABLE_STATIONS", def.Stations),
		Scenarios:  sharedcfg.EnvOrDefault("TABLE_SCENARIOS", def.Scenarios),
		WindRain:   sharedcfg.EnvOrDefault("TABLE_WIND_RAIN", def.WindRain),
	}
	if err := cfg.Tables.Validate(); err != nil {
		return fmt.Errorf("invalid TABLE_* setting: %w", err)
	}

	if cfg.FixtureDir != "" {
		return nil
	}
	if cfg.GCPProjectID == "" {
		return errors.New("GCP_PROJECT_ID is required unless WAREHOUSE_FIXTURE_DIR is set")
	}
	switch {
	case os.Getenv("GCP_CREDENTIALS_JSON") != "":
		cfg.GCPCredentials = []byte(os.Getenv("GCP_CREDENTIALS_JSON"))
	case os.Getenv("GCP_CREDENTIALS_FILE") != "":
		data, err := os.ReadFile(os.Getenv("GCP_CREDENTIALS_FILE"))
		if err != nil {
			return fmt.Errorf("read GCP_CREDENTIALS_FILE: %w", err)
		}
		cfg.GCPCredentials = data
	default:
		return errors.New("GCP_CREDENTIALS_JSON or GCP_CREDENTIALS_FILE is required unless WAREHOUSE_FIXTURE_DIR is set")
	}
	return nil
}

func loadReports(cfg *Config) error {
	def := domain.DefaultWindow()
	var err error
	if cfg.Window.BaselineFrom, err = parseInt("BASELINE_FROM", def.BaselineFrom); err != nil {
		return err
	}
	if cfg.Window.BaselineTo, err = parseInt("BASELINE_TO", def.BaselineTo); err != nil {
		return err
	}
	if cfg.Window.Horizon, err = parseInt("HORIZON_YEAR", def.Horizon); err != nil {
		return err
	}
	if err := cfg.Window.Validate(); err != nil {
		return fmt.Errorf("invalid BASELINE_FROM/BASELINE_TO: %w", err)
	}
	if cfg.WarmNightsFromYear, err = parseInt("WARM_NIGHTS_FROM_YEAR", 1983); err != nil {
		return err
	}
	if cfg.RainEventMinDays, err = parseFloat("RAIN_EVENT_MIN_DAYS", domain.DefaultRainEventMinDays); err != nil {
		return err
	}

	t := domain.DefaultThresholds()
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"WIND_CYCLONE_THRESHOLD", &t.WindCyclone},
		{"WIND_VIOLENT_STORM_THRESHOLD", &t.WindViolentStorm},
		{"WIND_STORM_THRESHOLD", &t.WindStorm},
		{"RAIN_VERY_WET_THRESHOLD", &t.RainVeryWet},
		{"RAIN_AVERAGE_THRESHOLD", &t.RainAverage},
		{"RAIN_DRY_THRESHOLD", &t.RainDry},
	} {
		if *f.dst, err = parseFloat(f.name, *f.dst); err != nil {
			return err
		}
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid *_THRESHOLD setting: %w", err)
	}
	cfg.Thresholds = t
	return nil
}

func loadMapbox(cfg *Config) error {
	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return errors.New("invalid MAPBOX_TIMEOUT")
	}

	cfg.MapboxToken = os.Getenv("MAPBOX_TOKEN")
	cfg.MapboxEnabled = cfg.MapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		cfg.MapboxEnabled = v == "true"
	}
	cfg.MapboxTimeout = mapboxTimeout
	cfg.MapboxCacheSize = parseMapboxCacheSize()

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func parseDuration(name, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}
	return n, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	n, err := parseInt(name, def)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return n, nil
}

func parseFloat(name string, def float64) (float64, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}
	return f, nil
}
