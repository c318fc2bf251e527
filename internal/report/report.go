// Package report assembles the dashboard reports from warehouse records and
// the domain stages. Every report is built per call; only raw warehouse rows
// are memoized, by the runner underneath the source.
package report

import (
	"context"
	"time"

	"github.com/couchcryptid/reunion-climate-etl/internal/domain"
)

// Report names. They are used as Kafka message keys and metric labels.
const (
	NameHotDays        = "hot_days"
	NameWarmNights     = "warm_nights"
	NameProjections    = "projections"
	NameRainfallEvents = "rainfall_events"
	NameSeverity       = "severity"
)

// Names lists every report built by a refresh, in build order.
func Names() []string {
	return []string{NameHotDays, NameWarmNights, NameProjections, NameRainfallEvents, NameSeverity}
}

// Source provides the typed warehouse records. *warehouse.Source implements it.
type Source interface {
	MonthlyRainfall(ctx context.Context) ([]domain.RainfallRecord, error)
	HotDays(ctx context.Context) ([]domain.StationRecord, error)
	WarmNights(ctx context.Context) ([]domain.StationRecord, error)
	ScenarioDeltas(ctx context.Context) ([]domain.ScenarioDelta, error)
	Stations(ctx context.Context) ([]domain.Station, error)
	WindRain(ctx context.Context) ([]domain.WindRainRecord, error)
}

// Envelope wraps a built report for publishing.
type Envelope struct {
	Name        string    `json:"report"`
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Rows        int       `json:"rows"`
	Data        any       `json:"data"`
}

// HotDaysReport holds the yearly number of days above 32°C per zone.
type HotDaysReport struct {
	ZoneClim  string                   `json:"z_clim,omitempty"`
	Year      int                      `json:"year,omitempty"`
	ClimZones []string                 `json:"climate_zones"`
	Summaries []domain.ZoneYearSummary `json:"summaries"`
	Deviation *domain.Deviation        `json:"deviation,omitempty"`
	Ranking   []domain.ZoneMean        `json:"ranking"`
	Trends    []domain.TrendLine       `json:"trends"`
}

// Rows returns the number of summary rows.
func (r HotDaysReport) Rows() int { return len(r.Summaries) }

// GroupSeries is the yearly series of one zone group with its trend overlay.
type GroupSeries struct {
	Group    string                `json:"group"`
	Points   []domain.Point        `json:"points"`
	Trend    *domain.TrendLine     `json:"trend,omitempty"`
	Increase *domain.GroupIncrease `json:"increase,omitempty"`
}

// WarmNightsReport holds the yearly number of nights at or above 20°C per geographic zone.
type WarmNightsReport struct {
	FromYear  int                      `json:"from_year"`
	Summaries []domain.ZoneYearSummary `json:"summaries"`
	Groups    []GroupSeries            `json:"groups"`
}

// Rows returns the number of summary rows.
func (r WarmNightsReport) Rows() int { return len(r.Summaries) }

// ProjectionReport holds the baseline + delta projection of hot days at the horizon.
type ProjectionReport struct {
	Scenario    string                      `json:"scenario,omitempty"`
	Window      Window                      `json:"window"`
	Scenarios   []string                    `json:"scenarios"`
	Projections []domain.BaselineProjection `json:"projections"`
	Summaries   []domain.ProjectionSummary  `json:"summaries"`
}

// Rows returns the number of projection rows.
func (r ProjectionReport) Rows() int { return len(r.Projections) }

// Window is the JSON form of domain.Window.
type Window struct {
	BaselineFrom int `json:"baseline_from"`
	BaselineTo   int `json:"baseline_to"`
	Horizon      int `json:"horizon"`
}

// RainfallReport holds the detected extreme rainfall months.
type RainfallReport struct {
	MinDays float64                `json:"min_days_over_100mm"`
	Events  []domain.RainfallMonth `json:"events"`
	Stats   domain.RainEventStats  `json:"stats"`
}

// Rows returns the number of detected events.
func (r RainfallReport) Rows() int { return len(r.Events) }

// PeriodDistribution counts the wind labels of one historical period.
type PeriodDistribution struct {
	Period domain.Period          `json:"period"`
	Counts []domain.SeverityCount `json:"counts"`
}

// SeverityReport holds the yearly severity labels and their distribution per period.
type SeverityReport struct {
	Thresholds   domain.Thresholds               `json:"thresholds"`
	Years        []domain.SeverityClassification `json:"years"`
	Distribution []PeriodDistribution            `json:"distribution"`
}

// Rows returns the number of classified years.
func (r SeverityReport) Rows() int { return len(r.Years) }
