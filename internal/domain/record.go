package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrNonNumeric is returned when a measurement or threshold input is NaN or infinite.
var ErrNonNumeric = errors.New("non-numeric measurement")

// StationRecord is one observation row for a single station and period.
// Month is 0 for yearly records.
type StationRecord struct {
	StationID string  `json:"station_id"`
	ZoneGeo   string  `json:"z_geo"`
	ZoneClim  string  `json:"z_clim"`
	Year      int     `json:"year"`
	Month     int     `json:"month,omitempty"`
	Value     float64 `json:"value"`
}

// RainfallRecord holds the monthly rainfall measurements of one station.
type RainfallRecord struct {
	StationID     string  `json:"station_id"`
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	Rainfall      float64 `json:"rainfall"`        // RR, monthly total (mm)
	MaxDaily      float64 `json:"max_daily"`       // RRAB, max rainfall in 24h (mm)
	DaysOver100mm float64 `json:"days_over_100mm"` // NBJRR100
}

// WindRainRecord holds the yearly wind and rain intensity metrics of one station.
type WindRainRecord struct {
	StationID   string  `json:"station_id"`
	Year        int     `json:"year"`
	WindDays    float64 `json:"wind_days"`    // NBJFXI3S16X
	MaxRainfall float64 `json:"max_rainfall"` // RRMX
}

// Station is a measurement station with its zone membership and coordinates.
type Station struct {
	ID       string  `json:"id"`
	ZoneGeo  string  `json:"z_geo"`
	ZoneClim string  `json:"z_clim"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// ScenarioDelta is a model-projected change of a metric for a geographic zone.
type ScenarioDelta struct {
	Scenario string  `json:"scenario"`
	ZoneGeo  string  `json:"z_geo"`
	Year     int     `json:"year"`
	Value    float64 `json:"value"`
}

// ZoneYearSummary is one aggregated row. Stations is always >= 1.
type ZoneYearSummary struct {
	Year     int     `json:"year"`
	Month    int     `json:"month,omitempty"`
	ZoneGeo  string  `json:"z_geo,omitempty"`
	ZoneClim string  `json:"z_clim,omitempty"`
	Value    float64 `json:"value"`
	Stations int     `json:"stations"`
}

// RainfallMonth is the cross-station monthly rainfall average.
type RainfallMonth struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	DateKey       string  `json:"date_key"` // YYYYMM
	Rainfall      float64 `json:"rainfall"`
	MaxDaily      float64 `json:"max_daily"`
	DaysOver100mm float64 `json:"days_over_100mm"`
	Stations      int     `json:"stations"`
}

// WindRainYear is the cross-station yearly mean of the wind and rain intensity metrics.
type WindRainYear struct {
	Year        int     `json:"year"`
	WindDays    float64 `json:"wind_days"`
	MaxRainfall float64 `json:"max_rainfall"`
	Stations    int     `json:"stations"`
}

// BaselineProjection combines a reference-window baseline with a scenario delta
// for one (scenario, climate zone, geographic zone) triple.
//
// The projected value is derived by Projected and is never stored.
type BaselineProjection struct {
	Scenario    string
	ZoneClim    string
	ZoneGeo     string
	HorizonYear int
	Baseline    float64
	Delta       float64
	Lat         float64 // zone centroid
	Lon         float64
	Stations    int
	Locality    string // optional reverse-geocoded place name of the centroid
}

// Projected returns Baseline + Delta.
func (p BaselineProjection) Projected() float64 {
	return p.Baseline + p.Delta
}

type projectionJSON struct {
	Scenario    string  `json:"scenario"`
	ZoneClim    string  `json:"z_clim"`
	ZoneGeo     string  `json:"z_geo"`
	HorizonYear int     `json:"horizon_year"`
	Baseline    float64 `json:"baseline"`
	Delta       float64 `json:"delta"`
	Projected   float64 `json:"projected"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Stations    int     `json:"stations"`
	Locality    string  `json:"locality,omitempty"`
}

// MarshalJSON emits the projected value computed from its components.
func (p BaselineProjection) MarshalJSON() ([]byte, error) {
	return json.Marshal(projectionJSON{
		Scenario:    p.Scenario,
		ZoneClim:    p.ZoneClim,
		ZoneGeo:     p.ZoneGeo,
		HorizonYear: p.HorizonYear,
		Baseline:    p.Baseline,
		Delta:       p.Delta,
		Projected:   p.Projected(),
		Lat:         p.Lat,
		Lon:         p.Lon,
		Stations:    p.Stations,
		Locality:    p.Locality,
	})
}

// UnmarshalJSON reads the components and ignores the derived projected value.
func (p *BaselineProjection) UnmarshalJSON(data []byte) error {
	var v projectionJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = BaselineProjection{
		Scenario:    v.Scenario,
		ZoneClim:    v.ZoneClim,
		ZoneGeo:     v.ZoneGeo,
		HorizonYear: v.HorizonYear,
		Baseline:    v.Baseline,
		Delta:       v.Delta,
		Lat:         v.Lat,
		Lon:         v.Lon,
		Stations:    v.Stations,
		Locality:    v.Locality,
	}
	return nil
}

// Point is a (year, metric) pair.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// TrendLine is a first-degree least-squares fit over a group's yearly series.
type TrendLine struct {
	Group     string  `json:"group"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Fitted    []Point `json:"fitted"`
}

// At evaluates the line at the given year.
func (t TrendLine) At(year int) float64 {
	return t.Slope*float64(year) + t.Intercept
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s=%v: %w", name, v, ErrNonNumeric)
	}
	return nil
}
