package warehouse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/reunion-climate-etl/internal/domain"
)

// Source maps warehouse rows onto domain records. Rows with a NULL in any
// selected column are skipped, as a SQL AVG would ignore them.
type Source struct {
	runner  Runner
	catalog Catalog
	logger  *slog.Logger
}

// NewSource creates a Source reading the catalog's queries through runner.
func NewSource(runner Runner, catalog Catalog, logger *slog.Logger) *Source {
	return &Source{runner: runner, catalog: catalog, logger: logger}
}

// Catalog returns the queries this source runs.
func (s *Source) Catalog() Catalog {
	return s.catalog
}

// rowReader accumulates conversion state for one row. The first error or NULL
// short-circuits the remaining reads.
type rowReader struct {
	row  Row
	null bool
	err  error
}

func (rr *rowReader) text(col string) string {
	if rr.err != nil || rr.null {
		return ""
	}
	s, ok, err := stringValue(rr.row, col)
	rr.err, rr.null = err, !ok
	return s
}

func (rr *rowReader) integer(col string) int {
	if rr.err != nil || rr.null {
		return 0
	}
	n, ok, err := intValue(rr.row, col)
	rr.err, rr.null = err, !ok
	return n
}

func (rr *rowReader) number(col string) float64 {
	if rr.err != nil || rr.null {
		return 0
	}
	f, ok, err := floatValue(rr.row, col)
	rr.err, rr.null = err, !ok
	return f
}

// load runs q and maps each row with fn, skipping rows that hold a NULL.
func load[T any](ctx context.Context, s *Source, q Query, fn func(*rowReader) T) ([]T, error) {
	rows, err := s.runner.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		rr := &rowReader{row: row}
		v := fn(rr)
		if rr.err != nil {
			return nil, fmt.Errorf("%s row %d: %w", q.Name, i, rr.err)
		}
		if rr.null {
			skipped++
			continue
		}
		out = append(out, v)
	}
	if skipped > 0 {
		s.logger.Debug("skipped rows with NULL values", "query", q.Name, "skipped", skipped)
	}
	return out, nil
}

// MonthlyRainfall returns the per-station monthly rainfall records.
func (s *Source) MonthlyRainfall(ctx context.Context) ([]domain.RainfallRecord, error) {
	return load(ctx, s, s.catalog.MonthlyRainfall(), func(rr *rowReader) domain.RainfallRecord {
		return domain.RainfallRecord{
			StationID:     rr.text(ColStation),
			Year:          rr.integer(ColYear),
			Month:         rr.integer(ColMonth),
			Rainfall:      rr.number(ColRainfall),
			MaxDaily:      rr.number(ColMaxDaily),
			DaysOver100mm: rr.number(ColDaysOver100mm),
		}
	})
}

// HotDays returns the yearly count of days above 32 °C per station.
func (s *Source) HotDays(ctx context.Context) ([]domain.StationRecord, error) {
	return s.zoneYearly(ctx, s.catalog.HotDays(), ColHotDays)
}

// WarmNights returns the yearly count of nights at or above 20 °C per station.
func (s *Source) WarmNights(ctx context.Context) ([]domain.StationRecord, error) {
	return s.zoneYearly(ctx, s.catalog.WarmNights(), ColWarmNights)
}

func (s *Source) zoneYearly(ctx context.Context, q Query, valueCol string) ([]domain.StationRecord, error) {
	return load(ctx, s, q, func(rr *rowReader) domain.StationRecord {
		return domain.StationRecord{
			StationID: rr.text(ColStation),
			Year:      rr.integer(ColYear),
			ZoneClim:  rr.text(ColZoneClim),
			ZoneGeo:   rr.text(ColZoneGeo),
			Value:     rr.number(valueCol),
		}
	})
}

// ScenarioDeltas returns the simulated deltas per scenario and geographic zone.
func (s *Source) ScenarioDeltas(ctx context.Context) ([]domain.ScenarioDelta, error) {
	return load(ctx, s, s.catalog.ScenarioDeltas(), func(rr *rowReader) domain.ScenarioDelta {
		return domain.ScenarioDelta{
			Scenario: rr.text(ColScenario),
			ZoneGeo:  rr.text(ColZoneGeo),
			Year:     rr.integer(ColYear),
			Value:    rr.number(ColScenarioDelta),
		}
	})
}

// Stations returns every station with its coordinates and zones.
func (s *Source) Stations(ctx context.Context) ([]domain.Station, error) {
	return load(ctx, s, s.catalog.Stations(), func(rr *rowReader) domain.Station {
		return domain.Station{
			ID:       rr.text(ColStation),
			Lat:      rr.number(ColLat),
			Lon:      rr.number(ColLon),
			ZoneGeo:  rr.text(ColZoneGeo),
			ZoneClim: rr.text(ColZoneClim),
		}
	})
}

// WindRain returns the yearly wind and rain intensity metrics per station.
func (s *Source) WindRain(ctx context.Context) ([]domain.WindRainRecord, error) {
	return load(ctx, s, s.catalog.WindRain(), func(rr *rowReader) domain.WindRainRecord {
		return domain.WindRainRecord{
			StationID:   rr.text(ColStation),
			Year:        rr.integer(ColYear),
			WindDays:    rr.number(ColWindDays),
			MaxRainfall: rr.number(ColMaxRainfall),
		}
	})
}
