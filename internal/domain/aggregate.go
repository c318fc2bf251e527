package domain

import (
	"cmp"
	"fmt"
	"slices"
)

// Key identifies one aggregation group. Unused dimensions are left at their zero value.
type Key struct {
	Year     int
	Month    int
	ZoneClim string
	ZoneGeo  string
}

func compareKeys(a, b Key) int {
	return cmp.Or(
		cmp.Compare(a.Year, b.Year),
		cmp.Compare(a.Month, b.Month),
		cmp.Compare(a.ZoneClim, b.ZoneClim),
		cmp.Compare(a.ZoneGeo, b.ZoneGeo),
	)
}

// KeyFunc projects a record onto its aggregation key.
type KeyFunc func(StationRecord) Key

// ByYearZone groups by year, climate zone and geographic zone.
func ByYearZone(r StationRecord) Key {
	return Key{Year: r.Year, ZoneClim: r.ZoneClim, ZoneGeo: r.ZoneGeo}
}

// ByYearGeoZone groups by year and geographic zone.
func ByYearGeoZone(r StationRecord) Key {
	return Key{Year: r.Year, ZoneGeo: r.ZoneGeo}
}

// ByYearClimZone groups by year and climate zone.
func ByYearClimZone(r StationRecord) Key {
	return Key{Year: r.Year, ZoneClim: r.ZoneClim}
}

// ByYearMonth groups by year and month across all zones.
func ByYearMonth(r StationRecord) Key {
	return Key{Year: r.Year, Month: r.Month}
}

// StationReduce selects how one station's rows within a key are combined
// before the cross-station mean is taken.
type StationReduce int

const (
	// ReduceMean averages a station's rows. Used for intensive metrics.
	ReduceMean StationReduce = iota
	// ReduceSum totals a station's rows. Used for day counts, where each station
	// contributes its own yearly sum (hot days, nights >= 20°C).
	ReduceSum
)

// Aggregate groups records by key and emits one summary per key holding the
// mean across stations and the number of distinct stations.
//
// Each station's rows within a key are first reduced (sum or mean), then the
// station values are averaged. Keys without rows never appear in the output.
// Empty input yields an empty slice. Output is sorted by key.
func Aggregate(records []StationRecord, key KeyFunc, reduce StationReduce) ([]ZoneYearSummary, error) {
	type stationAcc struct {
		sum   float64
		count int
	}
	groups := make(map[Key]map[string]*stationAcc)

	for _, r := range records {
		if err := checkFinite("value", r.Value); err != nil {
			return nil, fmt.Errorf("aggregate station %s year %d: %w", r.StationID, r.Year, err)
		}
		k := key(r)
		stations, ok := groups[k]
		if !ok {
			stations = make(map[string]*stationAcc)
			groups[k] = stations
		}
		acc, ok := stations[r.StationID]
		if !ok {
			acc = &stationAcc{}
			stations[r.StationID] = acc
		}
		acc.sum += r.Value
		acc.count++
	}

	out := make([]ZoneYearSummary, 0, len(groups))
	for k, stations := range groups {
		ids := make([]string, 0, len(stations))
		for id := range stations {
			ids = append(ids, id)
		}
		// Fixed summation order keeps results identical across runs.
		slices.Sort(ids)

		var total float64
		for _, id := range ids {
			acc := stations[id]
			v := acc.sum
			if reduce == ReduceMean {
				v = acc.sum / float64(acc.count)
			}
			total += v
		}
		out = append(out, ZoneYearSummary{
			Year:     k.Year,
			Month:    k.Month,
			ZoneClim: k.ZoneClim,
			ZoneGeo:  k.ZoneGeo,
			Value:    total / float64(len(ids)),
			Stations: len(ids),
		})
	}

	slices.SortFunc(out, func(a, b ZoneYearSummary) int {
		return compareKeys(
			Key{Year: a.Year, Month: a.Month, ZoneClim: a.ZoneClim, ZoneGeo: a.ZoneGeo},
			Key{Year: b.Year, Month: b.Month, ZoneClim: b.ZoneClim, ZoneGeo: b.ZoneGeo},
		)
	})
	return out, nil
}

// AggregateRainfall averages the monthly rainfall metrics across stations for
// each (year, month), sorted chronologically.
func AggregateRainfall(records []RainfallRecord) ([]RainfallMonth, error) {
	type acc struct {
		rainfall, maxDaily, days float64
		stations                 map[string]struct{}
		rows                     int
	}
	groups := make(map[Key]*acc)

	for _, r := range records {
		for _, f := range []struct {
			name string
			v    float64
		}{{"rainfall", r.Rainfall}, {"max_daily", r.MaxDaily}, {"days_over_100mm", r.DaysOver100mm}} {
			if err := checkFinite(f.name, f.v); err != nil {
				return nil, fmt.Errorf("aggregate rainfall station %s %04d-%02d: %w", r.StationID, r.Year, r.Month, err)
			}
		}
		k := Key{Year: r.Year, Month: r.Month}
		a, ok := groups[k]
		if !ok {
			a = &acc{stations: make(map[string]struct{})}
			groups[k] = a
		}
		a.rainfall += r.Rainfall
		a.maxDaily += r.MaxDaily
		a.days += r.DaysOver100mm
		a.stations[r.StationID] = struct{}{}
		a.rows++
	}

	out := make([]RainfallMonth, 0, len(groups))
	for k, a := range groups {
		n := float64(a.rows)
		out = append(out, RainfallMonth{
			Year:          k.Year,
			Month:         k.Month,
			DateKey:       fmt.Sprintf("%04d%02d", k.Year, k.Month),
			Rainfall:      a.rainfall / n,
			MaxDaily:      a.maxDaily / n,
			DaysOver100mm: a.days / n,
			Stations:      len(a.stations),
		})
	}
	slices.SortFunc(out, func(a, b RainfallMonth) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})
	return out, nil
}

// AggregateWindRain averages the yearly wind and rain metrics across stations.
func AggregateWindRain(records []WindRainRecord) ([]WindRainYear, error) {
	type acc struct {
		wind, rain float64
		stations   map[string]struct{}
		rows       int
	}
	groups := make(map[int]*acc)

	for _, r := range records {
		if err := checkFinite("wind_days", r.WindDays); err != nil {
			return nil, fmt.Errorf("aggregate wind/rain station %s year %d: %w", r.StationID, r.Year, err)
		}
		if err := checkFinite("max_rainfall", r.MaxRainfall); err != nil {
			return nil, fmt.Errorf("aggregate wind/rain station %s year %d: %w", r.StationID, r.Year, err)
		}
		a, ok := groups[r.Year]
		if !ok {
			a = &acc{stations: make(map[string]struct{})}
			groups[r.Year] = a
		}
		a.wind += r.WindDays
		a.rain += r.MaxRainfall
		a.stations[r.StationID] = struct{}{}
		a.rows++
	}

	out := make([]WindRainYear, 0, len(groups))
	for year, a := range groups {
		n := float64(a.rows)
		out = append(out, WindRainYear{
			Year:        year,
			WindDays:    a.wind / n,
			MaxRainfall: a.rain / n,
			Stations:    len(a.stations),
		})
	}
	slices.SortFunc(out, func(a, b WindRainYear) int { return cmp.Compare(a.Year, b.Year) })
	return out, nil
}
