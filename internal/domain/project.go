package domain

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Window fixes the baseline reference period and the projection horizon.
type Window struct {
	BaselineFrom int
	BaselineTo   int
	Horizon      int
}

// DefaultWindow is the 1991–2020 reference period projected to 2100.
func DefaultWindow() Window {
	return Window{BaselineFrom: 1991, BaselineTo: 2020, Horizon: 2100}
}

// Validate rejects inverted reference periods.
func (w Window) Validate() error {
	if w.BaselineFrom > w.BaselineTo {
		return errors.New("baseline window start must not be after its end")
	}
	return nil
}

// Project combines per-station baselines with per-zone scenario deltas.
//
// Station baselines are the mean of each station's yearly values inside the
// reference window. Deltas are averaged per (scenario, geo zone) for the horizon
// year only. Deltas join stations on geo zone, and stations join their baseline
// on station id; both joins are inner joins. Each (scenario, climate zone, geo
// zone) triple yields one row whose baseline is the mean of its station baselines.
//
// A zone that has deltas but no baseline stations produces no row. No default
// baseline is synthesized.
func Project(stations []Station, history []StationRecord, deltas []ScenarioDelta, w Window) ([]BaselineProjection, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	// Per-station baseline over the reference window.
	type meanAcc struct {
		sum   float64
		count int
	}
	baselineAcc := make(map[string]*meanAcc)
	for _, r := range history {
		if r.Year < w.BaselineFrom || r.Year > w.BaselineTo {
			continue
		}
		if err := checkFinite("baseline value", r.Value); err != nil {
			return nil, fmt.Errorf("project station %s year %d: %w", r.StationID, r.Year, err)
		}
		a, ok := baselineAcc[r.StationID]
		if !ok {
			a = &meanAcc{}
			baselineAcc[r.StationID] = a
		}
		a.sum += r.Value
		a.count++
	}

	// Per (scenario, geo zone) delta at the horizon.
	type scenarioZone struct{ scenario, zoneGeo string }
	deltaAcc := make(map[scenarioZone]*meanAcc)
	for _, d := range deltas {
		if d.Year != w.Horizon {
			continue
		}
		if err := checkFinite("delta value", d.Value); err != nil {
			return nil, fmt.Errorf("project scenario %s zone %s: %w", d.Scenario, d.ZoneGeo, err)
		}
		k := scenarioZone{d.Scenario, d.ZoneGeo}
		a, ok := deltaAcc[k]
		if !ok {
			a = &meanAcc{}
			deltaAcc[k] = a
		}
		a.sum += d.Value
		a.count++
	}

	stationsByZone := make(map[string][]Station)
	for _, s := range stations {
		stationsByZone[s.ZoneGeo] = append(stationsByZone[s.ZoneGeo], s)
	}

	type groupKey struct{ scenario, zoneClim, zoneGeo string }
	type groupAcc struct {
		baseline, lat, lon float64
		n                  int
		delta              float64
	}
	groups := make(map[groupKey]*groupAcc)

	for sz, da := range deltaAcc {
		delta := da.sum / float64(da.count)
		members := stationsByZone[sz.zoneGeo]
		// Stable order for summation.
		slices.SortFunc(members, func(a, b Station) int { return cmp.Compare(a.ID, b.ID) })
		for _, st := range members {
			ba, ok := baselineAcc[st.ID]
			if !ok {
				continue
			}
			k := groupKey{sz.scenario, st.ZoneClim, sz.zoneGeo}
			g, ok := groups[k]
			if !ok {
				g = &groupAcc{delta: delta}
				groups[k] = g
			}
			g.baseline += ba.sum / float64(ba.count)
			g.lat += st.Lat
			g.lon += st.Lon
			g.n++
		}
	}

	out := make([]BaselineProjection, 0, len(groups))
	for k, g := range groups {
		n := float64(g.n)
		out = append(out, BaselineProjection{
			Scenario:    k.scenario,
			ZoneClim:    k.zoneClim,
			ZoneGeo:     k.zoneGeo,
			HorizonYear: w.Horizon,
			Baseline:    g.baseline / n,
			Delta:       g.delta,
			Lat:         g.lat / n,
			Lon:         g.lon / n,
			Stations:    g.n,
		})
	}
	slices.SortFunc(out, func(a, b BaselineProjection) int {
		return cmp.Or(
			cmp.Compare(a.ZoneClim, b.ZoneClim),
			cmp.Compare(a.Scenario, b.Scenario),
			cmp.Compare(a.ZoneGeo, b.ZoneGeo),
		)
	})
	return out, nil
}

// ProjectionSummary holds the headline figures of one scenario.
type ProjectionSummary struct {
	Scenario      string  `json:"scenario"`
	MaxDelta      float64 `json:"max_delta"`
	MaxDeltaZone  string  `json:"max_delta_zone"` // climate zone holding MaxDelta
	MeanDelta     float64 `json:"mean_delta"`
	ZonesIncluded int     `json:"zones_included"`
}

// SummarizeProjection computes the largest delta and the island-wide mean delta
// for one scenario. It reports false when the scenario has no rows.
func SummarizeProjection(rows []BaselineProjection, scenario string) (ProjectionSummary, bool) {
	s := ProjectionSummary{Scenario: scenario}
	var sum float64
	for _, r := range rows {
		if r.Scenario != scenario {
			continue
		}
		if s.ZonesIncluded == 0 || r.Delta > s.MaxDelta {
			s.MaxDelta = r.Delta
			s.MaxDeltaZone = r.ZoneClim
		}
		sum += r.Delta
		s.ZonesIncluded++
	}
	if s.ZonesIncluded == 0 {
		return ProjectionSummary{}, false
	}
	s.MeanDelta = sum / float64(s.ZonesIncluded)
	return s, true
}

// Scenarios returns the distinct scenario names in sorted order.
func Scenarios(rows []BaselineProjection) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Scenario]; ok {
			continue
		}
		seen[r.Scenario] = struct{}{}
		out = append(out, r.Scenario)
	}
	slices.Sort(out)
	return out
}
