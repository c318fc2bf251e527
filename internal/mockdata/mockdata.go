// Package mockdata generates deterministic warehouse rows shaped like the
// Météo-France Réunion tables. The rows feed the fixture runner for offline
// runs, the validate command and the pipeline tests.
package mockdata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/couchcryptid/reunion-climate-etl/internal/warehouse"
)

// DefaultSeed is the seed used by cmd/genmock.
const DefaultSeed = 974

// Scenarios are the emission scenarios present in the delta table.
var Scenarios = []string{"RCP4.5", "RCP8.5"}

type zone struct {
	geo, clim string
	lat, lon  float64
	coastal   bool
}

var zones = []zone{
	{geo: "AV_C", clim: "Tropical humide", lat: -20.95, lon: 55.65, coastal: true},
	{geo: "AV_H", clim: "Tempéré humide", lat: -21.10, lon: 55.55},
	{geo: "SSV_C", clim: "Tropical sec", lat: -21.25, lon: 55.35, coastal: true},
	{geo: "SSV_H", clim: "Tempéré sec", lat: -21.15, lon: 55.45},
}

type station struct {
	id string
	z  zone
}

const stationsPerZone = 2

// Year ranges of each table.
const (
	firstYear         = 1952
	lastYear          = 2024
	firstTempYear     = 1975
	firstRainfallYear = 2000
)

// Dataset holds generated rows by query name.
type Dataset map[string][]warehouse.Row

// Generate builds every table from seed. The same seed always yields the same rows.
func Generate(seed uint64) Dataset {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	stations := makeStations()

	return Dataset{
		warehouse.QueryStations:        stationRows(stations),
		warehouse.QueryHotDays:         temperatureRows(rng, stations, warehouse.ColHotDays, 40, 0.9),
		warehouse.QueryWarmNights:      temperatureRows(rng, stations, warehouse.ColWarmNights, 70, 3.0),
		warehouse.QueryScenarioDeltas:  deltaRows(rng),
		warehouse.QueryMonthlyRainfall: rainfallRows(rng, stations),
		warehouse.QueryWindRain:        windRainRows(rng, stations),
	}
}

// Names returns the query names of the dataset in sorted order.
func (d Dataset) Names() []string {
	names := make([]string, 0, len(d))
	for n := range d {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Write stores each table of the dataset as a fixture file under dir.
func (d Dataset) Write(dir string) error {
	for _, name := range d.Names() {
		if err := warehouse.WriteFixture(dir, name, d[name]); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func makeStations() []station {
	out := make([]station, 0, len(zones)*stationsPerZone)
	for zi, z := range zones {
		for i := range stationsPerZone {
			out = append(out, station{id: fmt.Sprintf("974%02d%03d", zi+1, i+1), z: z})
		}
	}
	return out
}

func stationRows(stations []station) []warehouse.Row {
	rows := make([]warehouse.Row, 0, len(stations))
	for i, s := range stations {
		offset := 0.02 * float64(i%stationsPerZone)
		rows = append(rows, warehouse.Row{
			warehouse.ColStation:  s.id,
			warehouse.ColLat:      round(s.z.lat+offset, 4),
			warehouse.ColLon:      round(s.z.lon-offset, 4),
			warehouse.ColZoneGeo:  s.z.geo,
			warehouse.ColZoneClim: s.z.clim,
		})
	}
	return rows
}

// temperatureRows emits one yearly day count per station with a warming trend.
// Highland stations see a fraction of the coastal counts.
func temperatureRows(rng *rand.Rand, stations []station, col string, coastalBase, perDecade float64) []warehouse.Row {
	var rows []warehouse.Row
	for _, s := range stations {
		base := coastalBase
		if !s.z.coastal {
			base = coastalBase / 8
		}
		for y := firstTempYear; y <= lastYear; y++ {
			// Warm nights are recorded from 1983; earlier years are sparse.
			if col == warehouse.ColWarmNights && y < 1983 && rng.IntN(3) > 0 {
				continue
			}
			trend := perDecade * float64(y-firstTempYear) / 10
			if !s.z.coastal {
				trend /= 4
			}
			v := math.Max(0, math.Round(base+trend+rng.NormFloat64()*base/10))
			rows = append(rows, warehouse.Row{
				warehouse.ColStation:  s.id,
				warehouse.ColYear:     y,
				warehouse.ColZoneClim: s.z.clim,
				warehouse.ColZoneGeo:  s.z.geo,
				col:                   int(v),
			})
		}
	}
	return rows
}

func deltaRows(rng *rand.Rand) []warehouse.Row {
	var rows []warehouse.Row
	for _, sc := range Scenarios {
		factor := 1.0
		if sc == "RCP8.5" {
			factor = 2.5
		}
		for _, z := range zones {
			base := 30.0
			if !z.coastal {
				base = 6
			}
			for _, y := range []int{2050, 2100} {
				scale := factor
				if y == 2050 {
					scale /= 2
				}
				rows = append(rows, warehouse.Row{
					warehouse.ColScenario:      sc,
					warehouse.ColZoneGeo:       z.geo,
					warehouse.ColYear:          y,
					warehouse.ColScenarioDelta: round(base*scale+rng.Float64()*3, 1),
				})
			}
		}
	}
	return rows
}

// rainfallRows emits monthly rainfall with heavy summer months. Island-wide
// storm months push every station above 100mm on several days; local showers
// never exceed one such day. One station month in fifty is reported without a
// 24h maximum.
func rainfallRows(rng *rand.Rand, stations []station) []warehouse.Row {
	type yearMonth struct{ year, month int }
	storms := make(map[yearMonth]bool)
	for y := firstRainfallYear; y <= lastYear; y++ {
		for _, m := range []int{1, 2, 3, 12} {
			storms[yearMonth{y, m}] = rng.IntN(4) == 0
		}
	}

	var rows []warehouse.Row
	for _, s := range stations {
		wet := 1.0
		if s.z.geo == "AV_C" || s.z.geo == "AV_H" {
			wet = 2.2
		}
		for y := firstRainfallYear; y <= lastYear; y++ {
			for m := 1; m <= 12; m++ {
				summer := m <= 3 || m == 12
				rr := (60 + rng.Float64()*120) * wet
				days := 0
				switch {
				case storms[yearMonth{y, m}]:
					rr = rr*2.5 + 600 + rng.Float64()*900
					days = 2 + rng.IntN(3)
				case summer:
					rr *= 2.5
					if rng.IntN(10) == 0 {
						days = 1
					}
				}
				maxDaily := any(round(rr/(3+rng.Float64()*4), 1))
				if rng.IntN(50) == 0 {
					maxDaily = nil
				}
				rows = append(rows, warehouse.Row{
					warehouse.ColStation:       s.id,
					warehouse.ColYear:          y,
					warehouse.ColMonth:         m,
					warehouse.ColRainfall:      round(rr, 1),
					warehouse.ColMaxDaily:      maxDaily,
					warehouse.ColDaysOver100mm: days,
				})
			}
		}
	}
	return rows
}

// cycloneYears get gust counts above the cyclone threshold.
var cycloneYears = map[int]bool{1962: true, 1980: true, 1989: true, 2002: true, 2007: true, 2018: true}

func windRainRows(rng *rand.Rand, stations []station) []warehouse.Row {
	var rows []warehouse.Row
	for _, s := range stations {
		for y := firstYear; y <= lastYear; y++ {
			wind := 8 + rng.Float64()*20
			rain := 600 + rng.Float64()*3500
			if cycloneYears[y] {
				wind = 34 + rng.Float64()*10
				rain = 5200 + rng.Float64()*2000
			}
			rows = append(rows, warehouse.Row{
				warehouse.ColStation:     s.id,
				warehouse.ColYear:        y,
				warehouse.ColWindDays:    round(wind, 1),
				warehouse.ColMaxRainfall: round(rain, 1),
			})
		}
	}
	return rows
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
