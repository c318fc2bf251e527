package warehouse

import (
	"fmt"
	"regexp"
)

// Query names. They double as fixture file names and metric labels.
const (
	QueryMonthlyRainfall = "monthly_rainfall"
	QueryHotDays         = "hot_days"
	QueryWarmNights      = "warm_nights"
	QueryScenarioDeltas  = "scenario_deltas"
	QueryStations        = "stations"
	QueryWindRain        = "wind_rain"
)

// Column names, following the Météo-France tables.
const (
	ColStation       = "NUM_POSTE"
	ColYear          = "ANNEE"
	ColMonth         = "MOIS"
	ColZoneGeo       = "Z_GEO"
	ColZoneClim      = "Z_CLIM"
	ColLat           = "LAT"
	ColLon           = "LON"
	ColRainfall      = "RR"
	ColMaxDaily      = "RRAB"
	ColDaysOver100mm = "NBJRR100"
	ColHotDays       = "total_jours_sup_32c_annuel"
	ColWarmNights    = "total_nuits_ge_20_annuel"
	ColScenario      = "Scenario"
	ColScenarioDelta = "NBJTXS32"
	ColWindDays      = "NBJFXI3S16X"
	ColMaxRainfall   = "RRMX"
)

// Tables holds the fully qualified table ids read by the catalog.
type Tables struct {
	Rainfall   string
	HotDays    string
	WarmNights string
	Stations   string
	Scenarios  string
	WindRain   string
}

// DefaultTables returns the production table ids.
func DefaultTables() Tables {
	return Tables{
		Rainfall:   "cc-reunion.data_meteofrance.stg_mensq_pluviometrie",
		HotDays:    "cc-reunion.MENS_meteofrance.Table_NBJTXS32_ANNEE",
		WarmNights: "cc-reunion.MENS_meteofrance.Table_NBJTNS20_ANNEE",
		Stations:   "cc-reunion.MENS_meteofrance.stations",
		Scenarios:  "cc-reunion.MENS_meteofrance.Table_sim_2100",
		WindRain:   "cc-reunion.data_meteofrance.stg_ann_vent_pluie",
	}
}

var tableIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+){1,2}$`)

// Validate rejects table ids that are empty or could break out of a quoted identifier.
func (t Tables) Validate() error {
	for _, tbl := range []struct{ name, id string }{
		{"rainfall", t.Rainfall},
		{"hot days", t.HotDays},
		{"warm nights", t.WarmNights},
		{"stations", t.Stations},
		{"scenarios", t.Scenarios},
		{"wind/rain", t.WindRain},
	} {
		if !tableIDPattern.MatchString(tbl.id) {
			return fmt.Errorf("invalid %s table id %q", tbl.name, tbl.id)
		}
	}
	return nil
}

// Catalog builds the SQL of every logical source. Queries only select and join
// raw per-station rows; grouping and averaging happen in the domain stages.
type Catalog struct {
	tables  Tables
	horizon int
}

// NewCatalog validates the table ids and returns a Catalog whose scenario
// query is restricted to the horizon year.
func NewCatalog(t Tables, horizon int) (Catalog, error) {
	if err := t.Validate(); err != nil {
		return Catalog{}, err
	}
	return Catalog{tables: t, horizon: horizon}, nil
}

// MonthlyRainfall selects the per-station monthly rainfall metrics.
func (c Catalog) MonthlyRainfall() Query {
	return Query{
		Name: QueryMonthlyRainfall,
		SQL: fmt.Sprintf(
			"SELECT NUM_POSTE, ANNEE, MOIS, RR, RRAB, NBJRR100 FROM `%s`",
			c.tables.Rainfall),
	}
}

// HotDays selects the yearly count of days above 32 °C per station with its zones.
func (c Catalog) HotDays() Query {
	return Query{
		Name: QueryHotDays,
		SQL: fmt.Sprintf(
			"SELECT t1.NUM_POSTE, t1.ANNEE, t2.Z_CLIM, t2.Z_GEO, t1.total_jours_sup_32c_annuel "+
				"FROM `%s` AS t1 INNER JOIN `%s` AS t2 ON t1.NUM_POSTE = t2.NUM_POSTE",
			c.tables.HotDays, c.tables.Stations),
	}
}

// WarmNights selects the yearly count of nights at or above 20 °C per station with its zones.
func (c Catalog) WarmNights() Query {
	return Query{
		Name: QueryWarmNights,
		SQL: fmt.Sprintf(
			"SELECT t1.NUM_POSTE, t1.ANNEE, t2.Z_CLIM, t2.Z_GEO, t1.total_nuits_ge_20_annuel "+
				"FROM `%s` AS t1 INNER JOIN `%s` AS t2 ON t1.NUM_POSTE = t2.NUM_POSTE",
			c.tables.WarmNights, c.tables.Stations),
	}
}

// ScenarioDeltas selects the simulated hot-day deltas at the horizon year.
func (c Catalog) ScenarioDeltas() Query {
	return Query{
		Name: QueryScenarioDeltas,
		SQL: fmt.Sprintf(
			"SELECT Scenario, Z_GEO, EXTRACT(YEAR FROM date_2100) AS ANNEE, NBJTXS32 "+
				"FROM `%s` WHERE EXTRACT(YEAR FROM date_2100) = %d",
			c.tables.Scenarios, c.horizon),
	}
}

// Stations selects station coordinates and zone membership.
func (c Catalog) Stations() Query {
	return Query{
		Name: QueryStations,
		SQL:  fmt.Sprintf("SELECT NUM_POSTE, LAT, LON, Z_GEO, Z_CLIM FROM `%s`", c.tables.Stations),
	}
}

// WindRain selects the yearly wind-intensity days and maximum rainfall per station.
func (c Catalog) WindRain() Query {
	return Query{
		Name: QueryWindRain,
		SQL:  fmt.Sprintf("SELECT NUM_POSTE, ANNEE, NBJFXI3S16X, RRMX FROM `%s`", c.tables.WindRain),
	}
}

// All returns every query of the catalog.
func (c Catalog) All() []Query {
	return []Query{
		c.MonthlyRainfall(),
		c.HotDays(),
		c.WarmNights(),
		c.ScenarioDeltas(),
		c.Stations(),
		c.WindRain(),
	}
}
