package domain

import (
	"cmp"
	"slices"
)

// ZoneGroup is a named set of geographic zones analysed together.
type ZoneGroup struct {
	Name  string
	Zones []string
}

var (
	// CoastalZones are the warm low-altitude zones on both coasts.
	CoastalZones = ZoneGroup{Name: "Zones côtières (AV_C + SSV_C)", Zones: []string{"AV_C", "SSV_C"}}
	// HighlandZones are the high-altitude zones on both coasts.
	HighlandZones = ZoneGroup{Name: "Zones montagneuses (AV_H + SSV_H)", Zones: []string{"AV_H", "SSV_H"}}
)

// DefaultZoneGroups returns the groups used for trend overlays.
func DefaultZoneGroups() []ZoneGroup {
	return []ZoneGroup{CoastalZones, HighlandZones}
}

// Contains reports whether zone belongs to the group.
func (g ZoneGroup) Contains(zone string) bool {
	return slices.Contains(g.Zones, zone)
}

// GroupYearMeans averages the summaries of the group's geographic zones per year.
func GroupYearMeans(summaries []ZoneYearSummary, g ZoneGroup) []Point {
	pts := make([]Point, 0, len(summaries))
	for _, s := range summaries {
		if g.Contains(s.ZoneGeo) {
			pts = append(pts, Point{Year: s.Year, Value: s.Value})
		}
	}
	return YearlyMeans(pts)
}

// FilterFromYear drops summaries older than year.
func FilterFromYear(summaries []ZoneYearSummary, year int) []ZoneYearSummary {
	out := make([]ZoneYearSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.Year >= year {
			out = append(out, s)
		}
	}
	return out
}

// FilterClimZone keeps summaries of one climate zone. An empty zone keeps everything.
func FilterClimZone(summaries []ZoneYearSummary, zoneClim string) []ZoneYearSummary {
	if zoneClim == "" {
		return summaries
	}
	out := make([]ZoneYearSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.ZoneClim == zoneClim {
			out = append(out, s)
		}
	}
	return out
}

// GroupIncrease is the change of a yearly series between its first and last year.
type GroupIncrease struct {
	Group     string  `json:"group"`
	FromYear  int     `json:"from_year"`
	ToYear    int     `json:"to_year"`
	FromValue float64 `json:"from_value"`
	ToValue   float64 `json:"to_value"`
	Change    float64 `json:"change"`
}

// Increase compares the first and last yearly means of points.
// It reports false for an empty series.
func Increase(group string, points []Point) (GroupIncrease, bool) {
	series := YearlyMeans(points)
	if len(series) == 0 {
		return GroupIncrease{}, false
	}
	first, last := series[0], series[len(series)-1]
	return GroupIncrease{
		Group:     group,
		FromYear:  first.Year,
		ToYear:    last.Year,
		FromValue: first.Value,
		ToValue:   last.Value,
		Change:    last.Value - first.Value,
	}, true
}

// Deviation compares one year's mean against the mean of the whole series.
type Deviation struct {
	Year           int     `json:"year"`
	YearMean       float64 `json:"year_mean"`
	HistoricalMean float64 `json:"historical_mean"`
	Delta          float64 `json:"delta"`
	// GlobalYearMean is the island-wide mean of the year across every zone,
	// regardless of any zone filter. Set by the hot days report.
	GlobalYearMean float64 `json:"global_year_mean"`
}

// YearDeviation computes the mean of the year's rows minus the mean of all rows.
// It reports false when the year has no rows.
func YearDeviation(summaries []ZoneYearSummary, year int) (Deviation, bool) {
	var yearSum, allSum float64
	var yearN int
	for _, s := range summaries {
		allSum += s.Value
		if s.Year == year {
			yearSum += s.Value
			yearN++
		}
	}
	if yearN == 0 {
		return Deviation{}, false
	}
	d := Deviation{
		Year:           year,
		YearMean:       yearSum / float64(yearN),
		HistoricalMean: allSum / float64(len(summaries)),
	}
	d.Delta = d.YearMean - d.HistoricalMean
	return d, true
}

// ZoneMean is the full-period mean of one climate zone.
type ZoneMean struct {
	ZoneClim string  `json:"z_clim"`
	Mean     float64 `json:"mean"`
}

// RankZones returns the full-period mean per climate zone, highest first.
func RankZones(summaries []ZoneYearSummary) []ZoneMean {
	type acc struct {
		sum float64
		n   int
	}
	byZone := make(map[string]*acc)
	for _, s := range summaries {
		a, ok := byZone[s.ZoneClim]
		if !ok {
			a = &acc{}
			byZone[s.ZoneClim] = a
		}
		a.sum += s.Value
		a.n++
	}
	out := make([]ZoneMean, 0, len(byZone))
	for z, a := range byZone {
		out = append(out, ZoneMean{ZoneClim: z, Mean: a.sum / float64(a.n)})
	}
	slices.SortFunc(out, func(a, b ZoneMean) int {
		return cmp.Or(cmp.Compare(b.Mean, a.Mean), cmp.Compare(a.ZoneClim, b.ZoneClim))
	})
	return out
}

// ClimZones returns the distinct climate zones in sorted order.
func ClimZones(summaries []ZoneYearSummary) []string {
	var out []string
	for _, s := range summaries {
		if !slices.Contains(out, s.ZoneClim) {
			out = append(out, s.ZoneClim)
		}
	}
	slices.Sort(out)
	return out
}

// YearCount is the number of detected events in one year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// MonthCount is the number of detected events in one calendar month.
type MonthCount struct {
	Month int    `json:"month"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RainEventStats are the headline figures of the detected rainfall events.
type RainEventStats struct {
	Total           int             `json:"total"`
	MostAffected    int             `json:"most_affected_year,omitempty"`
	MaxRainfall     float64         `json:"max_monthly_rainfall"`
	MaxDaysOver100  float64         `json:"max_days_over_100mm"`
	PerYear         []YearCount     `json:"per_year"`
	PerMonth        []MonthCount    `json:"per_month"`
	MostIntenseTopN []RainfallMonth `json:"most_intense"`
}

// SummarizeRainEvents counts events per year and per month and keeps the topN
// months with the largest rainfall. The most affected year is the earliest
// among the years with the most events.
func SummarizeRainEvents(events []RainfallMonth, topN int) RainEventStats {
	stats := RainEventStats{
		Total:           len(events),
		PerYear:         []YearCount{},
		PerMonth:        []MonthCount{},
		MostIntenseTopN: []RainfallMonth{},
	}
	if len(events) == 0 {
		return stats
	}

	perYear := make(map[int]int)
	perMonth := make(map[int]int)
	for i, e := range events {
		perYear[e.Year]++
		perMonth[e.Month]++
		if i == 0 || e.Rainfall > stats.MaxRainfall {
			stats.MaxRainfall = e.Rainfall
		}
		if i == 0 || e.DaysOver100mm > stats.MaxDaysOver100 {
			stats.MaxDaysOver100 = e.DaysOver100mm
		}
	}

	for y, c := range perYear {
		stats.PerYear = append(stats.PerYear, YearCount{Year: y, Count: c})
	}
	slices.SortFunc(stats.PerYear, func(a, b YearCount) int { return cmp.Compare(a.Year, b.Year) })
	best := 0
	for _, yc := range stats.PerYear {
		if yc.Count > best {
			best = yc.Count
			stats.MostAffected = yc.Year
		}
	}

	for m, c := range perMonth {
		stats.PerMonth = append(stats.PerMonth, MonthCount{Month: m, Label: MonthShortLabel(m), Count: c})
	}
	slices.SortFunc(stats.PerMonth, func(a, b MonthCount) int { return cmp.Compare(a.Month, b.Month) })

	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b RainfallMonth) int { return cmp.Compare(b.Rainfall, a.Rainfall) })
	if topN >= 0 && topN < len(sorted) {
		sorted = sorted[:topN]
	}
	stats.MostIntenseTopN = sorted
	return stats
}

// Period is an inclusive year range.
type Period struct {
	Label string `json:"label"`
	From  int    `json:"from"`
	To    int    `json:"to"`
}

// DefaultPeriods are the historical periods compared in the severity distribution.
func DefaultPeriods() []Period {
	return []Period{
		{Label: "1952 - 1995", From: 1952, To: 1995},
		{Label: "1996 - 2025", From: 1996, To: 2025},
	}
}

// SeverityCount is the number of years carrying a wind label.
type SeverityCount struct {
	Wind  WindSeverity `json:"wind_severity"`
	Count int          `json:"count"`
}

// SeverityDistribution counts the non-Normal wind labels within the period,
// ordered by decreasing severity.
func SeverityDistribution(classes []SeverityClassification, p Period) []SeverityCount {
	counts := make(map[WindSeverity]int)
	for _, c := range classes {
		if c.Year < p.From || c.Year > p.To || c.Wind == WindNormal {
			continue
		}
		counts[c.Wind]++
	}
	out := make([]SeverityCount, 0, len(counts))
	for w, n := range counts {
		out = append(out, SeverityCount{Wind: w, Count: n})
	}
	slices.SortFunc(out, func(a, b SeverityCount) int { return cmp.Compare(b.Wind.Rank(), a.Wind.Rank()) })
	return out
}

var (
	monthLabels = [...]string{
		"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
		"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
	}
	monthShortLabels = [...]string{
		"Jan", "Fév", "Mar", "Avr", "Mai", "Jun",
		"Jul", "Aoû", "Sep", "Oct", "Nov", "Déc",
	}
)

// MonthLabel returns the French month name, or "" outside 1..12.
func MonthLabel(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthLabels[m-1]
}

// MonthShortLabel returns the abbreviated French month name, or "" outside 1..12.
func MonthShortLabel(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthShortLabels[m-1]
}
