package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/reunion-climate-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Options tunes the reports.
type Options struct {
	Window             domain.Window
	WarmNightsFromYear int
	RainEventMinDays   float64
	Periods            []domain.Period
}

// DefaultOptions returns the settings used by the dashboards.
func DefaultOptions() Options {
	return Options{
		Window:             domain.DefaultWindow(),
		WarmNightsFromYear: 1983,
		RainEventMinDays:   domain.DefaultRainEventMinDays,
		Periods:            domain.DefaultPeriods(),
	}
}

// Builder composes the warehouse source with the domain stages.
type Builder struct {
	source     Source
	classifier *domain.Classifier
	geocoder   domain.Geocoder
	opts       Options
	logger     *slog.Logger
}

// NewBuilder creates a report builder. geocoder may be nil, in which case
// projection rows carry no locality.
func NewBuilder(source Source, classifier *domain.Classifier, geocoder domain.Geocoder, opts Options, logger *slog.Logger) (*Builder, error) {
	if err := opts.Window.Validate(); err != nil {
		return nil, fmt.Errorf("report options: %w", err)
	}
	return &Builder{
		source:     source,
		classifier: classifier,
		geocoder:   geocoder,
		opts:       opts,
		logger:     logger,
	}, nil
}

// Options returns the builder settings.
func (b *Builder) Options() Options {
	return b.opts
}

// HotDays aggregates the yearly hot days by (year, climate zone, geo zone).
// A non-empty zoneClim restricts the summaries; a non-zero year adds the
// deviation of that year from the historical mean, alongside the island-wide
// mean of that year.
func (b *Builder) HotDays(ctx context.Context, zoneClim string, year int) (HotDaysReport, error) {
	records, err := b.source.HotDays(ctx)
	if err != nil {
		return HotDaysReport{}, fmt.Errorf("load hot days: %w", err)
	}
	all, err := domain.Aggregate(records, domain.ByYearZone, domain.ReduceSum)
	if err != nil {
		return HotDaysReport{}, fmt.Errorf("aggregate hot days: %w", err)
	}

	summaries := domain.FilterClimZone(all, zoneClim)
	rep := HotDaysReport{
		ZoneClim:  zoneClim,
		Year:      year,
		ClimZones: domain.ClimZones(all),
		Summaries: summaries,
		Ranking:   domain.RankZones(all),
		Trends:    []domain.TrendLine{},
	}
	if rep.ClimZones == nil {
		rep.ClimZones = []string{}
	}
	if year != 0 {
		if d, ok := domain.YearDeviation(summaries, year); ok {
			if global, ok := domain.YearDeviation(all, year); ok {
				d.GlobalYearMean = global.YearMean
			}
			rep.Deviation = &d
		}
	}

	for _, z := range domain.ClimZones(summaries) {
		zone := domain.FilterClimZone(summaries, z)
		pts := make([]domain.Point, 0, len(zone))
		for _, s := range zone {
			pts = append(pts, domain.Point{Year: s.Year, Value: s.Value})
		}
		if line, ok := domain.FitTrend(z, pts); ok {
			rep.Trends = append(rep.Trends, line)
		}
	}
	return rep, nil
}

// WarmNights aggregates the yearly warm nights by (year, geo zone) from the
// configured first complete year, with coastal and highland trends.
func (b *Builder) WarmNights(ctx context.Context) (WarmNightsReport, error) {
	records, err := b.source.WarmNights(ctx)
	if err != nil {
		return WarmNightsReport{}, fmt.Errorf("load warm nights: %w", err)
	}
	all, err := domain.Aggregate(records, domain.ByYearGeoZone, domain.ReduceSum)
	if err != nil {
		return WarmNightsReport{}, fmt.Errorf("aggregate warm nights: %w", err)
	}

	summaries := domain.FilterFromYear(all, b.opts.WarmNightsFromYear)
	rep := WarmNightsReport{
		FromYear:  b.opts.WarmNightsFromYear,
		Summaries: summaries,
		Groups:    make([]GroupSeries, 0, 2),
	}
	for _, g := range domain.DefaultZoneGroups() {
		pts := domain.GroupYearMeans(summaries, g)
		gs := GroupSeries{Group: g.Name, Points: pts}
		if line, ok := domain.FitTrend(g.Name, pts); ok {
			gs.Trend = &line
		}
		if inc, ok := domain.Increase(g.Name, pts); ok {
			gs.Increase = &inc
		}
		rep.Groups = append(rep.Groups, gs)
	}
	return rep, nil
}

// Projections projects the hot days at the horizon year for every scenario, or
// only for scenario when it is non-empty. The three inputs are fetched concurrently.
func (b *Builder) Projections(ctx context.Context, scenario string) (ProjectionReport, error) {
	var (
		stations []domain.Station
		history  []domain.StationRecord
		deltas   []domain.ScenarioDelta
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stations, err = b.source.Stations(gctx)
		if err != nil {
			return fmt.Errorf("load stations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		history, err = b.source.HotDays(gctx)
		if err != nil {
			return fmt.Errorf("load station history: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		deltas, err = b.source.ScenarioDeltas(gctx)
		if err != nil {
			return fmt.Errorf("load scenario deltas: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ProjectionReport{}, err
	}

	rows, err := domain.Project(stations, history, deltas, b.opts.Window)
	if err != nil {
		return ProjectionReport{}, fmt.Errorf("project: %w", err)
	}

	scenarios := domain.Scenarios(rows)
	if scenarios == nil {
		scenarios = []string{}
	}
	if scenario != "" {
		filtered := make([]domain.BaselineProjection, 0, len(rows))
		for _, r := range rows {
			if r.Scenario == scenario {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	rows = domain.EnrichWithLocality(ctx, rows, b.geocoder, b.logger)

	rep := ProjectionReport{
		Scenario: scenario,
		Window: Window{
			BaselineFrom: b.opts.Window.BaselineFrom,
			BaselineTo:   b.opts.Window.BaselineTo,
			Horizon:      b.opts.Window.Horizon,
		},
		Scenarios:   scenarios,
		Projections: rows,
		Summaries:   []domain.ProjectionSummary{},
	}
	for _, s := range domain.Scenarios(rows) {
		if sum, ok := domain.SummarizeProjection(rows, s); ok {
			rep.Summaries = append(rep.Summaries, sum)
		}
	}
	return rep, nil
}

// RainfallEvents detects the months with repeated days above 100mm and keeps
// the top most intense months. A negative top keeps them all.
func (b *Builder) RainfallEvents(ctx context.Context, top int) (RainfallReport, error) {
	records, err := b.source.MonthlyRainfall(ctx)
	if err != nil {
		return RainfallReport{}, fmt.Errorf("load monthly rainfall: %w", err)
	}
	months, err := domain.AggregateRainfall(records)
	if err != nil {
		return RainfallReport{}, fmt.Errorf("aggregate rainfall: %w", err)
	}
	events := domain.DetectRainEvents(months, b.opts.RainEventMinDays)
	return RainfallReport{
		MinDays: b.opts.RainEventMinDays,
		Events:  events,
		Stats:   domain.SummarizeRainEvents(events, top),
	}, nil
}

// Severity labels every year from its cross-station wind and rain means and
// counts the labels per configured period.
func (b *Builder) Severity(ctx context.Context) (SeverityReport, error) {
	records, err := b.source.WindRain(ctx)
	if err != nil {
		return SeverityReport{}, fmt.Errorf("load wind and rain: %w", err)
	}
	years, err := domain.AggregateWindRain(records)
	if err != nil {
		return SeverityReport{}, fmt.Errorf("aggregate wind and rain: %w", err)
	}
	classes, err := b.classifier.ClassifyYears(years)
	if err != nil {
		return SeverityReport{}, err
	}

	rep := SeverityReport{
		Thresholds:   b.classifier.Thresholds(),
		Years:        classes,
		Distribution: make([]PeriodDistribution, 0, len(b.opts.Periods)),
	}
	for _, p := range b.opts.Periods {
		rep.Distribution = append(rep.Distribution, PeriodDistribution{
			Period: p,
			Counts: domain.SeverityDistribution(classes, p),
		})
	}
	return rep, nil
}

// Classify labels a single (wind, rain) pair.
func (b *Builder) Classify(wind, rain float64) (domain.SeverityClassification, error) {
	return b.classifier.Classify(wind, rain)
}

// Build builds the named report with default parameters, as published on refresh.
func (b *Builder) Build(ctx context.Context, name string) (any, int, error) {
	switch name {
	case NameHotDays:
		r, err := b.HotDays(ctx, "", 0)
		return r, r.Rows(), err
	case NameWarmNights:
		r, err := b.WarmNights(ctx)
		return r, r.Rows(), err
	case NameProjections:
		r, err := b.Projections(ctx, "")
		return r, r.Rows(), err
	case NameRainfallEvents:
		r, err := b.RainfallEvents(ctx, defaultTopEvents)
		return r, r.Rows(), err
	case NameSeverity:
		r, err := b.Severity(ctx)
		return r, r.Rows(), err
	default:
		return nil, 0, fmt.Errorf("unknown report %q", name)
	}
}

const defaultTopEvents = 10
