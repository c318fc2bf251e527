// Command validate performs integrity checks on a warehouse fixture directory
// and, optionally, on report JSON written by genmock. It rebuilds every report
// from the fixtures and verifies ordering, joins, derived values, labels, and
// that the stored reports still match the current build.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -fixtures data/mock/warehouse \
//	  -reports data/mock/reports
package main

import (
	"cmp"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/couchcryptid/reunion-climate-etl/internal/domain"
	"github.com/couchcryptid/reunion-climate-etl/internal/report"
	"github.com/couchcryptid/reunion-climate-etl/internal/warehouse"
	gocmp "github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// built holds every report rebuilt from the fixtures.
type built struct {
	hotDays     report.HotDaysReport
	warmNights  report.WarmNightsReport
	projections report.ProjectionReport
	rainfall    report.RainfallReport
	severity    report.SeverityReport
}

func main() {
	fixtures := flag.String("fixtures", "", "directory containing warehouse fixture files")
	reports := flag.String("reports", "", "optional directory containing report JSON written by genmock")
	flag.Parse()

	if *fixtures == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*fixtures, *reports); code != 0 {
		os.Exit(code)
	}
}

func run(fixtureDir, reportsDir string) int {
	fmt.Println("=== Climate Report Integrity Validation ===")
	fmt.Println()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := report.DefaultOptions()

	catalog, err := warehouse.NewCatalog(warehouse.DefaultTables(), opts.Window.Horizon)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: catalog: %v\n", err)
		return 1
	}
	classifier, err := domain.NewClassifier(domain.DefaultThresholds())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: classifier: %v\n", err)
		return 1
	}
	source := warehouse.NewSource(warehouse.NewFixtureRunner(fixtureDir), catalog, logger)
	builder, err := report.NewBuilder(source, classifier, nil, opts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: builder: %v\n", err)
		return 1
	}

	coverage := validateFixtures(ctx, fixtureDir, source, catalog)
	if !coverage.passed() {
		return printResults([]*phase{coverage})
	}

	var b built
	if b, err = buildAll(ctx, builder); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build reports: %v\n", err)
		return 1
	}

	phases := []*phase{
		coverage,
		validateAggregates(b),
		validateProjections(b, opts.Window),
		validateRainfallEvents(b, opts.RainEventMinDays),
		validateSeverity(b, classifier),
	}
	if reportsDir != "" {
		phases = append(phases, validateSnapshots(ctx, builder, reportsDir))
	}

	fmt.Printf("Reports: %d hot day rows, %d warm night rows, %d projections, %d rainfall events, %d classified years\n",
		b.hotDays.Rows(), b.warmNights.Rows(), b.projections.Rows(), b.rainfall.Rows(), b.severity.Rows())
	return printResults(phases)
}

func printResults(phases []*phase) int {
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func buildAll(ctx context.Context, builder *report.Builder) (built, error) {
	var b built
	var err error
	if b.hotDays, err = builder.HotDays(ctx, "", 0); err != nil {
		return b, err
	}
	if b.warmNights, err = builder.WarmNights(ctx); err != nil {
		return b, err
	}
	if b.projections, err = builder.Projections(ctx, ""); err != nil {
		return b, err
	}
	if b.rainfall, err = builder.RainfallEvents(ctx, -1); err != nil {
		return b, err
	}
	if b.severity, err = builder.Severity(ctx); err != nil {
		return b, err
	}
	return b, nil
}

// ── Fixtures ──

func validateFixtures(ctx context.Context, dir string, source *warehouse.Source, catalog warehouse.Catalog) *phase {
	p := &phase{name: "Phase 1: Fixture coverage"}

	for _, q := range catalog.All() {
		if _, err := os.Stat(filepath.Join(dir, warehouse.FixtureFile(q.Name))); err != nil {
			p.errorf("query %s: %v", q.Name, err)
		}
	}

	checks := []struct {
		name string
		load func() (int, error)
	}{
		{warehouse.QueryStations, func() (int, error) { r, err := source.Stations(ctx); return len(r), err }},
		{warehouse.QueryHotDays, func() (int, error) { r, err := source.HotDays(ctx); return len(r), err }},
		{warehouse.QueryWarmNights, func() (int, error) { r, err := source.WarmNights(ctx); return len(r), err }},
		{warehouse.QueryScenarioDeltas, func() (int, error) { r, err := source.ScenarioDeltas(ctx); return len(r), err }},
		{warehouse.QueryMonthlyRainfall, func() (int, error) { r, err := source.MonthlyRainfall(ctx); return len(r), err }},
		{warehouse.QueryWindRain, func() (int, error) { r, err := source.WindRain(ctx); return len(r), err }},
	}
	for _, c := range checks {
		n, err := c.load()
		switch {
		case err != nil:
			p.errorf("%s: %v", c.name, err)
		case n == 0:
			p.errorf("%s: no usable rows", c.name)
		default:
			fmt.Printf("  %-24s %6d rows\n", c.name, n)
		}
	}
	return p
}

// ── Aggregates ──

func validateAggregates(b built) *phase {
	p := &phase{name: "Phase 2: Aggregation invariants"}
	checkSummaries(p, "hot_days", b.hotDays.Summaries)
	checkSummaries(p, "warm_nights", b.warmNights.Summaries)

	for _, s := range b.warmNights.Summaries {
		if s.Year < b.warmNights.FromYear {
			p.errorf("warm_nights: year %d before %d", s.Year, b.warmNights.FromYear)
			break
		}
	}
	for i := 1; i < len(b.hotDays.Ranking); i++ {
		if b.hotDays.Ranking[i].Mean > b.hotDays.Ranking[i-1].Mean {
			p.errorf("hot_days ranking: %s ranked below a smaller mean", b.hotDays.Ranking[i].ZoneClim)
		}
	}
	return p
}

func checkSummaries(p *phase, name string, rows []domain.ZoneYearSummary) {
	for i, r := range rows {
		if r.Stations < 1 {
			p.errorf("%s[%d]: %d stations", name, i, r.Stations)
		}
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) || r.Value < 0 {
			p.errorf("%s[%d]: invalid value %v", name, i, r.Value)
		}
		if i == 0 {
			continue
		}
		prev := rows[i-1]
		c := cmp.Or(
			cmp.Compare(prev.Year, r.Year),
			cmp.Compare(prev.Month, r.Month),
			cmp.Compare(prev.ZoneClim, r.ZoneClim),
			cmp.Compare(prev.ZoneGeo, r.ZoneGeo),
		)
		if c >= 0 {
			p.errorf("%s[%d]: key (%d, %s, %s) not strictly after its predecessor", name, i, r.Year, r.ZoneClim, r.ZoneGeo)
		}
	}
}

// ── Projections ──

func validateProjections(b built, w domain.Window) *phase {
	p := &phase{name: "Phase 3: Projection joins"}

	type key struct{ scenario, zoneClim, zoneGeo string }
	seen := make(map[key]bool, len(b.projections.Projections))
	for i, row := range b.projections.Projections {
		k := key{row.Scenario, row.ZoneClim, row.ZoneGeo}
		if seen[k] {
			p.errorf("projection[%d]: duplicate %v", i, k)
		}
		seen[k] = true
		if row.HorizonYear != w.Horizon {
			p.errorf("projection[%d]: horizon %d, want %d", i, row.HorizonYear, w.Horizon)
		}
		if row.Stations < 1 {
			p.errorf("projection[%d]: no baseline stations", i)
		}
		if !floatEq(row.Projected(), row.Baseline+row.Delta) {
			p.errorf("projection[%d]: projected %v != %v + %v", i, row.Projected(), row.Baseline, row.Delta)
		}
	}

	// The projected value on the wire must be recomputed, not stored.
	data, err := json.Marshal(b.projections.Projections)
	if err != nil {
		p.errorf("marshal projections: %v", err)
		return p
	}
	var wire []map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		p.errorf("unmarshal projections: %v", err)
		return p
	}
	for i, m := range wire {
		row := b.projections.Projections[i]
		if v, ok := m["projected"].(float64); !ok || !floatEq(v, row.Baseline+row.Delta) {
			p.errorf("projection[%d]: wire projected %v", i, m["projected"])
		}
	}

	if len(b.projections.Summaries) != len(b.projections.Scenarios) {
		p.errorf("%d summaries for %d scenarios", len(b.projections.Summaries), len(b.projections.Scenarios))
	}
	return p
}

// ── Rainfall events ──

func validateRainfallEvents(b built, minDays float64) *phase {
	p := &phase{name: "Phase 4: Rainfall event detection"}
	stats := b.rainfall.Stats

	if stats.Total != len(b.rainfall.Events) {
		p.errorf("stats total %d != %d events", stats.Total, len(b.rainfall.Events))
	}
	for _, e := range b.rainfall.Events {
		if e.DaysOver100mm <= minDays {
			p.errorf("event %s: %v days over 100mm, want > %v", e.DateKey, e.DaysOver100mm, minDays)
		}
		if e.DateKey != fmt.Sprintf("%04d%02d", e.Year, e.Month) {
			p.errorf("event %s: date key does not match %d-%02d", e.DateKey, e.Year, e.Month)
		}
	}

	perYear := 0
	for _, yc := range stats.PerYear {
		perYear += yc.Count
	}
	perMonth := 0
	for _, mc := range stats.PerMonth {
		perMonth += mc.Count
		if mc.Label != domain.MonthShortLabel(mc.Month) {
			p.errorf("month %d labelled %q", mc.Month, mc.Label)
		}
	}
	if perYear != stats.Total || perMonth != stats.Total {
		p.errorf("per-year (%d) and per-month (%d) counts do not sum to %d", perYear, perMonth, stats.Total)
	}
	return p
}

// ── Severity ──

func validateSeverity(b built, classifier *domain.Classifier) *phase {
	p := &phase{name: "Phase 5: Severity classification"}
	t := classifier.Thresholds()

	for _, y := range b.severity.Years {
		want, err := classifier.Classify(y.WindValue, y.RainValue)
		if err != nil {
			p.errorf("year %d: %v", y.Year, err)
			continue
		}
		if y.Wind != want.Wind || y.Rain != want.Rain || y.Major != want.Major {
			p.errorf("year %d: labels (%s, %s, %s), want (%s, %s, %s)",
				y.Year, y.Wind, y.Rain, y.Major, want.Wind, want.Rain, want.Major)
		}
		major := y.WindValue > t.WindCyclone && y.RainValue > t.RainVeryWet
		if major != (y.Major == domain.MajorCyclone) {
			p.errorf("year %d: major episode %q with wind %v and rain %v", y.Year, y.Major, y.WindValue, y.RainValue)
		}
	}

	for _, d := range b.severity.Distribution {
		counted := 0
		for _, c := range d.Counts {
			counted += c.Count
		}
		expected := 0
		for _, y := range b.severity.Years {
			if y.Year >= d.Period.From && y.Year <= d.Period.To && y.Wind != domain.WindNormal {
				expected++
			}
		}
		if counted != expected {
			p.errorf("period %s: %d labelled years, want %d", d.Period.Label, counted, expected)
		}
	}
	return p
}

// ── Snapshots ──

func validateSnapshots(ctx context.Context, builder *report.Builder, dir string) *phase {
	p := &phase{name: "Phase 6: Stored report snapshots"}

	for _, name := range report.Names() {
		path := filepath.Join(dir, name+".json")
		stored, err := loadJSON(path)
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		rep, _, err := builder.Build(ctx, name)
		if err != nil {
			p.errorf("%s: build: %v", name, err)
			continue
		}
		data, err := json.Marshal(rep)
		if err != nil {
			p.errorf("%s: marshal: %v", name, err)
			continue
		}
		var current any
		if err := json.Unmarshal(data, &current); err != nil {
			p.errorf("%s: unmarshal: %v", name, err)
			continue
		}
		if diff := gocmp.Diff(stored, current); diff != "" {
			p.errorf("%s: stored report differs from build (-stored +built):\n%s", name, diff)
		}
	}
	return p
}

func loadJSON(path string) (any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from a CLI flag
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
