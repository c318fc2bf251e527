// Command genmock writes deterministic warehouse fixtures for local runs and
// tests. With -reports-out it also builds every report from those fixtures and
// writes the JSON the dashboards would receive.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/warehouse \
//	  -reports-out data/mock/reports \
//	  -seed 974
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/reunion-climate-etl/internal/domain"
	"github.com/couchcryptid/reunion-climate-etl/internal/mockdata"
	"github.com/couchcryptid/reunion-climate-etl/internal/report"
	"github.com/couchcryptid/reunion-climate-etl/internal/warehouse"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory for the warehouse fixture files")
	reportsOut := flag.String("reports-out", "", "optional directory for the built report JSON")
	seed := flag.Uint64("seed", mockdata.DefaultSeed, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	data := mockdata.Generate(*seed)
	if err := data.Write(*out); err != nil {
		return err
	}
	for _, name := range data.Names() {
		log.Printf("%s: %d rows", name, len(data[name]))
	}

	if *reportsOut == "" {
		return nil
	}
	return writeReports(*out, *reportsOut)
}

// writeReports builds every report from the fixture directory.
func writeReports(fixtureDir, outDir string) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog, err := warehouse.NewCatalog(warehouse.DefaultTables(), domain.DefaultWindow().Horizon)
	if err != nil {
		return err
	}
	classifier, err := domain.NewClassifier(domain.DefaultThresholds())
	if err != nil {
		return err
	}
	source := warehouse.NewSource(warehouse.NewFixtureRunner(fixtureDir), catalog, logger)
	builder, err := report.NewBuilder(source, classifier, nil, report.DefaultOptions(), logger)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil { //nolint:gosec // fixture output is world-readable
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	for _, name := range report.Names() {
		rep, rows, err := builder.Build(context.Background(), name)
		if err != nil {
			return fmt.Errorf("build %s: %w", name, err)
		}
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		path := filepath.Join(outDir, name+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // fixture output is world-readable
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("report %s: %d rows -> %s", name, rows, path)
	}
	return nil
}
