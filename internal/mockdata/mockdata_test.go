package mockdata

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/reunion-climate-etl/internal/warehouse"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(DefaultSeed)
	b := Generate(DefaultSeed)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different data (-a +b):\n%s", diff)
	}

	c := Generate(DefaultSeed + 1)
	assert.NotEqual(t, a[warehouse.QueryHotDays], c[warehouse.QueryHotDays])
}

func TestGenerate_CoversEveryQuery(t *testing.T) {
	catalog, err := warehouse.NewCatalog(warehouse.DefaultTables(), 2100)
	require.NoError(t, err)

	d := Generate(DefaultSeed)
	want := make([]string, 0, len(catalog.All()))
	for _, q := range catalog.All() {
		want = append(want, q.Name)
		assert.NotEmpty(t, d[q.Name], q.Name)
	}
	assert.ElementsMatch(t, want, d.Names())
}

func TestDataset_WriteReadsBack(t *testing.T) {
	dir := t.TempDir()
	d := Generate(DefaultSeed)
	require.NoError(t, d.Write(dir))

	catalog, err := warehouse.NewCatalog(warehouse.DefaultTables(), 2100)
	require.NoError(t, err)
	src := warehouse.NewSource(warehouse.NewFixtureRunner(dir), catalog, slog.New(slog.NewTextHandler(io.Discard, nil)))

	stations, err := src.Stations(context.Background())
	require.NoError(t, err)
	assert.Len(t, stations, len(zones)*stationsPerZone)

	deltas, err := src.ScenarioDeltas(context.Background())
	require.NoError(t, err)
	assert.Len(t, deltas, len(Scenarios)*len(zones)*2)

	rainfall, err := src.MonthlyRainfall(context.Background())
	require.NoError(t, err)
	assert.Less(t, len(rainfall), len(d[warehouse.QueryMonthlyRainfall]), "rows without a 24h maximum are skipped")
}
