package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/reunion-climate-etl/internal/adapter/http"
	"github.com/couchcryptid/reunion-climate-etl/internal/domain"
	"github.com/couchcryptid/reunion-climate-etl/internal/pipeline"
	"github.com/couchcryptid/reunion-climate-etl/internal/report"
	"github.com/couchcryptid/reunion-climate-etl/internal/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStatus struct {
	err  error
	last *pipeline.RunResult
}

func (m *mockStatus) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockStatus) LastRun() (pipeline.RunResult, bool) {
	if m.last == nil {
		return pipeline.RunResult{}, false
	}
	return *m.last, true
}

// mockReports records the arguments of the last call.
type mockReports struct {
	err      error
	zone     string
	year     int
	scenario string
	top      int
}

func (m *mockReports) HotDays(_ context.Context, zoneClim string, year int) (report.HotDaysReport, error) {
	m.zone, m.year = zoneClim, year
	return report.HotDaysReport{ZoneClim: zoneClim, Year: year}, m.err
}

func (m *mockReports) WarmNights(_ context.Context) (report.WarmNightsReport, error) {
	return report.WarmNightsReport{FromYear: 1983}, m.err
}

func (m *mockReports) Projections(_ context.Context, scenario string) (report.ProjectionReport, error) {
	m.scenario = scenario
	return report.ProjectionReport{Scenario: scenario, Projections: []domain.BaselineProjection{}}, m.err
}

func (m *mockReports) RainfallEvents(_ context.Context, top int) (report.RainfallReport, error) {
	m.top = top
	return report.RainfallReport{MinDays: 1, Events: []domain.RainfallMonth{}}, m.err
}

func (m *mockReports) Severity(_ context.Context) (report.SeverityReport, error) {
	return report.SeverityReport{Thresholds: domain.DefaultThresholds()}, m.err
}

func (m *mockReports) Classify(wind, rain float64) (domain.SeverityClassification, error) {
	c, err := domain.NewClassifier(domain.DefaultThresholds())
	if err != nil {
		return domain.SeverityClassification{}, err
	}
	return c.Classify(wind, rain)
}

func newTestServer(readyErr error, reports *mockReports) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", &mockStatus{err: readyErr}, reports, logger)
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockReports{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockReports{}), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(fmt.Errorf("no successful refresh yet"), &mockReports{}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no successful refresh yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockReports{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHotDays_BindsQuery(t *testing.T) {
	reports := &mockReports{}
	rec := get(t, newTestServer(nil, reports), "/api/v1/hot-days?zone=Tropical+sec&year=2019")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Tropical sec", reports.zone)
	assert.Equal(t, 2019, reports.year)
	assert.Equal(t, "Tropical sec", decode(t, rec)["z_clim"])
}

func TestRainfallEvents_DefaultTop(t *testing.T) {
	reports := &mockReports{}
	rec := get(t, newTestServer(nil, reports), "/api/v1/rainfall/events")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, reports.top)
}

func TestProjections_UnknownScenarioIsEmpty(t *testing.T) {
	reports := &mockReports{}
	rec := get(t, newTestServer(nil, reports), "/api/v1/projections?scenario=RCP2.6")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RCP2.6", reports.scenario)
	assert.Empty(t, decode(t, rec)["projections"])
}

func TestClassify(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockReports{}), "/api/v1/classify?wind=40&rain=6000")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, string(domain.WindCyclone), body["wind_severity"])
	assert.Equal(t, string(domain.RainVeryWet), body["rain_severity"])
	assert.Equal(t, string(domain.MajorCyclone), body["major_episode"])
}

func TestBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"year not a number", "/api/v1/hot-days?year=abc"},
		{"year out of range", "/api/v1/hot-days?year=1066"},
		{"top zero", "/api/v1/rainfall/events?top=0"},
		{"top too large", "/api/v1/rainfall/events?top=5000"},
		{"top not a number", "/api/v1/rainfall/events?top=ten"},
		{"classify missing rain", "/api/v1/classify?wind=100"},
		{"classify wind not a number", "/api/v1/classify?wind=fast&rain=100"},
		{"classify NaN", "/api/v1/classify?wind=NaN&rain=100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(nil, &mockReports{}), tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestWarehouseErrorReturns502(t *testing.T) {
	reports := &mockReports{err: fmt.Errorf("load hot days: %w", warehouse.ErrUnavailable)}
	srv := newTestServer(nil, reports)

	for _, target := range []string{
		"/api/v1/hot-days",
		"/api/v1/warm-nights",
		"/api/v1/projections",
		"/api/v1/rainfall/events",
		"/api/v1/severity",
	} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, srv, target)

			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.Contains(t, decode(t, rec)["error"], "load hot days")
		})
	}
}

func TestNonNumericReportErrorReturns400(t *testing.T) {
	reports := &mockReports{err: fmt.Errorf("aggregate: %w", domain.ErrNonNumeric)}
	rec := get(t, newTestServer(nil, reports), "/api/v1/severity")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("before first refresh", func(t *testing.T) {
		srv := httpadapter.NewServer(":0", &mockStatus{err: errors.New("not yet")}, &mockReports{}, logger)
		rec := get(t, srv, "/api/v1/status")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["ready"])
		assert.NotContains(t, body, "last_run")
	})

	t.Run("after refresh", func(t *testing.T) {
		started := time.Date(2025, time.May, 2, 6, 0, 0, 0, time.UTC)
		last := &pipeline.RunResult{
			RunID:      "run-42",
			StartedAt:  started,
			FinishedAt: started.Add(3 * time.Second),
			Reports:    []pipeline.ReportResult{{Name: report.NameSeverity, Rows: 73}},
		}
		srv := httpadapter.NewServer(":0", &mockStatus{last: last}, &mockReports{}, logger)
		rec := get(t, srv, "/api/v1/status")

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Ready   bool               `json:"ready"`
			LastRun pipeline.RunResult `json:"last_run"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Ready)
		assert.Equal(t, "run-42", body.LastRun.RunID)
		assert.True(t, started.Equal(body.LastRun.StartedAt))
		assert.Equal(t, last.Reports, body.LastRun.Reports)
	})
}
