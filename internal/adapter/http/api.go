package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/reunion-climate-etl/internal/domain"
	"github.com/couchcryptid/reunion-climate-etl/internal/pipeline"
	"github.com/couchcryptid/reunion-climate-etl/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
)

const defaultTopEvents = 10

var validate = validator.New()

// ReportService builds reports on demand. *report.Builder implements it.
type ReportService interface {
	HotDays(ctx context.Context, zoneClim string, year int) (report.HotDaysReport, error)
	WarmNights(ctx context.Context) (report.WarmNightsReport, error)
	Projections(ctx context.Context, scenario string) (report.ProjectionReport, error)
	RainfallEvents(ctx context.Context, top int) (report.RainfallReport, error)
	Severity(ctx context.Context) (report.SeverityReport, error)
	Classify(wind, rain float64) (domain.SeverityClassification, error)
}

type api struct {
	reports ReportService
	status  Status
	logger  *slog.Logger
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/hot-days", a.handleHotDays)
	mux.HandleFunc("GET /api/v1/warm-nights", a.handleWarmNights)
	mux.HandleFunc("GET /api/v1/projections", a.handleProjections)
	mux.HandleFunc("GET /api/v1/rainfall/events", a.handleRainfallEvents)
	mux.HandleFunc("GET /api/v1/severity", a.handleSeverity)
	mux.HandleFunc("GET /api/v1/classify", a.handleClassify)
	mux.HandleFunc("GET /api/v1/status", a.handleStatus)
}

// hotDaysQuery holds the query parameters of /hot-days.
type hotDaysQuery struct {
	Zone string `validate:"omitempty,max=64"`
	Year int    `validate:"omitempty,gte=1900,lte=2200"`
}

// projectionsQuery holds the query parameters of /projections.
type projectionsQuery struct {
	Scenario string `validate:"omitempty,max=32"`
}

// eventsQuery holds the query parameters of /rainfall/events.
type eventsQuery struct {
	Top int `validate:"gte=1,lte=1000"`
}

// classifyQuery holds the query parameters of /classify.
type classifyQuery struct {
	Wind string `validate:"required"`
	Rain string `validate:"required"`
}

func (a *api) handleHotDays(w http.ResponseWriter, r *http.Request) {
	q := hotDaysQuery{Zone: r.URL.Query().Get("zone")}
	var err error
	if q.Year, err = queryInt(r.URL.Query(), "year", 0); err != nil {
		badRequest(w, err)
		return
	}
	if err := validate.Struct(q); err != nil {
		badRequest(w, err)
		return
	}

	rep, err := a.reports.HotDays(r.Context(), q.Zone, q.Year)
	a.respond(w, r, report.NameHotDays, rep, err)
}

func (a *api) handleWarmNights(w http.ResponseWriter, r *http.Request) {
	rep, err := a.reports.WarmNights(r.Context())
	a.respond(w, r, report.NameWarmNights, rep, err)
}

func (a *api) handleProjections(w http.ResponseWriter, r *http.Request) {
	q := projectionsQuery{Scenario: r.URL.Query().Get("scenario")}
	if err := validate.Struct(q); err != nil {
		badRequest(w, err)
		return
	}

	rep, err := a.reports.Projections(r.Context(), q.Scenario)
	a.respond(w, r, report.NameProjections, rep, err)
}

func (a *api) handleRainfallEvents(w http.ResponseWriter, r *http.Request) {
	var q eventsQuery
	var err error
	if q.Top, err = queryInt(r.URL.Query(), "top", defaultTopEvents); err != nil {
		badRequest(w, err)
		return
	}
	if err := validate.Struct(q); err != nil {
		badRequest(w, err)
		return
	}

	rep, err := a.reports.RainfallEvents(r.Context(), q.Top)
	a.respond(w, r, report.NameRainfallEvents, rep, err)
}

func (a *api) handleSeverity(w http.ResponseWriter, r *http.Request) {
	rep, err := a.reports.Severity(r.Context())
	a.respond(w, r, report.NameSeverity, rep, err)
}

func (a *api) handleClassify(w http.ResponseWriter, r *http.Request) {
	q := classifyQuery{Wind: r.URL.Query().Get("wind"), Rain: r.URL.Query().Get("rain")}
	if err := validate.Struct(q); err != nil {
		badRequest(w, err)
		return
	}
	wind, err := strconv.ParseFloat(q.Wind, 64)
	if err != nil {
		badRequest(w, fmt.Errorf("invalid wind: %q", q.Wind))
		return
	}
	rain, err := strconv.ParseFloat(q.Rain, 64)
	if err != nil {
		badRequest(w, fmt.Errorf("invalid rain: %q", q.Rain))
		return
	}

	c, err := a.reports.Classify(wind, rain)
	a.respond(w, r, "classify", c, err)
}

// runStatus is the body of /status.
type runStatus struct {
	Ready   bool                `json:"ready"`
	LastRun *pipeline.RunResult `json:"last_run,omitempty"`
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	out := runStatus{Ready: a.status.CheckReadiness(r.Context()) == nil}
	if last, ok := a.status.LastRun(); ok {
		out.LastRun = &last
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

// respond writes v, or maps err to a status code. Non-numeric inputs are the
// caller's fault; anything else failed upstream in the warehouse.
func (a *api) respond(w http.ResponseWriter, r *http.Request, name string, v any, err error) {
	switch {
	case err == nil:
		sharedobs.WriteJSON(w, http.StatusOK, v)
	case errors.Is(err, domain.ErrNonNumeric):
		badRequest(w, err)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing to write.
		a.logger.Debug("request cancelled", "report", name, "path", r.URL.Path)
	default:
		a.logger.Error("report request failed", "report", name, "path", r.URL.Path, "error", err)
		sharedobs.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
}

func badRequest(w http.ResponseWriter, err error) {
	sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func queryInt(values url.Values, name string, def int) (int, error) {
	s := values.Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}
	return n, nil
}
