package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bikeshare/internal/charts"
	"bikeshare/internal/dataset"
	apierrors "bikeshare/internal/errors"
	"bikeshare/internal/exporter"
	"bikeshare/internal/files"
	"bikeshare/internal/filter"
	"bikeshare/internal/middleware"
	"bikeshare/internal/services"
	api "bikeshare/pkg/contracts/api/v1"
)

const maxPreviewRows = 100

// tabSlugs are the URL names of the chart tabs, in page order
var (
	tabSlugs    = []string{"eda", "clustering", "time"}
	formatSlugs = []string{string(exporter.FormatCSV), string(exporter.FormatXLSX), string(exporter.FormatParquet)}
	tabBySlug   = map[string]charts.Tab{
		"eda":        charts.TabEDA,
		"clustering": charts.TabClustering,
		"time":       charts.TabTime,
	}
)

// DashboardHandler serves the dashboard JSON API and exports
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *middleware.Validator
	params       *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &DashboardHandler{
		service:      service,
		validator:    middleware.NewValidator(),
		params:       middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes, mounted under /api/dashboard
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/filters", h.GetFilters)
		r.Get("/report", h.GetReport)
		r.Get("/charts", h.GetCharts)
		r.Get("/charts/{id}", h.GetChart)
		r.Get("/preview", h.GetPreview)
		r.Get("/exports", h.ListExports)
	})

	// exports set their own content type
	r.Get("/export/{format}", h.Export)
	r.Get("/exports/{name}", h.DownloadExport)

	return r
}

// GetFilters handles GET /api/dashboard/filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Filters(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, api.Success(opts))
}

// GetPreview handles GET /api/dashboard/preview. The optional rows
// parameter shortens both tables.
func (h *DashboardHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.params.ValidateInt(w, r, "rows", 1, maxPreviewRows, 0)
	if !ok {
		return
	}

	preview, err := h.service.Preview(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if rows > 0 {
		preview.Daily = preview.Daily[:min(rows, len(preview.Daily))]
		preview.Hourly = preview.Hourly[:min(rows, len(preview.Hourly))]
	}
	render.JSON(w, r, api.Success(preview))
}

// GetReport handles GET /api/dashboard/report
func (h *DashboardHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}

	rep, err := h.service.Report(r.Context(), sel)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := api.Success(rep)
	resp.Warnings = warnings(rep.Warnings)
	render.JSON(w, r, resp)
}

// GetCharts handles GET /api/dashboard/charts. The optional tab parameter
// (eda, clustering, time) keeps the charts of one tab.
func (h *DashboardHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.params.ValidateEnum(w, r, "tab", tabSlugs, "")
	if !ok {
		return
	}
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}

	all, rep, err := h.service.Charts(r.Context(), sel)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if tab != "" {
		all = charts.ByTab(all)[tabBySlug[tab]]
	}

	resp := api.SuccessWithCount(api.ChartsData{
		Filter:      appliedFilter(rep.Config),
		Charts:      all,
		GeneratedAt: rep.GeneratedAt,
	}, len(all))
	resp.Warnings = warnings(rep.Warnings)
	render.JSON(w, r, resp)
}

// GetChart handles GET /api/dashboard/charts/{id}
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}

	chart, err := h.service.Chart(r.Context(), sel, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, api.Success(chart))
}

// Export handles GET /api/dashboard/export/{format}. The export is built in
// memory so a failure can still be reported as a problem response.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	dq, err := parseDashboardQuery(query)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	eq := api.ExportQuery{
		DashboardQuery: dq,
		Format:         chi.URLParam(r, "format"),
		BOM:            query.Get("bom"),
		Compression:    query.Get("compression"),
	}
	if err := h.validator.ValidateStruct(eq); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	raw := map[string]interface{}{"format": eq.Format}
	if eq.BOM != "" {
		raw["bom"] = eq.BOM
	}
	if eq.Compression != "" {
		raw["compression"] = eq.Compression
	}
	opts, err := exporter.DecodeOptions(raw)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	sel, err := toSelection(eq.DashboardQuery)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	rep, n, err := h.service.Export(r.Context(), &buf, sel, opts, services.TriggerHTTP)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	name := opts.FileName
	if name == "" {
		name = exporter.FileName(rep, opts.Format)
	}

	h.logger.InfoContext(r.Context(), "export served",
		slog.String("request_id", reqID),
		slog.String("format", string(opts.Format)),
		slog.String("filename", name),
		slog.Int("rows", rep.DailyRows),
		slog.Int64("bytes", n))

	w.Header().Set("Content-Type", opts.Format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Export-Rows", strconv.Itoa(rep.DailyRows))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))
	}
}

// ListExports handles GET /api/dashboard/exports, newest first. With
// ?latest=<format> the list holds only the newest file of that format.
func (h *DashboardHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	latest, ok := h.params.ValidateEnum(w, r, "latest", formatSlugs, "")
	if !ok {
		return
	}
	if latest != "" {
		info, err := h.service.LatestExport(r.Context(), exporter.Format(latest))
		if errors.Is(err, files.ErrNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.ExportNotFound("latest "+latest))
			return
		}
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		render.JSON(w, r, api.SuccessWithCount([]files.FileInfo{info}, 1))
		return
	}

	list, err := h.service.Exports(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, api.SuccessWithCount(list, len(list)))
}

// DownloadExport handles GET /api/dashboard/exports/{name}, serving a file
// written earlier by the scheduler or bikectl. Range and conditional
// requests are honoured.
func (h *DashboardHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, info, err := h.service.OpenExport(r.Context(), name)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", info.Format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name}))
	http.ServeContent(w, r, info.Name, info.ModTime, f)
}

// selection parses and validates the filter query. On failure the error
// response has been written.
func (h *DashboardHandler) selection(w http.ResponseWriter, r *http.Request) (filter.Selection, bool) {
	q, err := parseDashboardQuery(r.URL.Query())
	if err == nil {
		err = h.validator.ValidateStruct(q)
	}
	var sel filter.Selection
	if err == nil {
		sel, err = toSelection(q)
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return filter.Selection{}, false
	}
	return sel, true
}

// handleServiceError maps service and domain errors to API errors
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrDatasetNotLoaded):
		err = apierrors.ErrDatasetUnavailable
	case errors.Is(err, filter.ErrInvalidSelection):
		err = apierrors.InvalidSelection(err)
	case errors.Is(err, charts.ErrUnknownChart):
		err = apierrors.ChartNotFound(chi.URLParam(r, "id"))
	case errors.Is(err, files.ErrNotFound):
		err = apierrors.ExportNotFound(chi.URLParam(r, "name"))
	case errors.Is(err, files.ErrInvalidName):
		err = apierrors.NewValidationErrors([]apierrors.ValidationError{
			{Field: "name", Message: err.Error()},
		})
	case errors.Is(err, exporter.ErrUnsupportedFormat):
		err = apierrors.UnsupportedFormat(chi.URLParam(r, "format"))
	case chi.URLParam(r, "format") != "" && !isContextError(err):
		var apiErr *apierrors.APIError
		if !errors.As(err, &apiErr) {
			err = apierrors.ExportFailed(err)
		}
	}
	h.errorHandler.HandleError(w, r, err)
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// parseDashboardQuery reads start, end and the repeated weather and season
// parameters. Code parameters may also carry comma separated lists. A code
// parameter that is present but empty selects nothing.
func parseDashboardQuery(q url.Values) (api.DashboardQuery, error) {
	out := api.DashboardQuery{
		Start: strings.TrimSpace(q.Get("start")),
		End:   strings.TrimSpace(q.Get("end")),
	}

	var fields []apierrors.ValidationError
	codes := func(param string) []int {
		raw, present := q[param]
		if !present {
			return nil
		}
		list := []int{}
		for _, v := range raw {
			for _, part := range strings.Split(v, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				n, err := strconv.Atoi(part)
				if err != nil {
					fields = append(fields, apierrors.ValidationError{
						Field:   param,
						Message: fmt.Sprintf("%s must be a list of integer codes, got %q", param, part),
					})
					continue
				}
				list = append(list, n)
			}
		}
		return list
	}
	out.Weather = codes("weather")
	out.Seasons = codes("season")

	if len(fields) > 0 {
		return out, apierrors.NewValidationErrors(fields)
	}
	return out, nil
}

// toSelection converts a validated query. A lone start or end selects that
// single date.
func toSelection(q api.DashboardQuery) (filter.Selection, error) {
	sel := filter.Selection{Weather: q.Weather, Seasons: q.Seasons}
	for _, s := range []string{q.Start, q.End} {
		if s == "" {
			continue
		}
		d, err := time.Parse(dataset.DateLayout, s)
		if err != nil {
			return filter.Selection{}, apierrors.NewValidationErrors([]apierrors.ValidationError{
				{Field: "date", Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)},
			})
		}
		sel.Dates = append(sel.Dates, d)
	}
	return sel, nil
}

func appliedFilter(cfg filter.Config) api.AppliedFilter {
	out := api.AppliedFilter{
		Start:   cfg.Start.Format(dataset.DateLayout),
		End:     cfg.End.Format(dataset.DateLayout),
		Weather: make([]int, 0, len(cfg.Weather)),
		Seasons: make([]int, 0, len(cfg.Seasons)),
	}
	for _, w := range cfg.Weather {
		out.Weather = append(out.Weather, int(w))
	}
	for _, s := range cfg.Seasons {
		out.Seasons = append(out.Seasons, int(s))
	}
	return out
}

func warnings(ws []filter.Warning) []api.Warning {
	if len(ws) == 0 {
		return nil
	}
	out := make([]api.Warning, len(ws))
	for i, w := range ws {
		out[i] = api.Warning{Code: w.Code, Message: w.Message}
	}
	return out
}
