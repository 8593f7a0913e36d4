package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bikeshare/internal/analytics"
	"bikeshare/internal/charts"
	"bikeshare/internal/dataset"
	apierrors "bikeshare/internal/errors"
	"bikeshare/internal/exporter"
	"bikeshare/internal/filter"
	"bikeshare/internal/report"
	"bikeshare/internal/services"
)

//go:embed templates/*.html static/*
var assets embed.FS

// ChartJSURL is the Chart.js build loaded by the page
const ChartJSURL = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"

// CreditBlock names the authors shown in the EDA tab
type CreditBlock struct {
	Group   string
	Members []string
	Source  string
}

// Credits are shown in the EDA tab
var Credits = CreditBlock{
	Group: "Kelompok 3",
	Members: []string{
		"Dinastisya Vasha Agysta (M0722034)",
		"Mayisya Najmuts Zahra A (M0722048)",
		"Shafa Ardhana Putri S (M0722072)",
	},
	Source: "Bike-sharing Dataset",
}

type pageTab struct {
	ID     string
	Label  string
	Charts []charts.Chart
}

type formState struct {
	Start   string
	End     string
	Weather map[int]bool
	Seasons map[int]bool
}

type exportLink struct {
	Format string
	URL    string
}

type pageData struct {
	Title      string
	Filters    *services.FilterOptions
	Form       formState
	Report     *report.Report
	Tabs       []pageTab
	Charts     []charts.Chart
	Exports    []exportLink
	StatLabels []string
	Credits    CreditBlock
	ChartJS    string
	Error      string
}

// PageHandler renders the HTML dashboard
type PageHandler struct {
	service      DashboardServiceInterface
	tmpl         *template.Template
	static       http.Handler
	printer      *message.Printer
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler parses the embedded page template. Numbers are formatted
// for Indonesian readers (1.234,56).
func NewPageHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*PageHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}

	h := &PageHandler{
		service:      service,
		printer:      message.NewPrinter(language.Indonesian),
		logger:       logger.With(slog.String("component", "page_handler")),
		errorHandler: errorHandler,
	}

	tmpl, err := template.New("dashboard.html").Funcs(h.funcs()).ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	h.tmpl = tmpl

	staticFS, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static assets: %w", err)
	}
	h.static = http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	return h, nil
}

func (h *PageHandler) funcs() template.FuncMap {
	return template.FuncMap{
		"num": func(v float64, decimals int) string {
			return h.printer.Sprintf("%.*f", decimals, v)
		},
		"int": func(v int) string {
			return h.printer.Sprintf("%d", v)
		},
		"optnum": func(v *float64, decimals int) string {
			if v == nil {
				return "–"
			}
			return h.printer.Sprintf("%.*f", decimals, *v)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(dataset.DateLayout)
		},
		"stat":    statCell,
		"heat":    heatStyle,
		"cell":    func(m *analytics.Matrix, h, d int) *float64 { return m.Cells[h][d] },
		"bool01":  func(b bool) string { return map[bool]string{true: "1", false: "0"}[b] },
		"hasCode": func(set map[int]bool, code int) bool { return set == nil || set[code] },
	}
}

// Static serves the embedded page script and stylesheet under /static/
func (h *PageHandler) Static(w http.ResponseWriter, r *http.Request) {
	h.static.ServeHTTP(w, r)
}

// Dashboard handles GET /. The sidebar form submits back to this page with
// the same query parameters the JSON API accepts.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := pageData{
		Title:      report.Title,
		StatLabels: analytics.StatLabels,
		Credits:    Credits,
		ChartJS:    ChartJSURL,
		Form:       formFromQuery(r.URL.Query()),
	}
	status := http.StatusOK

	filters, err := h.service.Filters(ctx)
	if err != nil {
		if !errors.Is(err, services.ErrDatasetNotLoaded) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		data.Error = "Data belum dimuat. Periksa day.csv dan hour.csv."
		status = http.StatusServiceUnavailable
		h.render(w, r, status, data)
		return
	}
	data.Filters = filters

	q, err := parseDashboardQuery(r.URL.Query())
	var sel filter.Selection
	if err == nil {
		sel, err = toSelection(q)
	}
	if err != nil {
		data.Error = err.Error()
		status = http.StatusBadRequest
		h.render(w, r, status, data)
		return
	}

	all, rep, err := h.service.Charts(ctx, sel)
	if err != nil {
		if !errors.Is(err, filter.ErrInvalidSelection) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		data.Error = err.Error()
		status = http.StatusBadRequest
		h.render(w, r, status, data)
		return
	}

	data.Report = rep
	data.Charts = all
	byTab := charts.ByTab(all)
	labels := []string{"🔍 EDA", "🧠 Clustering", "⏰ Tren Waktu"}
	for i, slug := range tabSlugs {
		data.Tabs = append(data.Tabs, pageTab{ID: slug, Label: labels[i], Charts: byTab[tabBySlug[slug]]})
	}
	for _, f := range exporter.AllFormats {
		data.Exports = append(data.Exports, exportLink{
			Format: string(f),
			URL:    "/api/dashboard/export/" + string(f) + "?" + r.URL.RawQuery,
		})
	}

	h.render(w, r, status, data)
}

// render executes into a buffer so template failures still produce a clean 500
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render dashboard", slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// formFromQuery echoes the submitted selection back into the form. An
// absent code parameter leaves every box ticked.
func formFromQuery(q url.Values) formState {
	fs := formState{Start: q.Get("start"), End: q.Get("end")}
	codes := func(param string) map[int]bool {
		raw, ok := q[param]
		if !ok {
			return nil
		}
		set := map[int]bool{}
		for _, v := range raw {
			if n, err := strconv.Atoi(v); err == nil {
				set[n] = true
			}
		}
		return set
	}
	fs.Weather = codes("weather")
	fs.Seasons = codes("season")
	return fs
}

// statCell returns one cell of the describe table; row follows StatLabels
func statCell(c analytics.ColumnStats, row string) *float64 {
	v := func(f float64) *float64 { return &f }
	switch row {
	case "count":
		return v(float64(c.Count))
	case "mean":
		return v(c.Mean)
	case "std":
		return c.Std
	case "min":
		return v(c.Min)
	case "25%":
		return v(c.Q25)
	case "50%":
		return v(c.Median)
	case "75%":
		return v(c.Q75)
	case "max":
		return v(c.Max)
	}
	return nil
}

// heatStyle shades a heatmap cell on a yellow to red ramp
func heatStyle(v *float64, lo, hi float64) template.CSS {
	if v == nil {
		return template.CSS("background-color: #f5f5f5")
	}
	t := 0.0
	if hi > lo {
		t = (*v - lo) / (hi - lo)
	}
	t = math.Max(0, math.Min(1, t))
	red := 255
	green := int(math.Round(237 - t*(237-40)))
	blue := int(math.Round(160 - t*(160-40)))
	return template.CSS(fmt.Sprintf("background-color: rgb(%d, %d, %d)", red, green, blue))
}
