package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"bikeshare/internal/charts"
	"bikeshare/internal/clustering"
	"bikeshare/internal/config"
	"bikeshare/internal/dataset"
	apperrors "bikeshare/internal/errors"
	"bikeshare/internal/exporter"
	"bikeshare/internal/files"
	"bikeshare/internal/filter"
	"bikeshare/internal/infrastructure"
	"bikeshare/internal/report"
	"bikeshare/pkg/contracts/events"
)

// DatasetLoader reads the two source tables
type DatasetLoader interface {
	Load(ctx context.Context, dayPath, hourPath string) (*dataset.Tables, error)
}

// Broadcaster pushes events to connected dashboards
type Broadcaster interface {
	BroadcastContext(ctx context.Context, messageType string, data interface{})
}

// Export triggers, used as a metric label
const (
	TriggerHTTP      = "http"
	TriggerScheduled = "scheduled"
	TriggerCLI       = "cli"
)

// CodeOption is one selectable season or weather code
type CodeOption struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// FilterOptions is what the sidebar needs to render its controls
type FilterOptions struct {
	Bounds   dataset.Bounds `json:"bounds"`
	Weather  []CodeOption   `json:"weather"`
	Seasons  []CodeOption   `json:"seasons"`
	LoadedAt time.Time      `json:"loaded_at"`
}

// ReloadSummary describes a completed reload
type ReloadSummary struct {
	DailyRows  int            `json:"daily_rows"`
	HourlyRows int            `json:"hourly_rows"`
	Bounds     dataset.Bounds `json:"bounds"`
	LoadedAt   time.Time      `json:"loaded_at"`
	Duration   string         `json:"duration"`
}

// DashboardService serves reports from an immutable snapshot of the source
// tables. Reload builds a new snapshot and swaps it in; requests already
// running keep the snapshot they started with.
type DashboardService struct {
	loader   DatasetLoader
	paths    *config.Paths
	opts     report.Options
	exporter *exporter.Exporter
	catalog  *files.Catalog
	metrics  *infrastructure.BusinessMetrics
	hub      Broadcaster
	tracer   trace.Tracer
	logger   *slog.Logger

	tables   atomic.Pointer[dataset.Tables]
	reloadMu sync.Mutex
}

// DashboardDeps groups the collaborators of DashboardService. Metrics, Hub
// and Tracer are optional.
type DashboardDeps struct {
	Loader   DatasetLoader
	Paths    *config.Paths
	Options  report.Options
	Exporter *exporter.Exporter
	Metrics  *infrastructure.BusinessMetrics
	Hub      Broadcaster
	Tracer   trace.Tracer
}

// ReportOptionsFrom converts the dashboard config section
func ReportOptionsFrom(cfg config.DashboardConfig) report.Options {
	return report.Options{
		PreviewRows: cfg.PreviewRows,
		Clustering: clustering.Options{
			K:        cfg.Clusters,
			Seed:     cfg.Seed,
			MaxIter:  cfg.MaxIterations,
			Tol:      cfg.Tolerance,
			Strategy: clustering.LabelStrategy(cfg.LabelStrategy),
		},
	}
}

// NewDashboardService creates the service. Call Reload before serving.
func NewDashboardService(deps DashboardDeps, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "dashboard_service"))

	if deps.Loader == nil {
		deps.Loader = dataset.NewLoader(logger)
	}
	if deps.Exporter == nil {
		deps.Exporter = exporter.New(deps.Paths, logger)
	}
	if deps.Options.Clustering.K == 0 {
		deps.Options.Clustering = clustering.DefaultOptions()
	}
	if deps.Options.PreviewRows <= 0 {
		deps.Options.PreviewRows = report.DefaultPreviewRows
	}
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer("dashboard")
	}

	var catalog *files.Catalog
	if deps.Paths != nil {
		catalog = files.NewCatalog(deps.Paths.ExportsDir)
	}

	return &DashboardService{
		loader:   deps.Loader,
		paths:    deps.Paths,
		opts:     deps.Options,
		exporter: deps.Exporter,
		catalog:  catalog,
		metrics:  deps.Metrics,
		hub:      deps.Hub,
		tracer:   deps.Tracer,
		logger:   logger,
	}
}

// SetTables installs a snapshot directly, bypassing the loader
func (s *DashboardService) SetTables(t *dataset.Tables) {
	s.tables.Store(t)
}

// Tables returns the current snapshot
func (s *DashboardService) Tables() (*dataset.Tables, error) {
	t := s.tables.Load()
	if t == nil {
		return nil, ErrDatasetNotLoaded
	}
	return t, nil
}

// Loaded reports whether a snapshot is installed
func (s *DashboardService) Loaded() bool {
	return s.tables.Load() != nil
}

// Reload reads both source files and swaps the snapshot. On failure the
// previous snapshot stays in place. Concurrent calls are serialised.
func (s *DashboardService) Reload(ctx context.Context) (*ReloadSummary, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "dashboard.reload")
	defer span.End()

	if s.paths == nil {
		return nil, fmt.Errorf("reload: no data paths configured")
	}

	start := time.Now()
	tables, err := s.loader.Load(ctx, s.paths.DayFile, s.paths.HourFile)
	if err != nil {
		infrastructure.RecordReloadMetrics(ctx, s.metrics, 0, 0, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "dataset reload failed",
			slog.String("day_file", s.paths.DayFile),
			slog.String("hour_file", s.paths.HourFile),
			slog.String("error", err.Error()),
			slog.Bool("kept_previous", s.Loaded()))
		s.broadcast(ctx, events.TypeDatasetReloadFailed, events.ReloadFailed{Error: err.Error()})
		return nil, apperrors.NewDatasetError("failed to load dataset", err).
			WithContext("day_file", s.paths.DayFile).
			WithContext("hour_file", s.paths.HourFile)
	}

	s.tables.Store(tables)

	summary := &ReloadSummary{
		DailyRows:  len(tables.Daily),
		HourlyRows: len(tables.Hourly),
		Bounds:     tables.Bounds,
		LoadedAt:   tables.LoadedAt,
		Duration:   time.Since(start).String(),
	}
	infrastructure.RecordReloadMetrics(ctx, s.metrics, summary.DailyRows, summary.HourlyRows, nil)
	span.SetAttributes(
		attribute.Int("dataset.daily_rows", summary.DailyRows),
		attribute.Int("dataset.hourly_rows", summary.HourlyRows))

	s.logger.InfoContext(ctx, "dataset reloaded",
		slog.Int("daily_rows", summary.DailyRows),
		slog.Int("hourly_rows", summary.HourlyRows),
		slog.String("duration", summary.Duration))
	s.broadcast(ctx, events.TypeDatasetReloaded, events.DatasetReloaded{
		DailyRows:  summary.DailyRows,
		HourlyRows: summary.HourlyRows,
		MinDate:    summary.Bounds.Min.Format(dataset.DateLayout),
		MaxDate:    summary.Bounds.Max.Format(dataset.DateLayout),
		LoadedAt:   summary.LoadedAt.UTC().Format(time.RFC3339),
		Duration:   summary.Duration,
	})
	return summary, nil
}

func (s *DashboardService) broadcast(ctx context.Context, messageType string, data interface{}) {
	if s.hub != nil {
		s.hub.BroadcastContext(ctx, messageType, data)
	}
}

// Filters returns the date bounds and the selectable codes
func (s *DashboardService) Filters(ctx context.Context) (*FilterOptions, error) {
	t, err := s.Tables()
	if err != nil {
		return nil, err
	}

	out := &FilterOptions{Bounds: t.Bounds, LoadedAt: t.LoadedAt}
	for _, w := range dataset.AllWeather {
		out.Weather = append(out.Weather, CodeOption{Code: int(w), Label: w.String()})
	}
	for _, se := range dataset.AllSeasons {
		out.Seasons = append(out.Seasons, CodeOption{Code: int(se), Label: se.String()})
	}
	return out, nil
}

// Preview returns the head of both raw tables
func (s *DashboardService) Preview(ctx context.Context) (dataset.Preview, error) {
	t, err := s.Tables()
	if err != nil {
		return dataset.Preview{}, err
	}
	return t.Head(s.opts.PreviewRows), nil
}

// Report builds the dashboard report for sel
func (s *DashboardService) Report(ctx context.Context, sel filter.Selection) (*report.Report, error) {
	t, err := s.Tables()
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.report")
	defer span.End()

	start := time.Now()
	r, err := report.FromSelection(t, sel, s.opts)
	duration := time.Since(start)

	if err != nil {
		infrastructure.RecordReportMetrics(ctx, s.metrics, 0, 0, duration, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	infrastructure.RecordReportMetrics(ctx, s.metrics, r.DailyRows, r.Clustering.Iterations, duration, nil)
	span.SetAttributes(
		attribute.Int("report.daily_rows", r.DailyRows),
		attribute.Int("report.hourly_rows", r.HourlyRows),
		attribute.Bool("report.clustered", r.Clustering.Available))

	s.logger.DebugContext(ctx, "report built",
		slog.String("start", r.Config.Start.Format(dataset.DateLayout)),
		slog.String("end", r.Config.End.Format(dataset.DateLayout)),
		slog.Int("daily_rows", r.DailyRows),
		slog.Int("hourly_rows", r.HourlyRows),
		slog.Int("warnings", len(r.Warnings)),
		slog.Duration("duration", duration))
	return r, nil
}

// Charts builds the report for sel and all twelve charts
func (s *DashboardService) Charts(ctx context.Context, sel filter.Selection) ([]charts.Chart, *report.Report, error) {
	r, err := s.Report(ctx, sel)
	if err != nil {
		return nil, nil, err
	}
	return charts.Build(r), r, nil
}

// Chart builds a single chart by id
func (s *DashboardService) Chart(ctx context.Context, sel filter.Selection, id string) (*charts.Chart, error) {
	r, err := s.Report(ctx, sel)
	if err != nil {
		return nil, err
	}
	c, err := charts.Find(r, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Export writes the report for sel to w
func (s *DashboardService) Export(ctx context.Context, w io.Writer, sel filter.Selection, opts exporter.Options, trigger string) (*report.Report, int64, error) {
	r, err := s.Report(ctx, sel)
	if err != nil {
		return nil, 0, err
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.export",
		trace.WithAttributes(attribute.String("export.format", string(opts.Format))))
	defer span.End()

	n, err := s.exporter.Write(ctx, w, r, opts)
	infrastructure.RecordExportMetrics(ctx, s.metrics, string(opts.Format), trigger, n, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return r, n, err
	}
	return r, n, nil
}

// ExportFile writes the report for sel into the exports directory and
// announces it to connected dashboards
func (s *DashboardService) ExportFile(ctx context.Context, sel filter.Selection, opts exporter.Options, trigger string) (string, int64, error) {
	r, err := s.Report(ctx, sel)
	if err != nil {
		return "", 0, err
	}

	path, n, err := s.exporter.WriteFile(ctx, r, opts)
	infrastructure.RecordExportMetrics(ctx, s.metrics, string(opts.Format), trigger, n, err)
	if err != nil {
		return "", n, apperrors.NewExportError("failed to write export file", err).
			WithContext("format", string(opts.Format)).
			WithContext("trigger", trigger)
	}

	s.broadcast(ctx, events.TypeExportCompleted, events.ExportCompleted{
		Path:    path,
		Format:  string(opts.Format),
		Bytes:   n,
		Trigger: trigger,
	})
	return path, n, nil
}

// Exports lists the files in the exports directory, newest first
func (s *DashboardService) Exports(ctx context.Context) ([]files.FileInfo, error) {
	if s.catalog == nil {
		return []files.FileInfo{}, nil
	}
	return s.catalog.List()
}

// LatestExport returns the newest file of one format in the exports directory
func (s *DashboardService) LatestExport(ctx context.Context, f exporter.Format) (files.FileInfo, error) {
	if s.catalog == nil {
		return files.FileInfo{}, fmt.Errorf("%w: no %s export", files.ErrNotFound, f)
	}
	info, ok, err := s.catalog.Latest(f)
	if err != nil {
		return files.FileInfo{}, err
	}
	if !ok {
		return files.FileInfo{}, fmt.Errorf("%w: no %s export", files.ErrNotFound, f)
	}
	return info, nil
}

// OpenExport opens one file of the exports directory. The caller closes it.
func (s *DashboardService) OpenExport(ctx context.Context, name string) (*os.File, files.FileInfo, error) {
	if s.catalog == nil {
		return nil, files.FileInfo{}, fmt.Errorf("%w: %s", files.ErrNotFound, name)
	}
	f, info, err := s.catalog.Open(name)
	if err != nil {
		return nil, files.FileInfo{}, err
	}
	s.logger.DebugContext(ctx, "export file opened",
		slog.String("name", info.Name),
		slog.Int64("bytes", info.Size))
	return f, info, nil
}
