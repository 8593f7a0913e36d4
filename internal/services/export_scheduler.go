package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron"

	"bikeshare/internal/config"
	"bikeshare/internal/exporter"
	"bikeshare/internal/filter"
	"bikeshare/internal/infrastructure"
)

// FileExporter writes report exports into the exports directory
type FileExporter interface {
	ExportFile(ctx context.Context, sel filter.Selection, opts exporter.Options, trigger string) (string, int64, error)
}

// ExportScheduler writes full-range exports on a cron schedule
type ExportScheduler struct {
	exporter FileExporter
	spec     string
	schedule cron.Schedule
	formats  []exporter.Options
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

// NewExportScheduler validates the schedule (standard five-field cron
// syntax or descriptors such as @daily) and the export formats. An empty
// schedule yields a disabled scheduler.
func NewExportScheduler(exp FileExporter, cfg config.ExportConfig, logger *slog.Logger) (*ExportScheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &ExportScheduler{
		exporter: exp,
		spec:     cfg.Schedule,
		logger:   logger.With(slog.String("component", "export_scheduler")),
	}

	if cfg.Schedule != "" {
		schedule, err := cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidSchedule, cfg.Schedule, err)
		}
		s.schedule = schedule
	}

	for _, f := range cfg.Formats {
		opts, err := exporter.DecodeOptions(map[string]interface{}{
			"format": f,
			"bom":    cfg.CSVBOM,
		})
		if err != nil {
			return nil, err
		}
		s.formats = append(s.formats, opts)
	}
	return s, nil
}

// Enabled reports whether a schedule is configured
func (s *ExportScheduler) Enabled() bool {
	return s.schedule != nil
}

// Next returns the next planned run, or the zero time when disabled
func (s *ExportScheduler) Next() time.Time {
	if s.schedule == nil {
		return time.Time{}
	}
	return s.schedule.Next(time.Now())
}

// Start schedules exports until Stop or ctx cancellation
func (s *ExportScheduler) Start(ctx context.Context) error {
	if !s.Enabled() {
		s.logger.InfoContext(ctx, "scheduled exports disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c := cron.New()
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.ErrorContext(ctx, "scheduled export failed", slog.String("error", err.Error()))
		}
	}))
	c.Start()

	s.cron, s.cancel, s.running = c, cancel, true
	s.logger.InfoContext(ctx, "export scheduler started",
		slog.String("schedule", s.spec),
		slog.Int("formats", len(s.formats)),
		slog.Time("next_run", s.Next()))

	go func() {
		<-ctx.Done()
		s.stop(c)
	}()
	return nil
}

// Stop halts the schedule. A run in progress is cancelled.
func (s *ExportScheduler) Stop() {
	s.stop(nil)
}

// stop halts c, or whatever is running when c is nil
func (s *ExportScheduler) stop(c *cron.Cron) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || (c != nil && c != s.cron) {
		return
	}
	s.cron.Stop()
	s.cancel()
	s.running = false
	s.logger.Info("export scheduler stopped")
}

// RunOnce exports the whole dataset in every configured format. One failing
// format does not stop the others.
func (s *ExportScheduler) RunOnce(ctx context.Context) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	var merr *multierror.Error
	for _, opts := range s.formats {
		path, n, err := s.exporter.ExportFile(ctx, filter.Selection{}, opts, TriggerScheduled)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", opts.Format, err))
			continue
		}
		s.logger.InfoContext(ctx, "scheduled export written",
			slog.String("format", string(opts.Format)),
			slog.String("path", path),
			slog.Int64("bytes", n))
	}
	return merr.ErrorOrNil()
}
