package http

import (
	"context"
	"io"
	"os"

	"bikeshare/internal/charts"
	"bikeshare/internal/dataset"
	"bikeshare/internal/exporter"
	"bikeshare/internal/files"
	"bikeshare/internal/filter"
	"bikeshare/internal/report"
	"bikeshare/internal/services"
)

// DashboardServiceInterface defines the dashboard operations the handlers use
type DashboardServiceInterface interface {
	Filters(ctx context.Context) (*services.FilterOptions, error)
	Preview(ctx context.Context) (dataset.Preview, error)
	Report(ctx context.Context, sel filter.Selection) (*report.Report, error)
	Charts(ctx context.Context, sel filter.Selection) ([]charts.Chart, *report.Report, error)
	Chart(ctx context.Context, sel filter.Selection, id string) (*charts.Chart, error)
	Export(ctx context.Context, w io.Writer, sel filter.Selection, opts exporter.Options, trigger string) (*report.Report, int64, error)
	Exports(ctx context.Context) ([]files.FileInfo, error)
	LatestExport(ctx context.Context, f exporter.Format) (files.FileInfo, error)
	OpenExport(ctx context.Context, name string) (*os.File, files.FileInfo, error)
}
