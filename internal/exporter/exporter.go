package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"

	"bikeshare/internal/config"
	"bikeshare/internal/dataset"
	"bikeshare/internal/report"
)

// ErrUnsupportedFormat is returned for unknown export formats
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Options selects the format and its knobs
type Options struct {
	Format      Format `mapstructure:"format"`
	BOM         bool   `mapstructure:"bom"`
	Compression string `mapstructure:"compression"`
	FileName    string `mapstructure:"filename"`
}

// DecodeOptions builds Options from loosely typed input such as query
// parameters or scheduler settings. Strings like "true" decode into bools.
func DecodeOptions(raw map[string]interface{}) (Options, error) {
	var opts Options
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &opts,
	})
	if err != nil {
		return Options{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Options{}, fmt.Errorf("invalid export options: %w", err)
	}

	f, err := ParseFormat(string(opts.Format))
	if err != nil {
		return Options{}, err
	}
	opts.Format = f

	if opts.Format == FormatParquet {
		if _, err := compressionCodec(opts.Compression); err != nil {
			return Options{}, fmt.Errorf("invalid export options: %w", err)
		}
	}
	return opts, nil
}

// FileName is the default download name for a report export, e.g.
// penyewaan_2011-01-01_2012-12-31.csv
func FileName(r *report.Report, f Format) string {
	return fmt.Sprintf("penyewaan_%s_%s.%s",
		r.Config.Start.Format(dataset.DateLayout),
		r.Config.End.Format(dataset.DateLayout),
		f.Extension())
}

// Exporter renders reports into CSV, XLSX or Parquet
type Exporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// New creates an exporter writing files under paths.ExportsDir
func New(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		paths:  paths,
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// countingWriter tracks bytes written
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Write renders r to w and returns the number of bytes written
func (e *Exporter) Write(ctx context.Context, w io.Writer, r *report.Report, opts Options) (int64, error) {
	if r == nil {
		return 0, errors.New("export: no report")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	var err error
	switch opts.Format {
	case FormatCSV:
		err = writeReportCSV(cw, r, opts.BOM)
	case FormatXLSX:
		err = writeReportXLSX(cw, r)
	case FormatParquet:
		err = writeReportParquet(ctx, cw, r, opts.Compression)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
	if err != nil {
		return cw.n, err
	}

	e.logger.DebugContext(ctx, "report exported",
		slog.String("format", string(opts.Format)),
		slog.Int("rows", len(r.Daily)),
		slog.Int64("bytes", cw.n))
	return cw.n, nil
}

// WriteFile renders r into the exports directory. The file is written to a
// temporary name first and renamed, so readers never see a partial file.
func (e *Exporter) WriteFile(ctx context.Context, r *report.Report, opts Options) (string, int64, error) {
	if e.paths == nil {
		return "", 0, errors.New("export: no exports directory configured")
	}
	name := opts.FileName
	if name == "" {
		name = FileName(r, opts.Format)
	}
	path := e.paths.ExportPath(filepath.Base(name))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	start := time.Now()
	n, err := e.Write(ctx, tmp, r, opts)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", n, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", n, fmt.Errorf("failed to move export into place: %w", err)
	}

	e.logger.InfoContext(ctx, "export file written",
		slog.String("path", path),
		slog.String("format", string(opts.Format)),
		slog.Int64("bytes", n),
		slog.Duration("duration", time.Since(start)))
	return path, n, nil
}
