package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bikeshare/internal/exporter"
	"bikeshare/internal/services"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var (
		sel         selectionFlags
		format      string
		out         string
		bom         bool
		compression string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered daily view and its aggregates",
		Long: `Export writes the report for a selection as CSV, an XLSX workbook or
Parquet. Without --out the file goes to the exports directory under its
default name; --out - writes to stdout.`,
		Example: `  bikectl export --format xlsx --start 2012-01-01 --end 2012-12-31
  bikectl export --format csv --bom --out rentals.csv
  bikectl export --format parquet --compression gzip --out - > rentals.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := map[string]interface{}{"format": format, "bom": bom}
			if compression != "" {
				raw["compression"] = compression
			}
			opts, err := exporter.DecodeOptions(raw)
			if err != nil {
				return err
			}
			selection, err := sel.selection(cmd)
			if err != nil {
				return err
			}
			e, err := g.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if out == "" {
				path, n, err := e.service.ExportFile(ctx, selection, opts, services.TriggerCLI)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", path, n)
				return nil
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
					return fmt.Errorf("failed to create directory: %w", err)
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			rep, n, err := e.service.Export(ctx, w, selection, opts, services.TriggerCLI)
			if err != nil {
				return err
			}
			e.logger.Info("export written",
				slog.String("path", out),
				slog.String("format", string(opts.Format)),
				slog.Int("rows", rep.DailyRows),
				slog.Int64("bytes", n))
			if out != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", out, n)
			}
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv, xlsx or parquet")
	cmd.Flags().StringVarP(&out, "out", "O", "", "output file, - for stdout (default: exports directory)")
	cmd.Flags().BoolVar(&bom, "bom", false, "prefix CSV with a UTF-8 byte order mark")
	cmd.Flags().StringVar(&compression, "compression", "", "parquet codec: snappy, gzip or none")
	return cmd
}
