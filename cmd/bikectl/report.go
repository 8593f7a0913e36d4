package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bikeshare/internal/dataset"
	"bikeshare/internal/report"
)

func newReportCmd(g *globalFlags) *cobra.Command {
	var (
		sel     selectionFlags
		output  string
		compact bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute the dashboard report for a selection",
		Example: `  bikectl report --start 2011-01-01 --end 2011-03-31 --season 1
  bikectl report --weather 1,2 -o summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "summary" {
				return fmt.Errorf("unknown output %q: want json or summary", output)
			}
			selection, err := sel.selection(cmd)
			if err != nil {
				return err
			}
			e, err := g.open(cmd)
			if err != nil {
				return err
			}

			rep, err := e.service.Report(cmd.Context(), selection)
			if err != nil {
				return err
			}
			if output == "summary" {
				return writeSummary(cmd.OutOrStdout(), rep)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(rep)
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "json", "json or summary")
	cmd.Flags().BoolVar(&compact, "compact", false, "single-line JSON")
	return cmd
}

func writeSummary(w io.Writer, rep *report.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, rep.Title)
	fmt.Fprintf(tw, "range\t%s .. %s\n",
		rep.Config.Start.Format(dataset.DateLayout), rep.Config.End.Format(dataset.DateLayout))
	fmt.Fprintf(tw, "daily rows\t%d of %d\n", rep.DailyRows, rep.TotalDaily)
	fmt.Fprintf(tw, "hourly rows\t%d of %d\n", rep.HourlyRows, rep.TotalHourly)
	for _, warn := range rep.Warnings {
		fmt.Fprintf(tw, "warning\t%s\n", warn.Message)
	}
	if rep.DailyNotice != "" {
		fmt.Fprintf(tw, "notice\t%s\n", rep.DailyNotice)
	}
	for _, m := range rep.SeasonMeans {
		fmt.Fprintf(tw, "season %s\t%.2f\n", m.Label, m.Mean)
	}
	for _, m := range rep.WeatherMeans {
		fmt.Fprintf(tw, "weather %s\t%.2f\n", m.Label, m.Mean)
	}
	if rep.HourlyNotice != "" {
		fmt.Fprintf(tw, "notice\t%s\n", rep.HourlyNotice)
	}
	return tw.Flush()
}
