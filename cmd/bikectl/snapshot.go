package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"bikeshare/internal/snapshot"
)

func newSnapshotCmd(g *globalFlags) *cobra.Command {
	o := snapshot.DefaultOptions()
	var out string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save a PNG of a running dashboard",
		Long: `Snapshot opens the dashboard in headless Chrome, waits until every chart
is drawn and saves a full-page PNG. Without --url it targets the server
address from the configuration.`,
		Example: `  bikectl snapshot --out dashboard.png
  bikectl snapshot --url "http://localhost:8080/?season=3" --tab time --out fall.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("url") {
				host := cfg.Server.Host
				if host == "" || host == "0.0.0.0" {
					host = "localhost"
				}
				o.URL = "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port)) + "/"
			}
			logger := g.logger(cmd, cfg)

			n, err := snapshot.WriteFile(cmd.Context(), o, out, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", out, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&o.URL, "url", o.URL, "dashboard URL, query string included")
	cmd.Flags().StringVarP(&out, "out", "O", "dashboard.png", "output PNG file")
	cmd.Flags().StringVar(&o.Tab, "tab", "", "tab to open first: eda, clustering or time")
	cmd.Flags().Int64Var(&o.Width, "width", o.Width, "viewport width")
	cmd.Flags().Int64Var(&o.Height, "height", o.Height, "viewport height")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", o.Timeout, "overall timeout")
	cmd.Flags().DurationVar(&o.Settle, "settle", o.Settle, "wait after the charts are drawn")
	cmd.Flags().BoolVar(&o.Headless, "headless", o.Headless, "run the browser headless")
	return cmd
}
