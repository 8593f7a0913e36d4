// Command bikectl computes dashboard reports and exports from the command
// line, without starting the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bikeshare/internal/config"
	"bikeshare/internal/dataset"
	apierrors "bikeshare/internal/errors"
	"bikeshare/internal/filter"
	"bikeshare/internal/infrastructure"
	"bikeshare/internal/middleware"
	"bikeshare/internal/services"
	api "bikeshare/pkg/contracts/api/v1"
)

type globalFlags struct {
	configFile string
	baseDir    string
	verbose    bool
}

type selectionFlags struct {
	start   string
	end     string
	weather []int
	seasons []int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "bikectl",
		Short:         "Bike-sharing rental reports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (default: config.yaml or configs/config.yaml)")
	root.PersistentFlags().StringVar(&g.baseDir, "base-dir", "", "directory holding data/ and exports/ (default: from config)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newReportCmd(&g),
		newExportCmd(&g),
		newSnapshotCmd(&g),
		newVersionCmd(),
	)
	return root
}

func (s *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.start, "start", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&s.end, "end", "", "last date, YYYY-MM-DD")
	cmd.Flags().IntSliceVar(&s.weather, "weather", nil, "weather codes 1-3; --weather= selects none")
	cmd.Flags().IntSliceVar(&s.seasons, "season", nil, "season codes 1-4; --season= selects none")
}

// selection converts the flags the way the HTTP API converts its query: an
// unset code flag means every code, a set but empty one means none.
func (s *selectionFlags) selection(cmd *cobra.Command) (filter.Selection, error) {
	q := api.DashboardQuery{Start: s.start, End: s.end}
	if cmd.Flags().Changed("weather") {
		q.Weather = append([]int{}, s.weather...)
	}
	if cmd.Flags().Changed("season") {
		q.Seasons = append([]int{}, s.seasons...)
	}
	if err := middleware.NewValidator().ValidateStruct(q); err != nil {
		return filter.Selection{}, flagError(err)
	}

	sel := filter.Selection{Weather: q.Weather, Seasons: q.Seasons}
	for _, v := range []string{q.Start, q.End} {
		if v == "" {
			continue
		}
		d, err := time.Parse(dataset.DateLayout, v)
		if err != nil {
			return filter.Selection{}, fmt.Errorf("%q is not a YYYY-MM-DD date", v)
		}
		sel.Dates = append(sel.Dates, d)
	}
	return sel, nil
}

// flagError flattens validation details into one line
func flagError(err error) error {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	fields, ok := apiErr.Details.([]apierrors.ValidationError)
	if !ok || len(fields) == 0 {
		return err
	}
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Errorf("invalid flags: %s", strings.Join(msgs, "; "))
}

// env is what every data command needs: the loaded service and a logger
type env struct {
	cfg     *config.Config
	paths   *config.Paths
	logger  *slog.Logger
	service *services.DashboardService
}

func (g *globalFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configFile != "" {
		cfg, err = config.LoadFrom(g.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if g.baseDir != "" {
		cfg.Paths.BaseDir = g.baseDir
	}
	return cfg, nil
}

func (g *globalFlags) logger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	logCfg := cfg.Logging
	logCfg.Format = "text"
	if g.verbose {
		logCfg.Level = "debug"
	} else if logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	return infrastructure.NewLogger(logCfg, cmd.ErrOrStderr())
}

// open loads the configuration and the dataset
func (g *globalFlags) open(cmd *cobra.Command) (*env, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	paths, err := cfg.Paths.Resolve(cfg.Logging.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	logger := g.logger(cmd, cfg)

	svc := services.NewDashboardService(services.DashboardDeps{
		Paths:   paths,
		Options: services.ReportOptionsFrom(cfg.Dashboard),
	}, logger)
	if _, err := svc.Reload(cmd.Context()); err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return &env{cfg: cfg, paths: paths, logger: logger, service: svc}, nil
}
