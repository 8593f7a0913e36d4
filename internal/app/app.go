package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-multierror"

	"bikeshare/internal/config"
	apierrors "bikeshare/internal/errors"
	"bikeshare/internal/infrastructure"
	customMiddleware "bikeshare/internal/middleware"
	"bikeshare/internal/services"
	handlers "bikeshare/internal/transport/http"
	ws "bikeshare/internal/websocket"
	"bikeshare/pkg/contracts"
)

// systemSampleInterval is how often runtime gauges are refreshed
const systemSampleInterval = 15 * time.Second

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	SystemMetrics *infrastructure.SystemMetrics
	ErrorHandler  *apierrors.ErrorHandler

	WebSocketHub  *ws.Hub
	Dashboard     *services.DashboardService
	HealthService *services.HealthService
	Watcher       *services.DataWatcher
	Scheduler     *services.ExportScheduler

	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

// NewApplication loads the configuration from the usual locations and
// builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return New(cfg, nil)
}

// New wires every component for cfg. A nil logger initialises the global
// one from cfg.Logging. The dataset is loaded before New returns; a
// malformed day.csv or hour.csv is fatal here.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	paths, err := cfg.Paths.Resolve(cfg.Logging.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	if logger == nil {
		logCfg := cfg.Logging
		logCfg.FilePath = paths.LogFile
		logger, err = infrastructure.InitializeLogger(logCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.GetVersionString()))
	paths.LogPathResolution(logger)

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	sysMetrics, err := infrastructure.NewSystemMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create system metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		SystemMetrics: sysMetrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := a.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := a.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	a.createServer()

	return a, nil
}

// initializeServices builds the hub and services and performs the first load
func (a *Application) initializeServices() error {
	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics)

	a.Dashboard = services.NewDashboardService(services.DashboardDeps{
		Paths:   a.Paths,
		Options: services.ReportOptionsFrom(a.Config.Dashboard),
		Metrics: a.Metrics,
		Hub:     a.WebSocketHub,
		Tracer:  a.OTelProviders.Tracer,
	}, a.Logger)

	summary, err := a.Dashboard.Reload(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	a.Logger.Info("Dataset loaded",
		slog.Int("daily_rows", summary.DailyRows),
		slog.Int("hourly_rows", summary.HourlyRows),
		slog.String("duration", summary.Duration))

	a.HealthService = services.NewHealthService(services.BuildInfo{
		Version:   contracts.Version,
		BuildTime: contracts.BuildTime,
		BuildID:   contracts.GitCommit,
	}, a.Paths, a.Dashboard, a.WebSocketHub, a.Logger)

	if a.Config.Watch.Enabled {
		a.Watcher = services.NewDataWatcher(a.Dashboard, a.Paths, a.Config.Watch.Debounce, a.Logger)
	}

	scheduler, err := services.NewExportScheduler(a.Dashboard, a.Config.Export, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create export scheduler: %w", err)
	}
	a.Scheduler = scheduler

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// Only middleware that leaves the ResponseWriter untouched runs before
	// the WebSocket route; the upgrade needs the raw http.Hijacker.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	wsHandler := handlers.NewWebSocketHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.Handle(config.WebSocketEndpoint, wsHandler)

	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.WebSocketHub)
	r.Get(config.MetricsEndpoint, metricsHandler.Prometheus)

	pageHandler, err := handlers.NewPageHandler(a.Dashboard, a.Logger, a.ErrorHandler)
	if err != nil {
		return err
	}
	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → logger/recoverer → headers → CORS → rate limit → timeout
		r.Use(otelMiddleware.Handler)
		r.Use(apierrors.NewErrorMiddleware(a.ErrorHandler, a.Logger).Handler)
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		r.Use(customMiddleware.Compress(5))

		r.Get("/", pageHandler.Dashboard)
		r.Get("/static/*", pageHandler.Static)

		r.Route(config.APIBasePath, func(r chi.Router) {
			r.Mount("/dashboard", handlers.NewDashboardHandler(a.Dashboard, a.Logger, a.ErrorHandler).Routes())

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)

			r.Mount("/metrics", metricsHandler.Routes())
			r.Post("/logs", handlers.NewClientLogHandler(a.Logger, a.ErrorHandler).Handle)
		})
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
	return nil
}

// getCORSConfig returns CORS configuration from the security section
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins:   a.Config.Security.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowCredentials: false,
		MaxAge:           3600,
		Logger:           a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// StartBackground starts the hub, the file watcher, the export scheduler
// and the runtime sampler. They run until Stop.
func (a *Application) StartBackground(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancel = cancel

	a.WebSocketHub.Start()

	if a.Watcher != nil {
		a.bg.Add(1)
		go func() {
			defer a.bg.Done()
			if err := a.Watcher.Run(bgCtx); err != nil {
				a.Logger.ErrorContext(bgCtx, "Data watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	if err := a.Scheduler.Start(bgCtx); err != nil {
		return fmt.Errorf("failed to start export scheduler: %w", err)
	}
	if a.Scheduler.Enabled() {
		a.Logger.InfoContext(ctx, "Export scheduler started",
			slog.String("schedule", a.Config.Export.Schedule),
			slog.Time("next_run", a.Scheduler.Next()))
	}

	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		a.SystemMetrics.Run(bgCtx, systemSampleInterval, a.Logger)
	}()
	return nil
}

// Start starts the background services and the HTTP server. A listener
// failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	if err := a.StartBackground(ctx); err != nil {
		return err
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	url := fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)
	a.Logger.InfoContext(ctx, "Application started", slog.String("url", url))

	if a.Config.Server.OpenBrowser {
		go a.openWhenReady(ctx, url)
	}
	return nil
}

// Stop shuts the server down and stops every background service. All
// shutdown errors are returned together.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var result *multierror.Error

	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			result = multierror.Append(result, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.bgCancel != nil {
		a.bgCancel()
	}
	a.Scheduler.Stop()
	a.bg.Wait()
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			result = multierror.Append(result, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close log file: %w", err))
	}
	return result.ErrorOrNil()
}

// Run runs the application until SIGINT, SIGTERM or a listener failure
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(runCtx, cancel); err != nil {
		return err
	}

	<-runCtx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.Background())
}

// openWhenReady waits for the health endpoint and then opens the dashboard
// in the default browser
func (a *Application) openWhenReady(ctx context.Context, url string) {
	client := &http.Client{Timeout: time.Second}
	for i := 0; i < 10; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(500 * time.Millisecond):
		}

		resp, err := client.Get(url + config.HealthEndpoint)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			continue
		}

		if err := openBrowser(ctx, url); err != nil {
			a.Logger.WarnContext(ctx, "Failed to open browser",
				slog.String("url", url),
				slog.String("error", err.Error()))
			fmt.Printf("\nDashboard is running at %s\n\n", url)
		}
		return
	}
	a.Logger.WarnContext(ctx, "Server did not become ready for browser opening", slog.String("url", url))
}

// openBrowser tries each platform opener in turn
func openBrowser(ctx context.Context, url string) error {
	var result *multierror.Error
	for _, args := range browserCommands(runtime.GOOS, url) {
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		if err := cmd.Start(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", args[0], err))
			continue
		}
		go func() { _ = cmd.Wait() }()
		return nil
	}
	return result.ErrorOrNil()
}

func browserCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		return [][]string{
			{"cmd", "/c", "start", "", url},
			{"rundll32", "url.dll,FileProtocolHandler", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		return [][]string{
			{"xdg-open", url},
			{"sensible-browser", url},
		}
	}
}
