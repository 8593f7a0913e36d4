// Package services implements the application layer of the bike rental
// dashboard. It sits between the HTTP handlers and the pure computational
// packages (dataset, filter, report, charts, exporter).
//
// # Available Services
//
//   - DashboardService: owns the dataset snapshot and builds reports,
//     charts, previews and exports from it
//   - DataWatcher: reloads the snapshot when day.csv or hour.csv changes
//   - ExportScheduler: writes full-range exports on a cron schedule
//   - HealthService: health, readiness and liveness checks
//
// # Snapshot Model
//
// The source tables are held as an immutable *dataset.Tables behind an
// atomic pointer. Each request reads the pointer once and computes its own
// filtered views, so requests never block each other. A reload builds a
// complete new value and swaps it in; a failed reload keeps the previous
// snapshot serving.
//
// # Error Handling
//
// Services return sentinel errors (ErrDatasetNotLoaded), filter errors
// wrapping filter.ErrInvalidSelection, chart lookups wrapping
// charts.ErrUnknownChart, export errors wrapping
// exporter.ErrUnsupportedFormat, and *errors.AppError for dataset load
// failures. Handlers map them to problem details.
//
// # Testing
//
// Collaborators are interfaces with testify mocks in test_helpers.go:
//
//	loader := new(MockLoader)
//	loader.On("Load", mock.Anything, dayPath, hourPath).Return(tables, nil)
//	svc := NewDashboardService(DashboardDeps{Loader: loader, Paths: paths}, logger)
package services
