// Package http holds the HTTP handlers of the dashboard server.
//
// Handlers stay thin: they parse the query, call the dashboard or health
// service and translate domain errors into RFC 7807 problem responses
// through errors.ErrorHandler.
//
// Routes:
//
//	GET /                          HTML dashboard (PageHandler)
//	GET /static/*                  embedded script and stylesheet
//	GET /api/dashboard/filters     sidebar options and date bounds
//	GET /api/dashboard/report      filtered report
//	GET /api/dashboard/charts      all chart specifications, ?tab= for one tab
//	GET /api/dashboard/charts/{id} one chart specification
//	GET /api/dashboard/preview     first rows of both tables, ?rows= to shorten
//	GET /api/dashboard/export/{f}  filtered daily data as csv, xlsx or parquet
//	GET /api/dashboard/exports     files in the exports directory; ?latest=csv|xlsx|parquet
//	GET /api/dashboard/exports/{n} download one of them
//	GET /api/health/...            health, readiness, liveness and stats
//	GET /api/metrics/websocket     hub counters
//	POST /api/logs                 browser log forwarding
//	GET /ws                        live reload notifications
//
// Filter queries accept start and end (YYYY-MM-DD) plus repeated or comma
// separated weather and season codes. A code parameter that is present but
// empty selects nothing.
package http
