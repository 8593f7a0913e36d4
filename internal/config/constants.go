package config

import (
	"time"

	"bikeshare/pkg/contracts"
)

// Application constants
const (
	AppName    = "bikeshare-dashboard"
	AppVersion = contracts.Version

	// Rate limiting
	DefaultRateLimit = 50 // requests per second
	DefaultBurstSize = 100

	// WebSocket keepalive
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File paths (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultDayFile    = "day.csv"
	DefaultHourFile   = "hour.csv"
	DefaultExportsDir = "exports"
	DefaultLogsDir    = "logs"

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Endpoints
const (
	APIBasePath       = "/api"
	DashboardEndpoint = "/api/dashboard"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
