// Package events defines the messages pushed to dashboard clients over the
// WebSocket endpoint.
//
// Every message is a JSON envelope:
//
//	{"type": "dataset:reloaded", "data": {...}, "timestamp": "...", "trace_id": "..."}
//
// The trace_id is the request ID of the request that caused the event, when
// there was one.
package events

// Message types
const (
	// TypeConnection is sent once to each client right after it registers
	TypeConnection = "connection"
	// TypeDatasetReloaded follows a successful reload of day.csv and hour.csv
	TypeDatasetReloaded = "dataset:reloaded"
	// TypeDatasetReloadFailed follows a failed reload; the previous data
	// stays in service
	TypeDatasetReloadFailed = "dataset:reload_failed"
	// TypeExportCompleted follows an export written to the exports directory
	TypeExportCompleted = "export:completed"
)

// Connection is the payload of TypeConnection
type Connection struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}

// DatasetReloaded is the payload of TypeDatasetReloaded
type DatasetReloaded struct {
	DailyRows  int    `json:"daily_rows"`
	HourlyRows int    `json:"hourly_rows"`
	MinDate    string `json:"min_date"`
	MaxDate    string `json:"max_date"`
	LoadedAt   string `json:"loaded_at"`
	Duration   string `json:"duration"`
}

// ReloadFailed is the payload of TypeDatasetReloadFailed
type ReloadFailed struct {
	Error string `json:"error"`
}

// ExportCompleted is the payload of TypeExportCompleted
type ExportCompleted struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Bytes   int64  `json:"bytes"`
	Trigger string `json:"trigger"`
}
