// Package contracts holds the public contracts of the bike rental dashboard:
// version metadata, HTTP request DTOs (api/v1) and WebSocket events (events).
package contracts

import (
	"fmt"
	"runtime"
	"strings"
)

const (
	// Product is the name shown in logs and version output
	Product = "Bike Sharing Dashboard"

	// Version is the current version of the application
	Version = "1.0.0"

	// APIVersion is the version of the JSON API and WebSocket messages
	APIVersion = "v1"

	// ExportSchema versions the column layout shared by every export format
	ExportSchema = "1"
)

// Set with -ldflags "-X bikeshare/pkg/contracts.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is the JSON shape of `bikectl version --json`
type VersionInfo struct {
	Product      string `json:"product"`
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	ExportSchema string `json:"export_schema"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	Runtime      string `json:"runtime"`
}

// GetVersionInfo collects the build metadata of the running binary
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Product:      Product,
		Version:      Version,
		APIVersion:   APIVersion,
		ExportSchema: ExportSchema,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		Runtime:      fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}
}

// GetVersionString returns "<product> v<version>"
func GetVersionString() string {
	return fmt.Sprintf("%s v%s", Product, Version)
}

// String renders the info as one line, omitting unknown build fields.
func (v VersionInfo) String() string {
	parts := []string{"api " + v.APIVersion, "export schema " + v.ExportSchema}
	if v.GitCommit != "unknown" && v.GitCommit != "" {
		parts = append(parts, "commit "+v.GitCommit)
	}
	if v.BuildTime != "unknown" && v.BuildTime != "" {
		parts = append(parts, "built "+v.BuildTime)
	}
	parts = append(parts, v.Runtime)
	return fmt.Sprintf("%s v%s (%s)", v.Product, v.Version, strings.Join(parts, ", "))
}
