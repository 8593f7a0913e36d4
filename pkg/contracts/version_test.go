package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo_String(t *testing.T) {
	tests := []struct {
		name     string
		info     VersionInfo
		contains []string
		excludes []string
	}{
		{
			name:     "unknown build fields omitted",
			info:     VersionInfo{Product: "P", Version: "1.2.3", APIVersion: "v1", ExportSchema: "1", BuildTime: "unknown", GitCommit: "unknown", Runtime: "go1.24 linux/amd64"},
			contains: []string{"P v1.2.3", "api v1", "export schema 1", "go1.24 linux/amd64"},
			excludes: []string{"commit", "built"},
		},
		{
			name:     "ldflags values shown",
			info:     VersionInfo{Product: "P", Version: "1.2.3", APIVersion: "v1", ExportSchema: "1", BuildTime: "2026-01-02", GitCommit: "abc123", Runtime: "go1.24 linux/amd64"},
			contains: []string{"commit abc123", "built 2026-01-02"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.info.String()
			for _, c := range tt.contains {
				assert.Contains(t, s, c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, s, e)
			}
		})
	}
}

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, APIVersion, info.APIVersion)
	assert.NotEmpty(t, info.Runtime)
	assert.Equal(t, Product+" v"+Version, GetVersionString())
}
