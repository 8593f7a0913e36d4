package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare/internal/config"
	"bikeshare/internal/dataset"
	"bikeshare/internal/shared/testutil"
)

type staticSnapshot struct {
	tables *dataset.Tables
}

func (s staticSnapshot) Tables() (*dataset.Tables, error) {
	if s.tables == nil {
		return nil, ErrDatasetNotLoaded
	}
	return s.tables, nil
}

type fixedClients int

func (f fixedClients) ClientCount() int { return int(f) }

func TestHealthService_ReadinessCheck(t *testing.T) {
	ctx := context.Background()
	tables := testutil.LoadSampleTables(t)

	dataDir := t.TempDir()
	day, hour := testutil.CopySampleData(t, dataDir)
	present := &config.Paths{DataDir: dataDir, DayFile: day, HourFile: hour}
	absent := &config.Paths{DataDir: t.TempDir(), DayFile: "/nope/day.csv", HourFile: "/nope/hour.csv"}

	tests := []struct {
		name     string
		paths    *config.Paths
		snapshot SnapshotSource
		hub      ClientCounter
		want     string
		notReady []string
	}{
		{
			name:     "all ready",
			paths:    present,
			snapshot: staticSnapshot{tables},
			hub:      fixedClients(2),
			want:     StatusReady,
		},
		{
			name:     "no hub is still ready",
			paths:    present,
			snapshot: staticSnapshot{tables},
			want:     StatusReady,
		},
		{
			name:     "dataset not loaded",
			paths:    present,
			snapshot: staticSnapshot{},
			want:     StatusNotReady,
			notReady: []string{"dataset"},
		},
		{
			name:     "files missing",
			paths:    absent,
			snapshot: staticSnapshot{tables},
			want:     StatusNotReady,
			notReady: []string{"data_files"},
		},
		{
			name:     "nothing configured",
			want:     StatusNotReady,
			notReady: []string{"dataset", "data_files"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService(BuildInfo{Version: "1.2.3"}, tt.paths, tt.snapshot, tt.hub, logger)

			status := hs.ReadinessCheck(ctx)
			assert.Equal(t, tt.want, status.Status)
			assert.Equal(t, "1.2.3", status.Version)
			require.Len(t, status.Services, 3)
			for _, name := range tt.notReady {
				assert.Equal(t, StatusNotReady, status.Services[name].Status, name)
			}
		})
	}
}

func TestHealthService_Basics(t *testing.T) {
	ctx := context.Background()
	hs := NewHealthService(BuildInfo{BuildID: "abc"}, nil, nil, nil, nil)

	assert.Equal(t, StatusOK, hs.HealthCheck(ctx).Status)
	assert.Equal(t, config.AppVersion, hs.HealthCheck(ctx).Version)

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, StatusAlive, live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, config.AppName, v["name"])
	assert.Equal(t, "abc", v["build_id"])
	assert.NotContains(t, v, "build_time")
}

func TestHealthService_SystemStats(t *testing.T) {
	tables := testutil.LoadSampleTables(t)
	dir := t.TempDir()
	day, hour := testutil.CopySampleData(t, dir)

	hs := NewHealthService(BuildInfo{}, &config.Paths{DayFile: day, HourFile: hour},
		staticSnapshot{tables}, fixedClients(4), nil)

	stats := hs.SystemStats(context.Background())
	assert.Equal(t, len(tables.Daily), stats.DailyRows)
	assert.Equal(t, len(tables.Hourly), stats.HourlyRows)
	assert.Equal(t, 4, stats.WebSocketClients)
	assert.Positive(t, stats.DataSizeBytes)

	detailed := hs.GetDetailedHealth(context.Background())
	assert.Contains(t, detailed, "readiness")
	assert.Contains(t, detailed, "stats")
}
