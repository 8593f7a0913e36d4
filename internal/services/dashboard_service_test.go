package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bikeshare/internal/charts"
	"bikeshare/internal/clustering"
	"bikeshare/internal/config"
	"bikeshare/internal/dataset"
	apperrors "bikeshare/internal/errors"
	"bikeshare/internal/exporter"
	"bikeshare/internal/files"
	"bikeshare/internal/filter"
	"bikeshare/internal/report"
	"bikeshare/internal/shared/testutil"
	"bikeshare/pkg/contracts/events"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	dir := t.TempDir()
	return &config.Paths{
		DataDir:    filepath.Join(dir, "data"),
		DayFile:    filepath.Join(dir, "data", "day.csv"),
		HourFile:   filepath.Join(dir, "data", "hour.csv"),
		ExportsDir: filepath.Join(dir, "exports"),
	}
}

// newLoadedService returns a service over the sample tables
func newLoadedService(t *testing.T, hub Broadcaster) *DashboardService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	svc := NewDashboardService(DashboardDeps{
		Paths:   testPaths(t),
		Options: report.DefaultOptions(),
		Hub:     hub,
	}, logger)
	svc.SetTables(testutil.LoadSampleTables(t))
	return svc
}

func TestReportOptionsFrom(t *testing.T) {
	cfg := config.Default().Dashboard
	cfg.LabelStrategy = "demand"
	cfg.PreviewRows = 7

	opts := ReportOptionsFrom(cfg)
	assert.Equal(t, 7, opts.PreviewRows)
	assert.Equal(t, clustering.Options{
		K:        3,
		Seed:     42,
		MaxIter:  300,
		Tol:      1e-4,
		Strategy: clustering.LabelByDemand,
	}, opts.Clustering)
}

func TestDashboardService_NotLoaded(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := NewDashboardService(DashboardDeps{Paths: testPaths(t)}, logger)

	assert.False(t, svc.Loaded())

	_, err := svc.Tables()
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
	_, err = svc.Report(context.Background(), filter.Selection{})
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
	_, err = svc.Filters(context.Background())
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
	_, err = svc.Preview(context.Background())
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
}

func TestDashboardService_Reload(t *testing.T) {
	ctx := context.Background()
	logger, logs := testutil.NewTestLogger(t)
	paths := testPaths(t)
	tables := testutil.LoadSampleTables(t)

	loader := new(MockLoader)
	hub := new(MockBroadcaster)
	svc := NewDashboardService(DashboardDeps{Loader: loader, Paths: paths, Hub: hub}, logger)

	loader.On("Load", mock.Anything, paths.DayFile, paths.HourFile).Return(tables, nil).Once()
	hub.On("BroadcastContext", mock.Anything, events.TypeDatasetReloaded, mock.AnythingOfType("events.DatasetReloaded")).Once()

	summary, err := svc.Reload(ctx)
	require.NoError(t, err)
	testutil.AssertNoErrors(t, logs)
	assert.Equal(t, len(tables.Daily), summary.DailyRows)
	assert.Equal(t, len(tables.Hourly), summary.HourlyRows)
	assert.True(t, svc.Loaded())

	// a failing reload keeps the previous snapshot
	loader.On("Load", mock.Anything, paths.DayFile, paths.HourFile).Return(nil, errors.New("disk gone")).Once()
	hub.On("BroadcastContext", mock.Anything, events.TypeDatasetReloadFailed, mock.Anything).Once()

	_, err = svc.Reload(ctx)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeDataset, appErr.Type)

	current, err := svc.Tables()
	require.NoError(t, err)
	assert.Same(t, tables, current)

	loader.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestDashboardService_ReloadFromFiles(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	paths := testPaths(t)
	testutil.CopySampleData(t, paths.DataDir)

	svc := NewDashboardService(DashboardDeps{Paths: paths}, logger)
	summary, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14, summary.DailyRows)
	assert.Equal(t, "2011-01-01", summary.Bounds.Min.Format(dataset.DateLayout))
}

func TestDashboardService_Filters(t *testing.T) {
	svc := newLoadedService(t, nil)

	opts, err := svc.Filters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []CodeOption{{1, "Cerah"}, {2, "Mendung"}, {3, "Hujan"}}, opts.Weather)
	assert.Equal(t, []CodeOption{{1, "Spring"}, {2, "Summer"}, {3, "Fall"}, {4, "Winter"}}, opts.Seasons)
	assert.Equal(t, "2012-06-15", opts.Bounds.Max.Format(dataset.DateLayout))
}

func TestDashboardService_Report(t *testing.T) {
	svc := newLoadedService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		sel      filter.Selection
		wantErr  error
		validate func(t *testing.T, r *report.Report)
	}{
		{
			name: "everything",
			validate: func(t *testing.T, r *report.Report) {
				assert.Equal(t, 14, r.DailyRows)
				assert.NotNil(t, r.Statistics)
				assert.True(t, r.Clustering.Available)
				assert.Empty(t, r.Warnings)
			},
		},
		{
			name: "single date warns",
			sel:  filter.Selection{Dates: []time.Time{testutil.Date("2011-01-02")}},
			validate: func(t *testing.T, r *report.Report) {
				assert.Equal(t, 1, r.DailyRows)
				require.Len(t, r.Warnings, 1)
				assert.False(t, r.Clustering.Available)
			},
		},
		{
			name: "empty weather selection",
			sel:  filter.Selection{Weather: []int{}},
			validate: func(t *testing.T, r *report.Report) {
				assert.Zero(t, r.DailyRows)
				assert.Equal(t, report.NoticeNoData, r.DailyNotice)
			},
		},
		{
			name:    "invalid season",
			sel:     filter.Selection{Seasons: []int{9}},
			wantErr: filter.ErrInvalidSelection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := svc.Report(ctx, tt.sel)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validate(t, r)
		})
	}
}

func TestDashboardService_Charts(t *testing.T) {
	svc := newLoadedService(t, nil)
	ctx := context.Background()

	all, r, err := svc.Charts(ctx, filter.Selection{})
	require.NoError(t, err)
	assert.Len(t, all, len(charts.IDs))
	assert.Equal(t, 14, r.DailyRows)

	c, err := svc.Chart(ctx, filter.Selection{}, charts.HourWeekdayHeat)
	require.NoError(t, err)
	assert.Equal(t, charts.HourWeekdayHeat, c.ID)

	_, err = svc.Chart(ctx, filter.Selection{}, "nope")
	assert.ErrorIs(t, err, charts.ErrUnknownChart)
}

func TestDashboardService_Preview(t *testing.T) {
	svc := newLoadedService(t, nil)
	p, err := svc.Preview(context.Background())
	require.NoError(t, err)
	assert.Len(t, p.Daily, report.DefaultPreviewRows)
	assert.Len(t, p.Hourly, report.DefaultPreviewRows)
}

func TestDashboardService_Export(t *testing.T) {
	svc := newLoadedService(t, nil)

	var buf bytes.Buffer
	r, n, err := svc.Export(context.Background(), &buf, filter.Selection{Seasons: []int{1}},
		exporter.Options{Format: exporter.FormatCSV}, TriggerHTTP)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, r.DailyRows+1, bytes.Count(buf.Bytes(), []byte("\n")))

	_, _, err = svc.Export(context.Background(), &buf, filter.Selection{},
		exporter.Options{Format: "pdf"}, TriggerHTTP)
	assert.ErrorIs(t, err, exporter.ErrUnsupportedFormat)
}

func TestDashboardService_ExportFile(t *testing.T) {
	hub := new(MockBroadcaster)
	svc := newLoadedService(t, hub)

	hub.On("BroadcastContext", mock.Anything, events.TypeExportCompleted, mock.Anything).Once()

	path, n, err := svc.ExportFile(context.Background(), filter.Selection{},
		exporter.Options{Format: exporter.FormatXLSX}, TriggerCLI)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, n, info.Size())
	hub.AssertExpectations(t)
}

func TestDashboardService_Exports(t *testing.T) {
	svc := newLoadedService(t, nil)
	ctx := context.Background()

	list, err := svc.Exports(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = svc.LatestExport(ctx, exporter.FormatCSV)
	assert.ErrorIs(t, err, files.ErrNotFound)

	path, n, err := svc.ExportFile(ctx, filter.Selection{}, exporter.Options{Format: exporter.FormatCSV}, TriggerCLI)
	require.NoError(t, err)

	list, err = svc.Exports(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, filepath.Base(path), list[0].Name)
	assert.Equal(t, n, list[0].Size)

	latest, err := svc.LatestExport(ctx, exporter.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, list[0].Name, latest.Name)
	_, err = svc.LatestExport(ctx, exporter.FormatParquet)
	assert.ErrorIs(t, err, files.ErrNotFound)

	f, info, err := svc.OpenExport(ctx, list[0].Name)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, exporter.FormatCSV, info.Format)

	_, _, err = svc.OpenExport(ctx, "../day.csv")
	assert.ErrorIs(t, err, files.ErrInvalidName)
	_, _, err = svc.OpenExport(ctx, "missing.csv")
	assert.ErrorIs(t, err, files.ErrNotFound)
}

func TestDashboardService_ConcurrentReadsDuringReload(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	paths := testPaths(t)
	tables := testutil.LoadSampleTables(t)

	loader := new(MockLoader)
	loader.On("Load", mock.Anything, mock.Anything, mock.Anything).Return(tables, nil)
	svc := NewDashboardService(DashboardDeps{Loader: loader, Paths: paths}, logger)
	svc.SetTables(tables)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Report(context.Background(), filter.Selection{})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Reload(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
