package report

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare/internal/clustering"
	"bikeshare/internal/dataset"
	"bikeshare/internal/filter"
)

func loadTables(t *testing.T) *dataset.Tables {
	t.Helper()
	dir := filepath.Join("..", "dataset", "testdata")
	tables, err := dataset.NewLoader(nil).Load(context.Background(),
		filepath.Join(dir, "day.csv"), filepath.Join(dir, "hour.csv"))
	require.NoError(t, err)
	return tables
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestBuild_FullSelection(t *testing.T) {
	tables := loadTables(t)

	r, err := FromSelection(tables, filter.Selection{}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, Title, r.Title)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, 14, r.DailyRows)
	assert.Equal(t, 12, r.HourlyRows)
	assert.Len(t, r.Preview.Daily, DefaultPreviewRows)
	assert.Len(t, r.Preview.Hourly, DefaultPreviewRows)

	require.NotNil(t, r.Statistics)
	assert.Empty(t, r.DailyNotice)
	require.NotNil(t, r.Regression)

	assert.Len(t, r.SeasonMeans, 4)
	assert.Len(t, r.WeatherMeans, 3)
	assert.Len(t, r.WeekdayMeans, 7)
	assert.Len(t, r.TempHumidity, 14)

	require.True(t, r.Clustering.Available)
	assert.Len(t, r.Clustering.Assignments, 14)
	assert.Len(t, r.ClusterTemp, 3)

	require.NotNil(t, r.HourWeekday)
	assert.Empty(t, r.HourlyNotice)
	assert.True(t, r.HasDailyData())
	assert.True(t, r.HasHourlyData())
}

func TestBuild_EmptyDailyView(t *testing.T) {
	tables := loadTables(t)

	// 2011-01-03 .. 2011-01-06 are all clear days
	r, err := FromSelection(tables, filter.Selection{
		Dates:   []time.Time{date(2011, 1, 3), date(2011, 1, 6)},
		Weather: []int{2, 3},
	}, DefaultOptions())
	require.NoError(t, err)

	assert.Zero(t, r.DailyRows)
	assert.Nil(t, r.Statistics)
	assert.Equal(t, NoticeNoData, r.DailyNotice)
	assert.Nil(t, r.Regression)
	assert.Empty(t, r.SeasonMeans)
	assert.Empty(t, r.WeekdayMeans)

	assert.False(t, r.Clustering.Available)
	assert.Equal(t, clustering.NoticeUnavailable, r.Clustering.Notice)
	assert.Empty(t, r.ClusterTemp)

	assert.Zero(t, r.HourlyRows)
	assert.Nil(t, r.HourWeekday)
	assert.Equal(t, NoticeNoHourly, r.HourlyNotice)

	// previews always show the unfiltered tables
	assert.Len(t, r.Preview.Daily, DefaultPreviewRows)
}

func TestBuild_SeasonDoesNotFilterHourly(t *testing.T) {
	tables := loadTables(t)

	r, err := FromSelection(tables, filter.Selection{Seasons: []int{4}}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, r.DailyRows)
	assert.Equal(t, 12, r.HourlyRows)
	assert.False(t, r.Clustering.Available, "one row cannot form three clusters")
	require.NotNil(t, r.Statistics)
}

func TestBuild_SingleDateWarns(t *testing.T) {
	tables := loadTables(t)

	r, err := FromSelection(tables, filter.Selection{Dates: []time.Time{date(2011, 1, 1)}}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, r.Warnings, 1)
	assert.Equal(t, filter.WarningInvalidRange, r.Warnings[0].Message)
	assert.Equal(t, 1, r.DailyRows)
	assert.Equal(t, 6, r.HourlyRows)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(nil, filter.Config{}, DefaultOptions())
	assert.Error(t, err)

	tables := loadTables(t)
	_, err = FromSelection(tables, filter.Selection{Weather: []int{9}}, DefaultOptions())
	assert.ErrorIs(t, err, filter.ErrInvalidSelection)

	opts := DefaultOptions()
	opts.Clustering.Strategy = "random"
	_, err = Build(tables, filter.DefaultConfig(tables.Bounds), opts)
	assert.ErrorIs(t, err, clustering.ErrInvalidOptions)
}

func TestReport_JSONOmitsViews(t *testing.T) {
	tables := loadTables(t)
	r, err := Build(tables, filter.DefaultConfig(tables.Bounds), DefaultOptions())
	require.NoError(t, err)

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "Daily")
	assert.Contains(t, decoded, "statistics")
	assert.Contains(t, decoded, "hour_weekday")
}
