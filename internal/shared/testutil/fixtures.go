package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bikeshare/internal/dataset"
)

// SampleDataDir returns the directory holding the sample day.csv and hour.csv
func SampleDataDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "dataset", "testdata")
}

// LoadSampleTables loads the sample tables or fails the test
func LoadSampleTables(t testing.TB) *dataset.Tables {
	t.Helper()
	dir := SampleDataDir()
	tables, err := dataset.NewLoader(nil).Load(context.Background(),
		filepath.Join(dir, "day.csv"), filepath.Join(dir, "hour.csv"))
	require.NoError(t, err)
	return tables
}

// CopySampleData copies the sample files into dir and returns their paths
func CopySampleData(t testing.TB, dir string) (dayPath, hourPath string) {
	t.Helper()
	src := SampleDataDir()
	for _, name := range []string{"day.csv", "hour.csv"} {
		data, err := os.ReadFile(filepath.Join(src, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
	}
	return filepath.Join(dir, "day.csv"), filepath.Join(dir, "hour.csv")
}

// Date parses a YYYY-MM-DD literal as UTC midnight
func Date(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

// Day builds a daily record with derived calendar fields filled in
func Day(date string, season dataset.Season, weather dataset.Weather, cnt int) dataset.DailyRecord {
	d := Date(date)
	return dataset.DailyRecord{
		Date:       d,
		Season:     season,
		Year:       d.Year() - 2011,
		Month:      dataset.Month(d.Month()),
		Weekday:    dataset.Weekday(d.Weekday()),
		WorkingDay: d.Weekday() != time.Saturday && d.Weekday() != time.Sunday,
		Weather:    weather,
		Temp:       0.5,
		ATemp:      0.5,
		Humidity:   0.6,
		Windspeed:  0.2,
		Casual:     cnt / 5,
		Registered: cnt - cnt/5,
		Count:      cnt,
	}
}

// Hourly attaches an hour to a daily record
func Hourly(day dataset.DailyRecord, hour int, cnt int) dataset.HourlyRecord {
	day.Count = cnt
	day.Casual = cnt / 5
	day.Registered = cnt - cnt/5
	return dataset.HourlyRecord{DailyRecord: day, Hour: dataset.Hour(hour)}
}
