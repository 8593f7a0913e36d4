package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdata(name string) string {
	return filepath.Join("testdata", name)
}

func TestLoader_LoadDaily(t *testing.T) {
	loader := NewLoader(nil)

	records, err := loader.LoadDaily(context.Background(), testdata("day.csv"))
	require.NoError(t, err)
	require.Len(t, records, 14)

	first := records[0]
	assert.Equal(t, 1, first.Instant)
	assert.Equal(t, time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, SeasonSpring, first.Season)
	assert.Equal(t, WeatherCloudy, first.Weather)
	assert.Equal(t, Saturday, first.Weekday)
	assert.Equal(t, Month(1), first.Month)
	assert.InDelta(t, 0.344167, first.Temp, 1e-9)
	assert.InDelta(t, 0.805833, first.Humidity, 1e-9)
	assert.InDelta(t, 0.160446, first.Windspeed, 1e-9)
	assert.Equal(t, 985, first.Count)
	assert.Equal(t, 331, first.Casual)
	assert.Equal(t, 654, first.Registered)
	assert.False(t, first.WorkingDay)

	holiday := records[11]
	assert.True(t, holiday.Holiday)
	assert.Equal(t, SeasonFall, holiday.Season)
	assert.Equal(t, 6043, holiday.Count)
}

func TestLoader_LoadHourly(t *testing.T) {
	loader := NewLoader(nil)

	records, err := loader.LoadHourly(context.Background(), testdata("hour.csv"))
	require.NoError(t, err)
	require.Len(t, records, 12)

	assert.Equal(t, Hour(0), records[0].Hour)
	assert.Equal(t, 16, records[0].Count)
	assert.Equal(t, Hour(17), records[11].Hour)
	assert.Equal(t, WeatherCloudy, records[11].Weather)
	assert.Equal(t, SeasonFall, records[11].Season)
}

func TestLoader_StripsBOMAndToleratesOptionalColumns(t *testing.T) {
	loader := NewLoader(nil)

	records, err := loader.LoadDaily(context.Background(), testdata("day_bom_minimal.csv"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 985, records[0].Count)
	assert.Zero(t, records[0].Casual)
	assert.Zero(t, records[0].ATemp)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		contains []string
	}{
		{
			name:     "missing columns reported together",
			file:     testdata("day_missing_columns.csv"),
			contains: []string{`missing column "weathersit"`, `missing column "hum"`, `missing column "windspeed"`},
		},
		{
			name:     "season outside domain",
			file:     testdata("day_bad_season.csv"),
			contains: []string{"row 2", "season code must be 1-4"},
		},
		{
			name:     "file does not exist",
			file:     testdata("nope.csv"),
			contains: []string{"read"},
		},
	}

	loader := NewLoader(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.LoadDaily(context.Background(), tt.file)
			require.Error(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestLoader_LoadHourlyRejectsMissingHour(t *testing.T) {
	loader := NewLoader(nil)

	_, err := loader.LoadHourly(context.Background(), testdata("day.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "hr"`)
}

func TestLoader_LoadHourlyAcceptsHeavyRain(t *testing.T) {
	loader := NewLoader(nil)
	path := filepath.Join(t.TempDir(), "hour.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"instant,dteday,season,yr,mnth,hr,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,casual,registered,cnt\n"+
			"1,2011-01-26,1,0,1,16,0,3,1,4,0.22,0.2273,0.93,0.1642,1,35,36\n"+
			"2,2011-01-26,1,0,1,17,0,3,1,3,0.22,0.2273,0.93,0.1642,2,60,62\n"), 0644))

	records, err := loader.LoadHourly(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, WeatherHeavyRain, records[0].Weather)
	assert.Equal(t, WeatherRain, records[1].Weather)

	require.NoError(t, os.WriteFile(path, []byte(
		"instant,dteday,season,yr,mnth,hr,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,casual,registered,cnt\n"+
			"1,2011-01-26,1,0,1,16,0,3,1,5,0.22,0.2273,0.93,0.1642,1,35,36\n"), 0644))
	_, err = loader.LoadHourly(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather code must be 1-4")
}

func TestLoader_Load(t *testing.T) {
	loader := NewLoader(nil)

	tables, err := loader.Load(context.Background(), testdata("day.csv"), testdata("hour.csv"))
	require.NoError(t, err)

	assert.Len(t, tables.Daily, 14)
	assert.Len(t, tables.Hourly, 12)
	assert.Equal(t, time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), tables.Bounds.Min)
	assert.Equal(t, time.Date(2012, 6, 15, 0, 0, 0, 0, time.UTC), tables.Bounds.Max)
	assert.False(t, tables.LoadedAt.IsZero())
}

func TestLoader_LoadFailsWhenEitherFileFails(t *testing.T) {
	loader := NewLoader(nil)
	dir := t.TempDir()
	broken := filepath.Join(dir, "hour.csv")
	require.NoError(t, os.WriteFile(broken, []byte("dteday,cnt\n2011-01-01,3\n"), 0644))

	_, err := loader.Load(context.Background(), testdata("day.csv"), broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "hr"`)
}

func TestLoader_CancelledContext(t *testing.T) {
	loader := NewLoader(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.LoadDaily(ctx, testdata("day.csv"))
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkLoader_LoadDaily(b *testing.B) {
	loader := NewLoader(nil)
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		if _, err := loader.LoadDaily(ctx, testdata("day.csv")); err != nil {
			b.Fatal(err)
		}
	}
}
