package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnumLabels(t *testing.T) {
	t.Run("Season", func(t *testing.T) {
		tests := []struct {
			season Season
			want   string
		}{
			{SeasonSpring, "Spring"},
			{SeasonSummer, "Summer"},
			{SeasonFall, "Fall"},
			{SeasonWinter, "Winter"},
			{Season(0), "Unknown"},
			{Season(5), "Unknown"},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, tt.season.String())
			assert.Equal(t, tt.want != "Unknown", tt.season.IsValid())
		}
	})

	t.Run("Weather", func(t *testing.T) {
		assert.Equal(t, "Cerah", WeatherClear.String())
		assert.Equal(t, "Mendung", WeatherCloudy.String())
		assert.Equal(t, "Hujan", WeatherRain.String())
		assert.Equal(t, "Hujan Lebat", WeatherHeavyRain.String())
		assert.Equal(t, "Unknown", Weather(5).String())
		assert.False(t, Weather(0).IsValid())

		// heavy rain loads but cannot be selected
		assert.True(t, WeatherHeavyRain.IsKnown())
		assert.False(t, WeatherHeavyRain.IsValid())
		assert.False(t, Weather(5).IsKnown())
		assert.NotContains(t, AllWeather, WeatherHeavyRain)
	})

	t.Run("Weekday", func(t *testing.T) {
		want := []string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}
		for i, label := range want {
			assert.Equal(t, label, Weekday(i).String())
		}
		assert.Equal(t, "Unknown", Weekday(7).String())
		assert.Equal(t, "Unknown", Weekday(-1).String())
	})

	t.Run("Month", func(t *testing.T) {
		want := []string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}
		for i, label := range want {
			assert.Equal(t, label, Month(i+1).String())
		}
		assert.Equal(t, "Unknown", Month(0).String())
		assert.Equal(t, "Unknown", Month(13).String())
	})

	t.Run("Hour", func(t *testing.T) {
		assert.Equal(t, "00:00", Hour(0).String())
		assert.Equal(t, "17:00", Hour(17).String())
		assert.Equal(t, "Unknown", Hour(24).String())
	})
}

func TestTables(t *testing.T) {
	day := func(m, d int) time.Time { return time.Date(2011, time.Month(m), d, 0, 0, 0, 0, time.UTC) }
	daily := []DailyRecord{
		{Date: day(3, 5), Count: 1},
		{Date: day(1, 2), Count: 2},
		{Date: day(7, 9), Count: 3},
	}
	hourly := []HourlyRecord{{DailyRecord: daily[0], Hour: 1}}

	tables := NewTables(daily, hourly)

	assert.Equal(t, day(1, 2), tables.Bounds.Min)
	assert.Equal(t, day(7, 9), tables.Bounds.Max)
	assert.True(t, tables.Bounds.Contains(day(3, 5)))
	assert.False(t, tables.Bounds.Contains(day(12, 1)))

	head := tables.Head(2)
	assert.Len(t, head.Daily, 2)
	assert.Len(t, head.Hourly, 1)
	assert.Empty(t, tables.Head(-1).Daily)

	empty := NewTables(nil, nil)
	assert.True(t, empty.Bounds.IsZero())
	assert.Empty(t, empty.Head(5).Daily)
}

func TestDailyRecord_Validate(t *testing.T) {
	valid := DailyRecord{Season: SeasonFall, Weather: WeatherClear, Weekday: Monday, Month: 5, Count: 10}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*DailyRecord)
		field  string
	}{
		{"season", func(r *DailyRecord) { r.Season = 9 }, ColSeason},
		{"weather", func(r *DailyRecord) { r.Weather = 4 }, ColWeather},
		{"weekday", func(r *DailyRecord) { r.Weekday = 7 }, ColWeekday},
		{"month", func(r *DailyRecord) { r.Month = 0 }, ColMonth},
		{"count", func(r *DailyRecord) { r.Count = -1 }, ColCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			var verr ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
