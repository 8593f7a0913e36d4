package analytics

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare/internal/dataset"
)

func daily(weekday dataset.Weekday, season dataset.Season, weather dataset.Weather, month dataset.Month, temp float64, count int) dataset.DailyRecord {
	return dataset.DailyRecord{
		Date:    time.Date(2011, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
		Weekday: weekday, Season: season, Weather: weather, Month: month,
		Temp: temp, Humidity: 0.5, Windspeed: 0.2, Count: count,
	}
}

func TestWeekdayMeans_EqualsTotalOverRows(t *testing.T) {
	// counts per weekday code; weekday 4 is deliberately absent
	counts := map[dataset.Weekday][]int{
		dataset.Sunday:    {100, 200},
		dataset.Monday:    {300},
		dataset.Tuesday:   {10, 20, 30},
		dataset.Wednesday: {5, 5},
		dataset.Friday:    {7},
		dataset.Saturday:  {1, 2, 3, 4},
	}

	var rows []dataset.DailyRecord
	for d, cs := range counts {
		for _, c := range cs {
			rows = append(rows, daily(d, dataset.SeasonSpring, dataset.WeatherClear, 1, 0.3, c))
		}
	}

	got := WeekdayMeans(rows)
	require.Len(t, got, 6)

	wantLabels := []string{"Minggu", "Senin", "Selasa", "Rabu", "Jumat", "Sabtu"}
	for i, m := range got {
		assert.Equal(t, wantLabels[i], m.Label)

		cs := counts[dataset.Weekday(m.Key)]
		total := 0
		for _, c := range cs {
			total += c
		}
		assert.Equal(t, len(cs), m.Count)
		assert.InDelta(t, float64(total)/float64(len(cs)), m.Mean, 1e-9)
	}
}

func TestCategoryMeans(t *testing.T) {
	rows := []dataset.DailyRecord{
		daily(0, dataset.SeasonWinter, dataset.WeatherRain, 12, 0.1, 100),
		daily(1, dataset.SeasonSpring, dataset.WeatherClear, 3, 0.2, 200),
		daily(2, dataset.SeasonSpring, dataset.WeatherClear, 3, 0.3, 400),
		daily(3, dataset.SeasonFall, dataset.WeatherCloudy, 9, 0.7, 900),
	}

	tests := []struct {
		name   string
		fn     func([]dataset.DailyRecord) []CategoryMean
		labels []string
		means  []float64
	}{
		{"season", SeasonMeans, []string{"Spring", "Fall", "Winter"}, []float64{300, 900, 100}},
		{"weather", WeatherMeans, []string{"Cerah", "Mendung", "Hujan"}, []float64{300, 900, 100}},
		{"month", MonthMeans, []string{"Mar", "Sep", "Des"}, []float64{300, 900, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(rows)
			require.Len(t, got, len(tt.labels))
			for i := range got {
				assert.Equal(t, tt.labels[i], got[i].Label)
				assert.InDelta(t, tt.means[i], got[i].Mean, 1e-9)
			}
		})
	}
}

func TestMeans_EmptyView(t *testing.T) {
	assert.Empty(t, SeasonMeans(nil))
	assert.Empty(t, WeatherMeans(nil))
	assert.Empty(t, WeekdayMeans(nil))
	assert.Empty(t, MonthMeans(nil))
	assert.Empty(t, HourMeans(nil))
	assert.Empty(t, WeatherShare(nil))
	assert.True(t, HourWeekdayMeans(nil).IsEmpty())
}

func TestWeatherShare(t *testing.T) {
	rows := []dataset.DailyRecord{
		daily(0, 1, dataset.WeatherClear, 1, 0.3, 300),
		daily(0, 1, dataset.WeatherClear, 1, 0.3, 500),
		daily(0, 1, dataset.WeatherCloudy, 1, 0.3, 400),
		daily(0, 1, dataset.WeatherRain, 1, 0.3, 200),
	}

	shares := WeatherShare(rows)
	require.Len(t, shares, 3)

	var sum float64
	for _, s := range shares {
		sum += s.Percent
	}
	assert.InDelta(t, 100, sum, 1e-9)
	assert.InDelta(t, 40, shares[0].Percent, 1e-9)
	assert.InDelta(t, 40, shares[1].Percent, 1e-9)
	assert.InDelta(t, 20, shares[2].Percent, 1e-9)
}

func TestHourWeekdayMeans(t *testing.T) {
	hourly := func(h dataset.Hour, d dataset.Weekday, c int) dataset.HourlyRecord {
		return dataset.HourlyRecord{DailyRecord: dataset.DailyRecord{Weekday: d, Count: c}, Hour: h}
	}
	rows := []dataset.HourlyRecord{
		hourly(8, dataset.Monday, 100),
		hourly(8, dataset.Monday, 300),
		hourly(17, dataset.Monday, 500),
		hourly(8, dataset.Saturday, 50),
	}

	m := HourWeekdayMeans(rows)

	assert.Equal(t, []dataset.Hour{8, 17}, m.Hours)
	assert.Equal(t, []dataset.Weekday{dataset.Monday, dataset.Saturday}, m.Weekdays)
	assert.Equal(t, []string{"Senin", "Sabtu"}, m.Labels)

	v, ok := m.Value(8, dataset.Monday)
	assert.True(t, ok)
	assert.InDelta(t, 200, v, 1e-9)

	_, ok = m.Value(17, dataset.Saturday)
	assert.False(t, ok, "unobserved pair is null")
	assert.Nil(t, m.Cells[1][1])

	_, ok = m.Value(3, dataset.Monday)
	assert.False(t, ok)

	assert.InDelta(t, 50, m.Min, 1e-9)
	assert.InDelta(t, 500, m.Max, 1e-9)

	hours := HourMeans(rows)
	require.Len(t, hours, 2)
	assert.Equal(t, "08:00", hours[0].Label)
	assert.InDelta(t, 150, hours[0].Mean, 1e-9)
}

func TestDescribe(t *testing.T) {
	_, ok := Describe(nil)
	assert.False(t, ok)

	rows := []dataset.DailyRecord{
		daily(0, 1, 1, 1, 0.1, 1),
		daily(0, 1, 1, 1, 0.2, 2),
		daily(0, 1, 1, 1, 0.3, 3),
		daily(0, 1, 1, 1, 0.4, 4),
	}
	for i := range rows {
		rows[i].Instant = 10 + i
	}

	summary, ok := Describe(rows)
	require.True(t, ok)
	assert.Equal(t, 4, summary.Rows)
	assert.Len(t, summary.Columns, len(describedColumns))

	// record id leads the table, as in the source file
	assert.Equal(t, dataset.ColInstant, summary.Columns[0].Column)
	assert.InDelta(t, 11.5, summary.Columns[0].Mean, 1e-9)
	assert.InDelta(t, 13, summary.Columns[0].Max, 1e-9)

	cnt, ok := summary.Column(dataset.ColCount)
	require.True(t, ok)
	assert.Equal(t, 4, cnt.Count)
	assert.InDelta(t, 2.5, cnt.Mean, 1e-9)
	require.NotNil(t, cnt.Std)
	assert.InDelta(t, math.Sqrt(5.0/3.0), *cnt.Std, 1e-9)
	assert.InDelta(t, 1, cnt.Min, 1e-9)
	assert.InDelta(t, 1.75, cnt.Q25, 1e-9)
	assert.InDelta(t, 2.5, cnt.Median, 1e-9)
	assert.InDelta(t, 3.25, cnt.Q75, 1e-9)
	assert.InDelta(t, 4, cnt.Max, 1e-9)

	single, ok := Describe(rows[:1])
	require.True(t, ok)
	c, _ := single.Column(dataset.ColTemp)
	assert.Nil(t, c.Std)
	assert.InDelta(t, 0.1, c.Median, 1e-9)
}

func TestRegress(t *testing.T) {
	rows := []dataset.DailyRecord{
		daily(0, 1, 1, 1, 0.0, 100),
		daily(0, 1, 1, 1, 0.5, 600),
		daily(0, 1, 1, 1, 1.0, 1100),
	}

	reg, ok := Regress(rows)
	require.True(t, ok)
	assert.InDelta(t, 100, reg.Intercept, 1e-9)
	assert.InDelta(t, 1000, reg.Slope, 1e-9)
	assert.InDelta(t, 1, reg.RSquared, 1e-9)
	assert.Len(t, reg.Points, 3)
	assert.InDelta(t, 0, reg.Line[0].X, 1e-9)
	assert.InDelta(t, 100, reg.Line[0].Y, 1e-9)
	assert.InDelta(t, 1100, reg.Line[1].Y, 1e-9)

	_, ok = Regress(rows[:1])
	assert.False(t, ok)

	flat := []dataset.DailyRecord{daily(0, 1, 1, 1, 0.3, 1), daily(0, 1, 1, 1, 0.3, 2)}
	_, ok = Regress(flat)
	assert.False(t, ok)
}

func TestQuartiles(t *testing.T) {
	_, ok := Quartiles(nil)
	assert.False(t, ok)

	bp, ok := Quartiles([]float64{1, 2, 3, 4, 5, 6, 7, 8, 100})
	require.True(t, ok)
	assert.Equal(t, 9, bp.Count)
	assert.InDelta(t, 3, bp.Q1, 1e-9)
	assert.InDelta(t, 5, bp.Median, 1e-9)
	assert.InDelta(t, 7, bp.Q3, 1e-9)
	assert.InDelta(t, 1, bp.WhiskerLow, 1e-9)
	assert.InDelta(t, 8, bp.WhiskerHigh, 1e-9)
	assert.Equal(t, []float64{100}, bp.Outliers)
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		values []float64
		p      float64
		want   float64
	}{
		{[]float64{5}, 0.25, 5},
		{[]float64{1, 2}, 0.5, 1.5},
		{[]float64{1, 2, 3, 4}, 0.75, 3.25},
		{[]float64{1, 2, 3, 4}, 1, 4},
		{[]float64{1, 2, 3, 4}, 0, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, quantile(tt.values, tt.p), 1e-9)
	}
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}

func ExampleWeekdayMeans() {
	rows := []dataset.DailyRecord{
		{Weekday: dataset.Sunday, Count: 100},
		{Weekday: dataset.Sunday, Count: 300},
		{Weekday: dataset.Monday, Count: 50},
	}
	for _, m := range WeekdayMeans(rows) {
		fmt.Printf("%s %.0f\n", m.Label, m.Mean)
	}
	// Output:
	// Minggu 200
	// Senin 50
}
