package analytics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"bikeshare/internal/dataset"
)

// ColumnStats is the descriptive summary of one numeric column.
// Std is nil when fewer than two rows are present.
type ColumnStats struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Std    *float64 `json:"std"`
	Min    float64  `json:"min"`
	Q25    float64  `json:"q25"`
	Median float64  `json:"median"`
	Q75    float64  `json:"q75"`
	Max    float64  `json:"max"`
}

// Summary is the descriptive statistics table of a daily view
type Summary struct {
	Rows    int           `json:"rows"`
	Columns []ColumnStats `json:"columns"`
}

// StatLabels are the row headers of the statistics table
var StatLabels = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

type numericColumn struct {
	name  string
	value func(dataset.DailyRecord) float64
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var describedColumns = []numericColumn{
	{dataset.ColInstant, func(r dataset.DailyRecord) float64 { return float64(r.Instant) }},
	{dataset.ColSeason, func(r dataset.DailyRecord) float64 { return float64(r.Season) }},
	{dataset.ColYear, func(r dataset.DailyRecord) float64 { return float64(r.Year) }},
	{dataset.ColMonth, func(r dataset.DailyRecord) float64 { return float64(r.Month) }},
	{dataset.ColHoliday, func(r dataset.DailyRecord) float64 { return b2f(r.Holiday) }},
	{dataset.ColWeekday, func(r dataset.DailyRecord) float64 { return float64(r.Weekday) }},
	{dataset.ColWorkingDay, func(r dataset.DailyRecord) float64 { return b2f(r.WorkingDay) }},
	{dataset.ColWeather, func(r dataset.DailyRecord) float64 { return float64(r.Weather) }},
	{dataset.ColTemp, func(r dataset.DailyRecord) float64 { return r.Temp }},
	{dataset.ColATemp, func(r dataset.DailyRecord) float64 { return r.ATemp }},
	{dataset.ColHumidity, func(r dataset.DailyRecord) float64 { return r.Humidity }},
	{dataset.ColWindspeed, func(r dataset.DailyRecord) float64 { return r.Windspeed }},
	{dataset.ColCasual, func(r dataset.DailyRecord) float64 { return float64(r.Casual) }},
	{dataset.ColRegistered, func(r dataset.DailyRecord) float64 { return float64(r.Registered) }},
	{dataset.ColCount, func(r dataset.DailyRecord) float64 { return float64(r.Count) }},
}

// Describe summarises every numeric column of rows. The second result is
// false for an empty view, in which case no table should be shown.
func Describe(rows []dataset.DailyRecord) (Summary, bool) {
	if len(rows) == 0 {
		return Summary{}, false
	}

	summary := Summary{Rows: len(rows), Columns: make([]ColumnStats, 0, len(describedColumns))}
	values := make([]float64, len(rows))
	for _, col := range describedColumns {
		for i, r := range rows {
			values[i] = col.value(r)
		}
		summary.Columns = append(summary.Columns, describeValues(col.name, values))
	}
	return summary, true
}

func describeValues(name string, values []float64) ColumnStats {
	sorted := sortedCopy(values)
	cs := ColumnStats{
		Column: name,
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Min:    floats.Min(values),
		Q25:    quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q75:    quantile(sorted, 0.75),
		Max:    floats.Max(values),
	}
	if len(values) > 1 {
		std := stat.StdDev(values, nil)
		if !math.IsNaN(std) {
			cs.Std = &std
		}
	}
	return cs
}

// Column returns the stats of the named column
func (s Summary) Column(name string) (ColumnStats, bool) {
	for _, c := range s.Columns {
		if c.Column == name {
			return c, true
		}
	}
	return ColumnStats{}, false
}
