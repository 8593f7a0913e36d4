package analytics

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"bikeshare/internal/dataset"
)

// CategoryMean is the mean rental count of one observed category
type CategoryMean struct {
	Key   int     `json:"key"`
	Label string  `json:"label"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// groupCounts collects rental counts per category key
func groupCounts[R any](rows []R, key func(R) int, value func(R) int) map[int][]float64 {
	groups := make(map[int][]float64)
	for _, r := range rows {
		k := key(r)
		groups[k] = append(groups[k], float64(value(r)))
	}
	return groups
}

// meanBy averages the rental count per key. Only observed keys appear,
// ordered by key.
func meanBy[R any](rows []R, key func(R) int, value func(R) int, label func(int) string) []CategoryMean {
	groups := groupCounts(rows, key, value)

	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]CategoryMean, 0, len(keys))
	for _, k := range keys {
		values := groups[k]
		out = append(out, CategoryMean{
			Key:   k,
			Label: label(k),
			Mean:  stat.Mean(values, nil),
			Count: len(values),
		})
	}
	return out
}

func dailyCount(r dataset.DailyRecord) int  { return r.Count }
func hourlyCount(r dataset.HourlyRecord) int { return r.Count }

// SeasonMeans is the mean daily count per season
func SeasonMeans(rows []dataset.DailyRecord) []CategoryMean {
	return meanBy(rows,
		func(r dataset.DailyRecord) int { return int(r.Season) },
		dailyCount,
		func(k int) string { return dataset.Season(k).String() })
}

// WeatherMeans is the mean daily count per weather condition
func WeatherMeans(rows []dataset.DailyRecord) []CategoryMean {
	return meanBy(rows,
		func(r dataset.DailyRecord) int { return int(r.Weather) },
		dailyCount,
		func(k int) string { return dataset.Weather(k).String() })
}

// WeekdayMeans is the mean daily count per day of week, Minggu first
func WeekdayMeans(rows []dataset.DailyRecord) []CategoryMean {
	return meanBy(rows,
		func(r dataset.DailyRecord) int { return int(r.Weekday) },
		dailyCount,
		func(k int) string { return dataset.Weekday(k).String() })
}

// MonthMeans is the mean daily count per month
func MonthMeans(rows []dataset.DailyRecord) []CategoryMean {
	return meanBy(rows,
		func(r dataset.DailyRecord) int { return int(r.Month) },
		dailyCount,
		func(k int) string { return dataset.Month(k).String() })
}

// HourMeans is the mean hourly count per hour of day
func HourMeans(rows []dataset.HourlyRecord) []CategoryMean {
	return meanBy(rows,
		func(r dataset.HourlyRecord) int { return int(r.Hour) },
		hourlyCount,
		func(k int) string { return dataset.Hour(k).String() })
}

// Share is one slice of the weather distribution pie
type Share struct {
	Key     int     `json:"key"`
	Label   string  `json:"label"`
	Mean    float64 `json:"mean"`
	Percent float64 `json:"percent"`
}

// WeatherShare expresses each weather mean as a percentage of the sum of
// the weather means
func WeatherShare(rows []dataset.DailyRecord) []Share {
	means := WeatherMeans(rows)

	var total float64
	for _, m := range means {
		total += m.Mean
	}

	out := make([]Share, 0, len(means))
	for _, m := range means {
		s := Share{Key: m.Key, Label: m.Label, Mean: m.Mean}
		if total > 0 {
			s.Percent = m.Mean / total * 100
		}
		out = append(out, s)
	}
	return out
}
