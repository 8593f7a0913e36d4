package dataset

import (
	"fmt"
	"time"
)

// DateLayout is the layout of the dteday column
const DateLayout = "2006-01-02"

// Season is the meteorological season code of a record
type Season int

const (
	SeasonSpring Season = 1
	SeasonSummer Season = 2
	SeasonFall   Season = 3
	SeasonWinter Season = 4
)

// AllSeasons lists every season in code order
var AllSeasons = []Season{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter}

// String returns the display label of the season
func (s Season) String() string {
	switch s {
	case SeasonSpring:
		return "Spring"
	case SeasonSummer:
		return "Summer"
	case SeasonFall:
		return "Fall"
	case SeasonWinter:
		return "Winter"
	default:
		return "Unknown"
	}
}

// IsValid reports whether s is a known season code
func (s Season) IsValid() bool {
	return s >= SeasonSpring && s <= SeasonWinter
}

// Weather is the weather situation code of a record
type Weather int

const (
	WeatherClear  Weather = 1
	WeatherCloudy Weather = 2
	WeatherRain   Weather = 3
)

// WeatherHeavyRain occurs in the source files but is not a filter option,
// so its rows never reach a filtered view.
const WeatherHeavyRain Weather = 4

// AllWeather lists every selectable weather condition in code order
var AllWeather = []Weather{WeatherClear, WeatherCloudy, WeatherRain}

// String returns the display label of the weather condition
func (w Weather) String() string {
	switch w {
	case WeatherClear:
		return "Cerah"
	case WeatherCloudy:
		return "Mendung"
	case WeatherRain:
		return "Hujan"
	case WeatherHeavyRain:
		return "Hujan Lebat"
	default:
		return "Unknown"
	}
}

// IsValid reports whether w is a selectable weather code
func (w Weather) IsValid() bool {
	return w >= WeatherClear && w <= WeatherRain
}

// IsKnown reports whether w may appear in a source file
func (w Weather) IsKnown() bool {
	return w >= WeatherClear && w <= WeatherHeavyRain
}

// Weekday is the day-of-week index, 0 = Sunday
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayLabels = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

// String returns the Indonesian day name
func (d Weekday) String() string {
	if !d.IsValid() {
		return "Unknown"
	}
	return weekdayLabels[d]
}

// IsValid reports whether d is in 0..6
func (d Weekday) IsValid() bool {
	return d >= Sunday && d <= Saturday
}

// Month is the month index, 1 = January
type Month int

var monthLabels = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// String returns the abbreviated Indonesian month name
func (m Month) String() string {
	if !m.IsValid() {
		return "Unknown"
	}
	return monthLabels[m-1]
}

// IsValid reports whether m is in 1..12
func (m Month) IsValid() bool {
	return m >= 1 && m <= 12
}

// Hour is the hour of day, 0..23
type Hour int

// String returns the hour as a two-digit clock label
func (h Hour) String() string {
	if !h.IsValid() {
		return "Unknown"
	}
	return fmt.Sprintf("%02d:00", int(h))
}

// IsValid reports whether h is in 0..23
func (h Hour) IsValid() bool {
	return h >= 0 && h <= 23
}

// DailyRecord is one row of the daily rental table
type DailyRecord struct {
	Instant    int       `json:"instant"`
	Date       time.Time `json:"date"`
	Season     Season    `json:"season"`
	Year       int       `json:"yr"`
	Month      Month     `json:"mnth"`
	Holiday    bool      `json:"holiday"`
	Weekday    Weekday   `json:"weekday"`
	WorkingDay bool      `json:"workingday"`
	Weather    Weather   `json:"weathersit"`
	Temp       float64   `json:"temp"`
	ATemp      float64   `json:"atemp"`
	Humidity   float64   `json:"hum"`
	Windspeed  float64   `json:"windspeed"`
	Casual     int       `json:"casual"`
	Registered int       `json:"registered"`
	Count      int       `json:"cnt"`
}

// HourlyRecord is one row of the hourly rental table
type HourlyRecord struct {
	DailyRecord
	Hour Hour `json:"hr"`
}

// Bounds is the closed date interval covered by a table
type Bounds struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// IsZero reports whether the bounds were never set
func (b Bounds) IsZero() bool {
	return b.Min.IsZero() && b.Max.IsZero()
}

// Contains reports whether d falls inside the bounds
func (b Bounds) Contains(d time.Time) bool {
	return !d.Before(b.Min) && !d.After(b.Max)
}

// Tables holds both source tables loaded for one session of analysis.
// A Tables value is never mutated after Load returns.
type Tables struct {
	Daily    []DailyRecord
	Hourly   []HourlyRecord
	Bounds   Bounds
	LoadedAt time.Time
}

// NewTables builds a Tables value and computes its bounds from the daily rows
func NewTables(daily []DailyRecord, hourly []HourlyRecord) *Tables {
	return &Tables{
		Daily:    daily,
		Hourly:   hourly,
		Bounds:   computeBounds(daily),
		LoadedAt: time.Now(),
	}
}

// Head returns up to n leading rows of both tables
func (t *Tables) Head(n int) Preview {
	if n < 0 {
		n = 0
	}
	return Preview{
		Daily:  t.Daily[:min(n, len(t.Daily))],
		Hourly: t.Hourly[:min(n, len(t.Hourly))],
	}
}

// Preview is the raw head of each source table
type Preview struct {
	Daily  []DailyRecord  `json:"daily"`
	Hourly []HourlyRecord `json:"hourly"`
}

func computeBounds(daily []DailyRecord) Bounds {
	var b Bounds
	for i, r := range daily {
		if i == 0 || r.Date.Before(b.Min) {
			b.Min = r.Date
		}
		if i == 0 || r.Date.After(b.Max) {
			b.Max = r.Date
		}
	}
	return b
}
