// Package filter turns user selections into a filter configuration and
// applies it to the daily and hourly tables.
package filter

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"bikeshare/internal/dataset"
)

// WarningInvalidRange is shown when the date range collapses to one date
const WarningInvalidRange = "Pilih rentang tanggal yang valid"

// ErrInvalidSelection is returned for selections that cannot form a config
var ErrInvalidSelection = errors.New("invalid filter selection")

// Warning is a non-fatal message about how a selection was interpreted
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Selection is the raw filter input as chosen by the user.
// A nil code slice means "all codes"; an empty non-nil slice selects nothing.
type Selection struct {
	Dates   []time.Time
	Weather []int
	Seasons []int
}

// Config is a validated filter. Start is never after End.
type Config struct {
	Start   time.Time         `json:"start"`
	End     time.Time         `json:"end"`
	Weather []dataset.Weather `json:"weather"`
	Seasons []dataset.Season  `json:"seasons"`
}

// DefaultConfig accepts every row inside bounds
func DefaultConfig(bounds dataset.Bounds) Config {
	return Config{
		Start:   bounds.Min,
		End:     bounds.Max,
		Weather: slices.Clone(dataset.AllWeather),
		Seasons: slices.Clone(dataset.AllSeasons),
	}
}

// NewConfig validates sel against the dataset bounds.
//
// Zero dates select the whole range. One date, or a pair whose first date
// is after the second, collapses to a single day and yields a warning.
func NewConfig(sel Selection, bounds dataset.Bounds) (Config, []Warning, error) {
	var (
		merr     *multierror.Error
		warnings []Warning
	)

	cfg := DefaultConfig(bounds)

	switch len(sel.Dates) {
	case 0:
	case 1:
		cfg.Start, cfg.End = day(sel.Dates[0]), day(sel.Dates[0])
		warnings = append(warnings, Warning{Code: "single_date", Message: WarningInvalidRange})
	case 2:
		start, end := day(sel.Dates[0]), day(sel.Dates[1])
		if start.After(end) {
			end = start
			warnings = append(warnings, Warning{Code: "reversed_range", Message: WarningInvalidRange})
		}
		cfg.Start, cfg.End = start, end
	default:
		merr = multierror.Append(merr, fmt.Errorf("expected at most 2 dates, got %d", len(sel.Dates)))
	}

	if !bounds.IsZero() && len(sel.Dates) > 0 && len(sel.Dates) <= 2 {
		for _, d := range []time.Time{cfg.Start, cfg.End} {
			if !bounds.Contains(d) {
				merr = multierror.Append(merr, fmt.Errorf("date %s outside %s..%s",
					d.Format(dataset.DateLayout),
					bounds.Min.Format(dataset.DateLayout),
					bounds.Max.Format(dataset.DateLayout)))
				break
			}
		}
	}

	if sel.Weather != nil {
		cfg.Weather = cfg.Weather[:0]
		for _, c := range uniqueSorted(sel.Weather) {
			w := dataset.Weather(c)
			if !w.IsValid() {
				merr = multierror.Append(merr, fmt.Errorf("weather code %d outside 1-3", c))
				continue
			}
			cfg.Weather = append(cfg.Weather, w)
		}
	}

	if sel.Seasons != nil {
		cfg.Seasons = cfg.Seasons[:0]
		for _, c := range uniqueSorted(sel.Seasons) {
			s := dataset.Season(c)
			if !s.IsValid() {
				merr = multierror.Append(merr, fmt.Errorf("season code %d outside 1-4", c))
				continue
			}
			cfg.Seasons = append(cfg.Seasons, s)
		}
	}

	if merr != nil {
		merr.ErrorFormat = joinErrors
		return Config{}, nil, fmt.Errorf("%w: %s", ErrInvalidSelection, merr.Error())
	}
	return cfg, warnings, nil
}

// AcceptsWeather reports whether w is in the accepted weather set
func (c Config) AcceptsWeather(w dataset.Weather) bool {
	return slices.Contains(c.Weather, w)
}

// AcceptsSeason reports whether s is in the accepted season set
func (c Config) AcceptsSeason(s dataset.Season) bool {
	return slices.Contains(c.Seasons, s)
}

// InRange reports whether d lies in the closed interval [Start, End]
func (c Config) InRange(d time.Time) bool {
	return !d.Before(c.Start) && !d.After(c.End)
}

// MatchDaily is the daily predicate: date, weather and season
func (c Config) MatchDaily(r dataset.DailyRecord) bool {
	return c.InRange(r.Date) && c.AcceptsWeather(r.Weather) && c.AcceptsSeason(r.Season)
}

// MatchHourly is the hourly predicate: date and weather only
func (c Config) MatchHourly(r dataset.HourlyRecord) bool {
	return c.InRange(r.Date) && c.AcceptsWeather(r.Weather)
}

// ApplyDaily returns the daily rows matching cfg in source order
func ApplyDaily(rows []dataset.DailyRecord, cfg Config) []dataset.DailyRecord {
	out := make([]dataset.DailyRecord, 0, len(rows))
	for _, r := range rows {
		if cfg.MatchDaily(r) {
			out = append(out, r)
		}
	}
	return out
}

// ApplyHourly returns the hourly rows matching cfg in source order
func ApplyHourly(rows []dataset.HourlyRecord, cfg Config) []dataset.HourlyRecord {
	out := make([]dataset.HourlyRecord, 0, len(rows))
	for _, r := range rows {
		if cfg.MatchHourly(r) {
			out = append(out, r)
		}
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func uniqueSorted(codes []int) []int {
	out := slices.Clone(codes)
	slices.Sort(out)
	return slices.Compact(out)
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
