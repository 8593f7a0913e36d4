package dataset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Column names of the source files
const (
	ColInstant    = "instant"
	ColDate       = "dteday"
	ColSeason     = "season"
	ColYear       = "yr"
	ColMonth      = "mnth"
	ColHour       = "hr"
	ColHoliday    = "holiday"
	ColWeekday    = "weekday"
	ColWorkingDay = "workingday"
	ColWeather    = "weathersit"
	ColTemp       = "temp"
	ColATemp      = "atemp"
	ColHumidity   = "hum"
	ColWindspeed  = "windspeed"
	ColCasual     = "casual"
	ColRegistered = "registered"
	ColCount      = "cnt"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DailyColumns are the columns every daily file must carry
var DailyColumns = []string{
	ColDate, ColSeason, ColWeather, ColTemp, ColHumidity,
	ColWindspeed, ColWeekday, ColMonth, ColCount,
}

// HourlyColumns are the columns every hourly file must carry
var HourlyColumns = append(append([]string{}, DailyColumns...), ColHour)

var columnTypes = map[string]series.Type{
	ColInstant:    series.Int,
	ColDate:       series.String,
	ColSeason:     series.Int,
	ColYear:       series.Int,
	ColMonth:      series.Int,
	ColHour:       series.Int,
	ColHoliday:    series.Int,
	ColWeekday:    series.Int,
	ColWorkingDay: series.Int,
	ColWeather:    series.Int,
	ColTemp:       series.Float,
	ColATemp:      series.Float,
	ColHumidity:   series.Float,
	ColWindspeed:  series.Float,
	ColCasual:     series.Int,
	ColRegistered: series.Int,
	ColCount:      series.Int,
}

// Loader reads the daily and hourly rental files
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "dataset_loader"))}
}

// Load reads both files concurrently and returns the assembled tables
func (l *Loader) Load(ctx context.Context, dayPath, hourPath string) (*Tables, error) {
	start := time.Now()

	var (
		daily  []DailyRecord
		hourly []HourlyRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		daily, err = l.LoadDaily(gctx, dayPath)
		return err
	})
	g.Go(func() error {
		var err error
		hourly, err = l.LoadHourly(gctx, hourPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables := NewTables(daily, hourly)

	l.logger.InfoContext(ctx, "datasets loaded",
		slog.Int("daily_rows", len(daily)),
		slog.Int("hourly_rows", len(hourly)),
		slog.String("min_date", tables.Bounds.Min.Format(DateLayout)),
		slog.String("max_date", tables.Bounds.Max.Format(DateLayout)),
		slog.Duration("duration", time.Since(start)))

	return tables, nil
}

// LoadDaily reads the daily rental file
func (l *Loader) LoadDaily(ctx context.Context, path string) ([]DailyRecord, error) {
	cols, err := l.readFrame(ctx, path, DailyColumns)
	if err != nil {
		return nil, err
	}

	records, err := cols.dailyRecords()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// LoadHourly reads the hourly rental file
func (l *Loader) LoadHourly(ctx context.Context, path string) ([]HourlyRecord, error) {
	cols, err := l.readFrame(ctx, path, HourlyColumns)
	if err != nil {
		return nil, err
	}

	daily, err := cols.dailyRecords()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	hours, err := cols.ints(ColHour)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	records := make([]HourlyRecord, len(daily))
	for i := range daily {
		h := Hour(hours[i])
		if !h.IsValid() {
			return nil, fmt.Errorf("parse %s: row %d: hour %d out of range", path, i+2, hours[i])
		}
		records[i] = HourlyRecord{DailyRecord: daily[i], Hour: h}
	}
	return records, nil
}

func (l *Loader) readFrame(ctx context.Context, path string, required []string) (*frameColumns, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	df := dataframe.ReadCSV(bytes.NewReader(raw),
		dataframe.HasHeader(true),
		dataframe.WithTypes(columnTypes),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, df.Err)
	}

	cols := newFrameColumns(df)
	if err := cols.require(required); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.logger.DebugContext(ctx, "frame decoded",
		slog.String("path", path),
		slog.Int("rows", df.Nrow()),
		slog.Int("columns", df.Ncol()))

	return cols, ctx.Err()
}

// frameColumns gives typed, NA-checked access to dataframe columns
type frameColumns struct {
	df    dataframe.DataFrame
	names map[string]bool
}

func newFrameColumns(df dataframe.DataFrame) *frameColumns {
	names := make(map[string]bool, df.Ncol())
	for _, n := range df.Names() {
		names[n] = true
	}
	return &frameColumns{df: df, names: names}
}

func (c *frameColumns) has(name string) bool {
	return c.names[name]
}

func (c *frameColumns) require(required []string) error {
	var result *multierror.Error
	for _, name := range required {
		if !c.has(name) {
			result = multierror.Append(result, fmt.Errorf("missing column %q", name))
		}
	}
	return result.ErrorOrNil()
}

func (c *frameColumns) ints(name string) ([]int, error) {
	s := c.df.Col(name)
	out := make([]int, s.Len())
	for i := range out {
		e := s.Elem(i)
		if e.IsNA() {
			return nil, fmt.Errorf("row %d: column %s: missing value", i+2, name)
		}
		v, err := e.Int()
		if err != nil {
			return nil, fmt.Errorf("row %d: column %s: %w", i+2, name, err)
		}
		out[i] = v
	}
	return out, nil
}

// optionalInts returns zeros when the column is absent
func (c *frameColumns) optionalInts(name string, n int) ([]int, error) {
	if !c.has(name) {
		return make([]int, n), nil
	}
	return c.ints(name)
}

func (c *frameColumns) floats(name string) ([]float64, error) {
	values := c.df.Col(name).Float()
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("row %d: column %s: missing value", i+2, name)
		}
	}
	return values, nil
}

func (c *frameColumns) optionalFloats(name string, n int) ([]float64, error) {
	if !c.has(name) {
		return make([]float64, n), nil
	}
	return c.floats(name)
}

func (c *frameColumns) dates(name string) ([]time.Time, error) {
	raw := c.df.Col(name).Records()
	out := make([]time.Time, len(raw))
	for i, s := range raw {
		d, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("row %d: column %s: %w", i+2, name, err)
		}
		out[i] = d
	}
	return out, nil
}

func (c *frameColumns) dailyRecords() ([]DailyRecord, error) {
	n := c.df.Nrow()

	dates, err := c.dates(ColDate)
	if err != nil {
		return nil, err
	}

	intCols := map[string][]int{}
	for _, name := range []string{ColSeason, ColWeather, ColWeekday, ColMonth, ColCount} {
		if intCols[name], err = c.ints(name); err != nil {
			return nil, err
		}
	}
	for _, name := range []string{ColInstant, ColYear, ColHoliday, ColWorkingDay, ColCasual, ColRegistered} {
		if intCols[name], err = c.optionalInts(name, n); err != nil {
			return nil, err
		}
	}

	floatCols := map[string][]float64{}
	for _, name := range []string{ColTemp, ColHumidity, ColWindspeed} {
		if floatCols[name], err = c.floats(name); err != nil {
			return nil, err
		}
	}
	if floatCols[ColATemp], err = c.optionalFloats(ColATemp, n); err != nil {
		return nil, err
	}

	records := make([]DailyRecord, n)
	for i := 0; i < n; i++ {
		r := DailyRecord{
			Instant:    intCols[ColInstant][i],
			Date:       dates[i],
			Season:     Season(intCols[ColSeason][i]),
			Year:       intCols[ColYear][i],
			Month:      Month(intCols[ColMonth][i]),
			Holiday:    intCols[ColHoliday][i] == 1,
			Weekday:    Weekday(intCols[ColWeekday][i]),
			WorkingDay: intCols[ColWorkingDay][i] == 1,
			Weather:    Weather(intCols[ColWeather][i]),
			Temp:       floatCols[ColTemp][i],
			ATemp:      floatCols[ColATemp][i],
			Humidity:   floatCols[ColHumidity][i],
			Windspeed:  floatCols[ColWindspeed][i],
			Casual:     intCols[ColCasual][i],
			Registered: intCols[ColRegistered][i],
			Count:      intCols[ColCount][i],
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records[i] = r
	}
	return records, nil
}
