package exporter

import (
	"fmt"
	"strconv"
	"strings"

	"bikeshare/internal/dataset"
)

// Format is an export file format
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatParquet Format = "parquet"
)

// AllFormats lists the supported formats
var AllFormats = []Format{FormatCSV, FormatXLSX, FormatParquet}

// ParseFormat accepts a format name case-insensitively
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return f, nil
}

// IsValid reports whether f is supported
func (f Format) IsValid() bool {
	switch f {
	case FormatCSV, FormatXLSX, FormatParquet:
		return true
	}
	return false
}

// ContentType is the MIME type served for f
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	}
	return "application/octet-stream"
}

// Extension is the file extension of f, without the dot
func (f Format) Extension() string {
	return string(f)
}

// recordHeaders are the column names of the exported daily view
var recordHeaders = []string{
	dataset.ColDate, dataset.ColSeason, dataset.ColYear, dataset.ColMonth,
	dataset.ColHoliday, dataset.ColWeekday, dataset.ColWorkingDay, dataset.ColWeather,
	dataset.ColTemp, dataset.ColATemp, dataset.ColHumidity, dataset.ColWindspeed,
	dataset.ColCasual, dataset.ColRegistered, dataset.ColCount,
}

// recordValues flattens r in recordHeaders order
func recordValues(r dataset.DailyRecord) []string {
	return []string{
		r.Date.Format(dataset.DateLayout),
		formatInt(int(r.Season)),
		formatInt(r.Year),
		formatInt(int(r.Month)),
		formatBool(r.Holiday),
		formatInt(int(r.Weekday)),
		formatBool(r.WorkingDay),
		formatInt(int(r.Weather)),
		formatFloat(r.Temp),
		formatFloat(r.ATemp),
		formatFloat(r.Humidity),
		formatFloat(r.Windspeed),
		formatInt(r.Casual),
		formatInt(r.Registered),
		formatInt(r.Count),
	}
}

// formatFloat keeps the source precision of normalised measurements
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool writes flags as 0/1 like the source files
func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
