// Package report assembles everything the dashboard shows for one filter
// selection into a single value.
package report

import (
	"fmt"
	"time"

	"bikeshare/internal/analytics"
	"bikeshare/internal/clustering"
	"bikeshare/internal/dataset"
	"bikeshare/internal/filter"
)

// Title is the dashboard heading
const Title = "Analisis Tren dan Pola Penyewaan Sepeda Berdasarkan Faktor Waktu dan Cuaca pada Sistem Capital Bike Share (2011–2012)"

const (
	// NoticeNoData replaces the statistics table for an empty daily view
	NoticeNoData = "Tidak ada data yang sesuai dengan filter yang dipilih."
	// NoticeNoHourly replaces the hourly charts for an empty hourly view
	NoticeNoHourly = "Tidak ada data hourly yang tersedia untuk rentang filter yang dipilih."
)

// DefaultPreviewRows is the number of raw rows shown per table
const DefaultPreviewRows = 5

// Options tunes report assembly
type Options struct {
	PreviewRows int
	Clustering  clustering.Options
}

// DefaultOptions returns five preview rows and the default clustering
func DefaultOptions() Options {
	return Options{PreviewRows: DefaultPreviewRows, Clustering: clustering.DefaultOptions()}
}

// LabelBox is the temperature box plot of one demand label
type LabelBox struct {
	Label     clustering.DemandLabel `json:"label"`
	LabelText string                 `json:"label_text"`
	Box       *analytics.BoxPlot     `json:"box"`
}

// Report is the full dashboard content for one filter configuration
type Report struct {
	Title       string           `json:"title"`
	Config      filter.Config    `json:"config"`
	Warnings    []filter.Warning `json:"warnings"`
	Bounds      dataset.Bounds   `json:"bounds"`
	Preview     dataset.Preview  `json:"preview"`
	TotalDaily  int              `json:"total_daily_rows"`
	TotalHourly int              `json:"total_hourly_rows"`
	DailyRows   int              `json:"daily_rows"`
	HourlyRows  int              `json:"hourly_rows"`

	Statistics   *analytics.Summary       `json:"statistics"`
	DailyNotice  string                   `json:"daily_notice,omitempty"`
	SeasonMeans  []analytics.CategoryMean `json:"season_means"`
	WeatherMeans []analytics.CategoryMean `json:"weather_means"`
	WeatherShare []analytics.Share        `json:"weather_share"`
	Regression   *analytics.Regression    `json:"regression"`
	TempHumidity []analytics.HuePoint     `json:"temp_humidity"`
	WeekdayMeans []analytics.CategoryMean `json:"weekday_means"`
	MonthMeans   []analytics.CategoryMean `json:"month_means"`

	Clustering  clustering.Result `json:"clustering"`
	ClusterTemp []LabelBox        `json:"cluster_temp"`

	HourMeans    []analytics.CategoryMean `json:"hour_means"`
	HourWeekday  *analytics.Matrix        `json:"hour_weekday"`
	HourlyNotice string                   `json:"hourly_notice,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`

	Daily  []dataset.DailyRecord  `json:"-"`
	Hourly []dataset.HourlyRecord `json:"-"`
}

// Build filters tables with cfg and computes every section of the report.
// It reads only its arguments.
func Build(tables *dataset.Tables, cfg filter.Config, opts Options) (*Report, error) {
	if tables == nil {
		return nil, fmt.Errorf("build report: no tables loaded")
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = DefaultPreviewRows
	}

	daily := filter.ApplyDaily(tables.Daily, cfg)
	hourly := filter.ApplyHourly(tables.Hourly, cfg)

	r := &Report{
		Title:       Title,
		Config:      cfg,
		Warnings:    []filter.Warning{},
		Bounds:      tables.Bounds,
		Preview:     tables.Head(opts.PreviewRows),
		TotalDaily:  len(tables.Daily),
		TotalHourly: len(tables.Hourly),
		DailyRows:   len(daily),
		HourlyRows:  len(hourly),
		GeneratedAt: time.Now().UTC(),
		Daily:       daily,
		Hourly:      hourly,
	}

	if summary, ok := analytics.Describe(daily); ok {
		r.Statistics = &summary
	} else {
		r.DailyNotice = NoticeNoData
	}

	r.SeasonMeans = analytics.SeasonMeans(daily)
	r.WeatherMeans = analytics.WeatherMeans(daily)
	r.WeatherShare = analytics.WeatherShare(daily)
	r.TempHumidity = analytics.TempHumidity(daily)
	r.WeekdayMeans = analytics.WeekdayMeans(daily)
	r.MonthMeans = analytics.MonthMeans(daily)
	if reg, ok := analytics.Regress(daily); ok {
		r.Regression = &reg
	}

	clusters, err := clustering.Run(daily, opts.Clustering)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	r.Clustering = clusters
	if clusters.Available {
		for _, l := range clustering.AllLabels {
			lb := LabelBox{Label: l, LabelText: l.String()}
			temps := clusters.Values(l, func(a clustering.Assignment) float64 { return a.Temp })
			if box, ok := analytics.Quartiles(temps); ok {
				lb.Box = &box
			}
			r.ClusterTemp = append(r.ClusterTemp, lb)
		}
	}

	r.HourMeans = analytics.HourMeans(hourly)
	if len(hourly) == 0 {
		r.HourlyNotice = NoticeNoHourly
	} else {
		m := analytics.HourWeekdayMeans(hourly)
		r.HourWeekday = &m
	}

	return r, nil
}

// FromSelection validates sel against the table bounds, builds the report
// and attaches the selection warnings
func FromSelection(tables *dataset.Tables, sel filter.Selection, opts Options) (*Report, error) {
	if tables == nil {
		return nil, fmt.Errorf("build report: no tables loaded")
	}
	cfg, warnings, err := filter.NewConfig(sel, tables.Bounds)
	if err != nil {
		return nil, err
	}
	r, err := Build(tables, cfg, opts)
	if err != nil {
		return nil, err
	}
	r.Warnings = append(r.Warnings, warnings...)
	return r, nil
}

// HasDailyData reports whether the filtered daily view has rows
func (r *Report) HasDailyData() bool {
	return r.DailyRows > 0
}

// HasHourlyData reports whether the filtered hourly view has rows
func (r *Report) HasHourlyData() bool {
	return r.HourlyRows > 0
}
