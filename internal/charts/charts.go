// Package charts turns a report into the twelve dashboard chart
// specifications. A spec is plain data; the page draws it with Chart.js.
package charts

import (
	"errors"
	"fmt"

	"bikeshare/internal/analytics"
	"bikeshare/internal/clustering"
	"bikeshare/internal/report"
)

// ErrUnknownChart is returned by Find for an id outside IDs
var ErrUnknownChart = errors.New("unknown chart")

// Tab groups charts on the page
type Tab string

const (
	TabEDA        Tab = "EDA"
	TabClustering Tab = "Clustering"
	TabTime       Tab = "Tren Waktu"
)

// Tabs lists the tabs in page order
var Tabs = []Tab{TabEDA, TabClustering, TabTime}

// Kind is the drawing style of a chart
type Kind string

const (
	KindBar            Kind = "bar"
	KindRegression     Kind = "regression"
	KindPie            Kind = "pie"
	KindScatterHue     Kind = "scatter_hue"
	KindClusterScatter Kind = "cluster_scatter"
	KindCount          Kind = "countplot"
	KindBox            Kind = "boxplot"
	KindBarLine        Kind = "bar_line"
	KindLine           Kind = "line"
	KindHeatmap        Kind = "heatmap"
)

// Chart IDs in page order
const (
	SeasonAvg        = "season-avg"
	TempVsCount      = "temp-vs-cnt"
	WeatherPie       = "weather-pie"
	TempVsHumidity   = "temp-vs-hum"
	ClusterTempCount = "cluster-temp-cnt"
	ClusterCounts    = "cluster-count"
	ClusterTempBox   = "cluster-temp-box"
	ClusterHumCount  = "cluster-hum-cnt"
	WeekdayAvg       = "weekday-avg"
	MonthAvg         = "month-avg"
	HourAvg          = "hour-avg"
	HourWeekdayHeat  = "hour-weekday-heatmap"
)

// IDs lists every chart id in page order
var IDs = []string{
	SeasonAvg, TempVsCount, WeatherPie, TempVsHumidity,
	ClusterTempCount, ClusterCounts, ClusterTempBox, ClusterHumCount,
	WeekdayAvg, MonthAvg, HourAvg, HourWeekdayHeat,
}

// Series is one named set of values. Points is used by scatter kinds,
// Values by category kinds.
type Series struct {
	Name   string               `json:"name"`
	Values []float64            `json:"values,omitempty"`
	Points []analytics.HuePoint `json:"points,omitempty"`
}

// Chart is a renderer-neutral chart specification
type Chart struct {
	ID         string            `json:"id"`
	Number     int               `json:"number"`
	Tab        Tab               `json:"tab"`
	Kind       Kind              `json:"kind"`
	Title      string            `json:"title"`
	XLabel     string            `json:"x_label"`
	YLabel     string            `json:"y_label"`
	Categories []string          `json:"categories,omitempty"`
	Series     []Series          `json:"series,omitempty"`
	Line       []analytics.Point `json:"line,omitempty"`
	Boxes      []report.LabelBox `json:"boxes,omitempty"`
	Matrix     *analytics.Matrix `json:"matrix,omitempty"`
	Empty      bool              `json:"empty"`
	Notice     string            `json:"notice,omitempty"`
}

// Build returns the twelve charts of r in page order
func Build(r *report.Report) []Chart {
	out := []Chart{
		seasonAvg(r),
		tempVsCount(r),
		weatherPie(r),
		tempVsHumidity(r),
		clusterScatter(r, ClusterTempCount, "Clustering Suhu vs Jumlah Penyewaan", "temp",
			func(a clustering.Assignment) float64 { return a.Temp }),
		clusterCounts(r),
		clusterTempBox(r),
		clusterScatter(r, ClusterHumCount, "Kelembaban vs Jumlah Penyewaan", "hum",
			func(a clustering.Assignment) float64 { return a.Humidity }),
		barLine(WeekdayAvg, "Rata-rata Per Hari (Minggu - Sabtu)", "day", r.WeekdayMeans),
		barLine(MonthAvg, "Rata-rata Per Bulan (Jan - Des)", "month", r.MonthMeans),
		hourAvg(r),
		hourWeekday(r),
	}
	for i := range out {
		out[i].Number = i + 1
	}
	return out
}

// Find returns the chart with id from r
func Find(r *report.Report, id string) (Chart, error) {
	for _, c := range Build(r) {
		if c.ID == id {
			return c, nil
		}
	}
	return Chart{}, fmt.Errorf("%w: %s", ErrUnknownChart, id)
}

func categories(means []analytics.CategoryMean) ([]string, []float64) {
	labels := make([]string, len(means))
	values := make([]float64, len(means))
	for i, m := range means {
		labels[i], values[i] = m.Label, m.Mean
	}
	return labels, values
}

func markEmpty(c Chart, empty bool, notice string) Chart {
	if empty {
		c.Empty = true
		c.Notice = notice
	}
	return c
}

func seasonAvg(r *report.Report) Chart {
	labels, values := categories(r.SeasonMeans)
	c := Chart{
		ID: SeasonAvg, Tab: TabEDA, Kind: KindBar,
		Title: "Rata-rata Penyewaan per Musim", XLabel: "season_str", YLabel: "cnt",
		Categories: labels,
		Series:     []Series{{Name: "cnt", Values: values}},
	}
	return markEmpty(c, len(values) == 0, report.NoticeNoData)
}

func tempVsCount(r *report.Report) Chart {
	c := Chart{
		ID: TempVsCount, Tab: TabEDA, Kind: KindRegression,
		Title: "Suhu vs Jumlah Penyewaan", XLabel: "temp", YLabel: "cnt",
	}
	points := make([]analytics.HuePoint, len(r.TempHumidity))
	for i, p := range r.TempHumidity {
		points[i] = analytics.HuePoint{X: p.X, Y: p.Hue}
	}
	c.Series = []Series{{Name: "cnt", Points: points}}
	if r.Regression != nil {
		c.Line = r.Regression.Line[:]
	}
	return markEmpty(c, len(points) == 0, report.NoticeNoData)
}

func weatherPie(r *report.Report) Chart {
	c := Chart{ID: WeatherPie, Tab: TabEDA, Kind: KindPie, Title: "Distribusi Penyewaan Berdasarkan Cuaca"}
	values := make([]float64, len(r.WeatherShare))
	for i, s := range r.WeatherShare {
		c.Categories = append(c.Categories, s.Label)
		values[i] = s.Percent
	}
	c.Series = []Series{{Name: "percent", Values: values}}
	return markEmpty(c, len(values) == 0, report.NoticeNoData)
}

func tempVsHumidity(r *report.Report) Chart {
	c := Chart{
		ID: TempVsHumidity, Tab: TabEDA, Kind: KindScatterHue,
		Title: "Suhu vs Kelembaban (+Jumlah Penyewaan)", XLabel: "temp", YLabel: "hum",
		Series: []Series{{Name: "cnt", Points: r.TempHumidity}},
	}
	return markEmpty(c, len(r.TempHumidity) == 0, report.NoticeNoData)
}

func clusterScatter(r *report.Report, id, title, xLabel string, x func(clustering.Assignment) float64) Chart {
	c := Chart{ID: id, Tab: TabClustering, Kind: KindClusterScatter, Title: title, XLabel: xLabel, YLabel: "cnt"}
	if !r.Clustering.Available {
		return markEmpty(c, true, r.Clustering.Notice)
	}
	for _, l := range clustering.AllLabels {
		s := Series{Name: l.String(), Points: []analytics.HuePoint{}}
		for _, a := range r.Clustering.Assignments {
			if a.Label == l {
				s.Points = append(s.Points, analytics.HuePoint{X: x(a), Y: float64(a.Count), Hue: float64(a.Label)})
			}
		}
		c.Series = append(c.Series, s)
	}
	return c
}

func clusterCounts(r *report.Report) Chart {
	c := Chart{
		ID: ClusterCounts, Tab: TabClustering, Kind: KindCount,
		Title: "Distribusi Kategori Penyewaan", XLabel: "Cluster", YLabel: "count",
	}
	if !r.Clustering.Available {
		return markEmpty(c, true, r.Clustering.Notice)
	}
	values := make([]float64, 0, len(r.Clustering.Counts))
	for _, lc := range r.Clustering.Counts {
		c.Categories = append(c.Categories, lc.LabelText)
		values = append(values, float64(lc.Count))
	}
	c.Series = []Series{{Name: "count", Values: values}}
	return c
}

func clusterTempBox(r *report.Report) Chart {
	c := Chart{
		ID: ClusterTempBox, Tab: TabClustering, Kind: KindBox,
		Title: "Distribusi Suhu per Kategori", XLabel: "Cluster", YLabel: "temp",
	}
	if !r.Clustering.Available {
		return markEmpty(c, true, r.Clustering.Notice)
	}
	for _, b := range r.ClusterTemp {
		c.Categories = append(c.Categories, b.LabelText)
	}
	c.Boxes = r.ClusterTemp
	return c
}

func barLine(id, title, xLabel string, means []analytics.CategoryMean) Chart {
	labels, values := categories(means)
	c := Chart{
		ID: id, Tab: TabTime, Kind: KindBarLine, Title: title, XLabel: xLabel, YLabel: "cnt",
		Categories: labels,
		Series:     []Series{{Name: "cnt", Values: values}},
	}
	return markEmpty(c, len(values) == 0, report.NoticeNoData)
}

func hourAvg(r *report.Report) Chart {
	c := Chart{ID: HourAvg, Tab: TabTime, Kind: KindLine, Title: "Rata-rata Penyewaan per Jam", XLabel: "hr", YLabel: "cnt"}
	if !r.HasHourlyData() {
		return markEmpty(c, true, r.HourlyNotice)
	}
	labels, values := categories(r.HourMeans)
	c.Categories = labels
	c.Series = []Series{{Name: "cnt", Values: values}}
	return c
}

func hourWeekday(r *report.Report) Chart {
	c := Chart{ID: HourWeekdayHeat, Tab: TabTime, Kind: KindHeatmap, Title: "Heatmap Jam × Hari", XLabel: "weekday", YLabel: "hr"}
	if r.HourWeekday == nil {
		return markEmpty(c, true, r.HourlyNotice)
	}
	c.Categories = r.HourWeekday.Labels
	c.Matrix = r.HourWeekday
	return c
}

// ByTab groups charts by tab in page order
func ByTab(charts []Chart) map[Tab][]Chart {
	out := make(map[Tab][]Chart, 3)
	for _, c := range charts {
		out[c.Tab] = append(out[c.Tab], c)
	}
	return out
}
