package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bikeshare/internal/analytics"
	"bikeshare/internal/dataset"
	"bikeshare/internal/report"
)

// Sheet names of the workbook, in order
const (
	SheetInfo       = "Info"
	SheetData       = "Data"
	SheetStatistics = "Statistik"
	SheetSeason     = "Musim"
	SheetWeather    = "Cuaca"
	SheetWeekday    = "Hari"
	SheetMonth      = "Bulan"
	SheetHour       = "Jam"
	SheetHeatmap    = "Heatmap"
	SheetClusters   = "Cluster"
)

// Sheets lists every workbook sheet in order
var Sheets = []string{
	SheetInfo, SheetData, SheetStatistics, SheetSeason, SheetWeather,
	SheetWeekday, SheetMonth, SheetHour, SheetHeatmap, SheetClusters,
}

// workbook accumulates the first error so sheet builders stay linear
type workbook struct {
	f    *excelize.File
	bold int
	err  error
}

func (wb *workbook) sheet(name string) {
	if wb.err != nil {
		return
	}
	if name == SheetInfo {
		wb.err = wb.f.SetSheetName(wb.f.GetSheetName(0), name)
		return
	}
	_, wb.err = wb.f.NewSheet(name)
}

// row writes values starting at column A of the 1-based row
func (wb *workbook) row(sheet string, row int, values ...interface{}) {
	if wb.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		wb.err = err
		return
	}
	wb.err = wb.f.SetSheetRow(sheet, cell, &values)
}

func (wb *workbook) header(sheet string, row int, names ...string) {
	values := make([]interface{}, len(names))
	for i, n := range names {
		values[i] = n
	}
	wb.row(sheet, row, values...)
	if wb.err == nil {
		wb.err = wb.f.SetRowStyle(sheet, row, row, wb.bold)
	}
}

func (wb *workbook) means(sheet string, means []analytics.CategoryMean) {
	wb.sheet(sheet)
	wb.header(sheet, 1, "key", "label", "mean_cnt", "days")
	for i, m := range means {
		wb.row(sheet, i+2, m.Key, m.Label, m.Mean, m.Count)
	}
}

// writeReportXLSX writes a workbook with one sheet per aggregate of r
func writeReportXLSX(w io.Writer, r *report.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	wb := &workbook{f: f, bold: bold}

	wb.sheet(SheetInfo)
	wb.row(SheetInfo, 1, "title", r.Title)
	wb.row(SheetInfo, 2, "start", r.Config.Start.Format(dataset.DateLayout))
	wb.row(SheetInfo, 3, "end", r.Config.End.Format(dataset.DateLayout))
	wb.row(SheetInfo, 4, "daily_rows", r.DailyRows)
	wb.row(SheetInfo, 5, "hourly_rows", r.HourlyRows)
	wb.row(SheetInfo, 6, "generated_at", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	for i, warn := range r.Warnings {
		wb.row(SheetInfo, 7+i, "warning", warn.Message)
	}

	wb.sheet(SheetData)
	wb.header(SheetData, 1, recordHeaders...)
	for i, d := range r.Daily {
		wb.row(SheetData, i+2,
			d.Date.Format(dataset.DateLayout), int(d.Season), d.Year, int(d.Month),
			d.Holiday, int(d.Weekday), d.WorkingDay, int(d.Weather),
			d.Temp, d.ATemp, d.Humidity, d.Windspeed, d.Casual, d.Registered, d.Count)
	}

	wb.sheet(SheetStatistics)
	if r.Statistics == nil {
		wb.row(SheetStatistics, 1, r.DailyNotice)
	} else {
		names := []string{""}
		for _, c := range r.Statistics.Columns {
			names = append(names, c.Column)
		}
		wb.header(SheetStatistics, 1, names...)
		for i, label := range analytics.StatLabels {
			values := []interface{}{label}
			for _, c := range r.Statistics.Columns {
				values = append(values, statValue(c, i))
			}
			wb.row(SheetStatistics, i+2, values...)
		}
	}

	wb.means(SheetSeason, r.SeasonMeans)

	wb.sheet(SheetWeather)
	wb.header(SheetWeather, 1, "key", "label", "mean_cnt", "share_percent")
	for i, s := range r.WeatherShare {
		wb.row(SheetWeather, i+2, s.Key, s.Label, s.Mean, s.Percent)
	}

	wb.means(SheetWeekday, r.WeekdayMeans)
	wb.means(SheetMonth, r.MonthMeans)
	wb.means(SheetHour, r.HourMeans)

	wb.sheet(SheetHeatmap)
	if r.HourWeekday == nil {
		wb.row(SheetHeatmap, 1, r.HourlyNotice)
	} else {
		m := r.HourWeekday
		wb.header(SheetHeatmap, 1, append([]string{"hr"}, m.Labels...)...)
		for i, h := range m.Hours {
			values := []interface{}{int(h)}
			for _, cell := range m.Cells[i] {
				if cell == nil {
					values = append(values, nil)
				} else {
					values = append(values, *cell)
				}
			}
			wb.row(SheetHeatmap, i+2, values...)
		}
	}

	wb.sheet(SheetClusters)
	if !r.Clustering.Available {
		wb.row(SheetClusters, 1, r.Clustering.Notice)
	} else {
		wb.header(SheetClusters, 1, "cluster", "label", "temp", "hum", "windspeed", "cnt", "size")
		for i, c := range r.Clustering.Centroids {
			wb.row(SheetClusters, i+2, c.Cluster, c.LabelText, c.Temp, c.Humidity, c.Windspeed, c.Count, c.Size)
		}
	}

	if wb.err != nil {
		return fmt.Errorf("failed to build workbook: %w", wb.err)
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// statValue returns row i of the statistics table for one column
func statValue(c analytics.ColumnStats, i int) interface{} {
	switch i {
	case 0:
		return c.Count
	case 1:
		return c.Mean
	case 2:
		if c.Std == nil {
			return nil
		}
		return *c.Std
	case 3:
		return c.Min
	case 4:
		return c.Q25
	case 5:
		return c.Median
	case 6:
		return c.Q75
	default:
		return c.Max
	}
}
