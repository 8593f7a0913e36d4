package analytics

import (
	"slices"

	"gonum.org/v1/gonum/stat"

	"bikeshare/internal/dataset"
)

// Matrix is the hour × weekday mean of the hourly count. Rows are the
// observed hours, columns the observed weekdays, both in code order.
// A nil cell means no row had that pair.
type Matrix struct {
	Hours    []dataset.Hour    `json:"hours"`
	Weekdays []dataset.Weekday `json:"weekdays"`
	Labels   []string          `json:"weekday_labels"`
	Cells    [][]*float64      `json:"cells"`
	Min      float64           `json:"min"`
	Max      float64           `json:"max"`
}

type hourDay struct {
	hour dataset.Hour
	day  dataset.Weekday
}

// HourWeekdayMeans pivots the hourly view into a Matrix
func HourWeekdayMeans(rows []dataset.HourlyRecord) Matrix {
	groups := make(map[hourDay][]float64)
	hourSet := make(map[dataset.Hour]bool)
	daySet := make(map[dataset.Weekday]bool)

	for _, r := range rows {
		k := hourDay{hour: r.Hour, day: r.Weekday}
		groups[k] = append(groups[k], float64(r.Count))
		hourSet[r.Hour] = true
		daySet[r.Weekday] = true
	}

	m := Matrix{
		Hours:    sortedKeys(hourSet),
		Weekdays: sortedKeys(daySet),
	}
	m.Labels = make([]string, len(m.Weekdays))
	for j, d := range m.Weekdays {
		m.Labels[j] = d.String()
	}

	first := true
	m.Cells = make([][]*float64, len(m.Hours))
	for i, h := range m.Hours {
		m.Cells[i] = make([]*float64, len(m.Weekdays))
		for j, d := range m.Weekdays {
			values, ok := groups[hourDay{hour: h, day: d}]
			if !ok {
				continue
			}
			mean := stat.Mean(values, nil)
			m.Cells[i][j] = &mean
			if first || mean < m.Min {
				m.Min = mean
			}
			if first || mean > m.Max {
				m.Max = mean
			}
			first = false
		}
	}
	return m
}

// Value returns the cell for (h, d) and whether it holds a mean
func (m Matrix) Value(h dataset.Hour, d dataset.Weekday) (float64, bool) {
	i := slices.Index(m.Hours, h)
	j := slices.Index(m.Weekdays, d)
	if i < 0 || j < 0 || m.Cells[i][j] == nil {
		return 0, false
	}
	return *m.Cells[i][j], true
}

// IsEmpty reports whether the matrix has no cells
func (m Matrix) IsEmpty() bool {
	return len(m.Hours) == 0
}

func sortedKeys[K ~int](set map[K]bool) []K {
	keys := make([]K, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
