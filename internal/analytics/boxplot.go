package analytics

// BoxPlot is a five-number summary with 1.5·IQR whiskers
type BoxPlot struct {
	Count       int       `json:"count"`
	Q1          float64   `json:"q1"`
	Median      float64   `json:"median"`
	Q3          float64   `json:"q3"`
	WhiskerLow  float64   `json:"whisker_low"`
	WhiskerHigh float64   `json:"whisker_high"`
	Outliers    []float64 `json:"outliers"`
}

// Quartiles computes the box plot of values. Whiskers reach the most
// extreme values within 1.5·IQR of the quartiles; everything beyond is an
// outlier. The second result is false for empty input.
func Quartiles(values []float64) (BoxPlot, bool) {
	if len(values) == 0 {
		return BoxPlot{}, false
	}

	sorted := sortedCopy(values)
	bp := BoxPlot{
		Count:    len(sorted),
		Q1:       quantile(sorted, 0.25),
		Median:   quantile(sorted, 0.5),
		Q3:       quantile(sorted, 0.75),
		Outliers: []float64{},
	}

	iqr := bp.Q3 - bp.Q1
	lowFence, highFence := bp.Q1-1.5*iqr, bp.Q3+1.5*iqr

	bp.WhiskerLow, bp.WhiskerHigh = bp.Q1, bp.Q3
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			bp.Outliers = append(bp.Outliers, v)
			continue
		}
		if v < bp.WhiskerLow {
			bp.WhiskerLow = v
		}
		if v > bp.WhiskerHigh {
			bp.WhiskerHigh = v
		}
	}
	return bp, true
}
