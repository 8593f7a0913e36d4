package clustering

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes columns to zero mean and unit variance. It uses the
// population variance; a constant column keeps scale 1 so it is only
// centered.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler learns per-column statistics from rows
func FitScaler(rows [][]float64) Scaler {
	if len(rows) == 0 {
		return Scaler{}
	}

	dims := len(rows[0])
	s := Scaler{Mean: make([]float64, dims), Scale: make([]float64, dims)}
	col := make([]float64, len(rows))
	n := float64(len(rows))

	for j := 0; j < dims; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		mean, variance := stat.MeanVariance(col, nil)
		s.Mean[j] = mean

		// MeanVariance is unbiased; rescale to the population variance
		pop := 0.0
		if len(rows) > 1 {
			pop = variance * (n - 1) / n
		}
		s.Scale[j] = 1
		if pop > 0 {
			s.Scale[j] = math.Sqrt(pop)
		}
	}
	return s
}

// Transform returns standardized copies of rows
func (s Scaler) Transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = make([]float64, len(r))
		for j, v := range r {
			out[i][j] = (v - s.Mean[j]) / s.Scale[j]
		}
	}
	return out
}

// Inverse maps a standardized point back to raw units
func (s Scaler) Inverse(point []float64) []float64 {
	out := make([]float64, len(point))
	for j, v := range point {
		out[j] = v*s.Scale[j] + s.Mean[j]
	}
	return out
}
