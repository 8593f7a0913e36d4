package analytics

import (
	"math"
	"slices"
)

// quantile returns the p-quantile of sorted using linear interpolation
// between closest ranks, h = (n-1)p. This is the default of numpy and
// pandas; gonum only ships the empirical and LinInterp estimators.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case n == 1:
		return sorted[0]
	}

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func sortedCopy(values []float64) []float64 {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
