package clustering

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrTooFewRows is returned when there are fewer rows than clusters
	ErrTooFewRows = errors.New("fewer rows than clusters")
	// ErrInvalidOptions is returned for a non-positive K or iteration cap
	ErrInvalidOptions = errors.New("invalid clustering options")
)

// Model is a fitted k-means partition
type Model struct {
	Centroids  [][]float64
	Labels     []int
	Iterations int
	Inertia    float64
}

// KMeans partitions rows into opts.K clusters with Lloyd's algorithm.
//
// Centroids are seeded with greedy k-means++ from a rand.Source built from
// opts.Seed, so the same rows in the same order always give the same model.
// Iteration stops once assignments stop changing, once the total squared
// centroid shift falls to tol·mean(column variance), or after MaxIter rounds.
func KMeans(rows [][]float64, opts Options) (Model, error) {
	if opts.K < 1 || opts.MaxIter < 1 {
		return Model{}, fmt.Errorf("%w: k=%d max_iter=%d", ErrInvalidOptions, opts.K, opts.MaxIter)
	}
	if len(rows) < opts.K {
		return Model{}, fmt.Errorf("%w: %d rows, %d clusters", ErrTooFewRows, len(rows), opts.K)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	centroids := seedPlusPlus(rows, opts.K, rng)
	tol := absoluteTolerance(rows, opts.Tol)

	labels := make([]int, len(rows))
	for i := range labels {
		labels[i] = -1
	}

	iterations := 0
	for iterations < opts.MaxIter {
		iterations++

		changed := assign(rows, centroids, labels)
		if !changed {
			break
		}

		next := recompute(rows, labels, centroids)
		shift := 0.0
		for c := range centroids {
			d := floats.Distance(centroids[c], next[c], 2)
			shift += d * d
		}
		centroids = next
		if shift <= tol {
			break
		}
	}
	assign(rows, centroids, labels)

	return Model{
		Centroids:  centroids,
		Labels:     labels,
		Iterations: iterations,
		Inertia:    inertia(rows, centroids, labels),
	}, nil
}

// seedPlusPlus picks k initial centroids. Each step draws 2+⌊ln k⌋
// candidates with probability proportional to their squared distance to the
// nearest chosen centroid and keeps the one that lowers the potential most.
func seedPlusPlus(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(rows)
	trials := 2 + int(math.Log(float64(k)))

	centroids := make([][]float64, 0, k)
	first := rng.Intn(n)
	centroids = append(centroids, clone(rows[first]))

	closest := make([]float64, n)
	for i, r := range rows {
		closest[i] = sqDist(r, centroids[0])
	}
	potential := floats.Sum(closest)

	cumulative := make([]float64, n)
	for len(centroids) < k {
		floats.CumSum(cumulative, closest)

		bestIdx := -1
		bestPot := math.Inf(1)
		var bestClosest []float64

		for t := 0; t < trials; t++ {
			target := rng.Float64() * potential
			idx := sort.SearchFloat64s(cumulative, target)
			if idx >= n {
				idx = n - 1
			}

			candidate := make([]float64, n)
			for i, r := range rows {
				candidate[i] = math.Min(closest[i], sqDist(r, rows[idx]))
			}
			pot := floats.Sum(candidate)
			if pot < bestPot {
				bestIdx, bestPot, bestClosest = idx, pot, candidate
			}
		}

		centroids = append(centroids, clone(rows[bestIdx]))
		closest = bestClosest
		potential = bestPot
	}
	return centroids
}

// assign labels every row with its nearest centroid and reports whether any
// label changed
func assign(rows, centroids [][]float64, labels []int) bool {
	changed := false
	for i, r := range rows {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(r, centroid); d < bestDist {
				best, bestDist = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// recompute moves each centroid to the mean of its rows. A cluster left
// without rows takes over the row farthest from its own centroid.
func recompute(rows [][]float64, labels []int, centroids [][]float64) [][]float64 {
	k, dims := len(centroids), len(rows[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	for i, r := range rows {
		floats.Add(sums[labels[i]], r)
		counts[labels[i]]++
	}

	next := make([][]float64, k)
	for c := range next {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		next[c] = sums[c]
	}

	for c := range next {
		if next[c] != nil {
			continue
		}
		far, farDist := 0, -1.0
		for i, r := range rows {
			if d := sqDist(r, centroids[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		next[c] = clone(rows[far])
		labels[far] = c
	}
	return next
}

func inertia(rows, centroids [][]float64, labels []int) float64 {
	total := 0.0
	for i, r := range rows {
		total += sqDist(r, centroids[labels[i]])
	}
	return total
}

// absoluteTolerance scales tol by the mean per-column variance of rows
func absoluteTolerance(rows [][]float64, tol float64) float64 {
	dims := len(rows[0])
	col := make([]float64, len(rows))
	variances := make([]float64, dims)
	for j := 0; j < dims; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		if len(rows) > 1 {
			variances[j] = stat.Variance(col, nil)
		}
	}
	return tol * stat.Mean(variances, nil)
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
