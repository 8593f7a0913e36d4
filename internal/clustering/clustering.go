// Package clustering groups filtered days into demand levels with k-means
// over standardized temperature, humidity, windspeed and rental count.
package clustering

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"bikeshare/internal/dataset"
)

// NoticeUnavailable is shown instead of the clustering charts
const NoticeUnavailable = "Tidak ada data yang tersedia untuk clustering dengan filter yang dipilih."

// FeatureNames are the clustered columns in feature order
var FeatureNames = []string{dataset.ColTemp, dataset.ColHumidity, dataset.ColWindspeed, dataset.ColCount}

// DemandLabel is the display category of a cluster
type DemandLabel int

const (
	LowDemand DemandLabel = iota
	MediumDemand
	HighDemand
)

// AllLabels lists the labels in display order
var AllLabels = []DemandLabel{LowDemand, MediumDemand, HighDemand}

// String returns the display name of the label
func (l DemandLabel) String() string {
	switch l {
	case LowDemand:
		return "Low Demand"
	case MediumDemand:
		return "Medium Demand"
	case HighDemand:
		return "High Demand"
	default:
		return "Unknown"
	}
}

// LabelStrategy decides how cluster indices map to demand labels
type LabelStrategy string

const (
	// LabelByIndex maps cluster 0, 1, 2 to Low, Medium, High as numbered
	LabelByIndex LabelStrategy = "index"
	// LabelByDemand ranks clusters by their mean rental count
	LabelByDemand LabelStrategy = "demand"
)

// IsValid reports whether s is a known strategy
func (s LabelStrategy) IsValid() bool {
	return s == LabelByIndex || s == LabelByDemand
}

// Options controls the k-means run
type Options struct {
	K        int
	Seed     int64
	MaxIter  int
	Tol      float64
	Strategy LabelStrategy
}

// DefaultOptions returns three clusters, seed 42, 300 iterations and
// tolerance 1e-4 with index labelling
func DefaultOptions() Options {
	return Options{
		K:        3,
		Seed:     42,
		MaxIter:  300,
		Tol:      1e-4,
		Strategy: LabelByIndex,
	}
}

// Assignment is one clustered day
type Assignment struct {
	Row       int         `json:"row"`
	Date      string      `json:"date"`
	Cluster   int         `json:"cluster"`
	Label     DemandLabel `json:"label"`
	LabelText string      `json:"label_text"`
	Temp      float64     `json:"temp"`
	Humidity  float64     `json:"hum"`
	Windspeed float64     `json:"windspeed"`
	Count     int         `json:"cnt"`
}

// LabelCount is the number of days carrying one label
type LabelCount struct {
	Label     DemandLabel `json:"label"`
	LabelText string      `json:"label_text"`
	Count     int         `json:"count"`
}

// Centroid is a cluster centre in raw units
type Centroid struct {
	Cluster   int         `json:"cluster"`
	Label     DemandLabel `json:"label"`
	LabelText string      `json:"label_text"`
	Temp      float64     `json:"temp"`
	Humidity  float64     `json:"hum"`
	Windspeed float64     `json:"windspeed"`
	Count     float64     `json:"cnt"`
	Size      int         `json:"size"`
}

// Result is the outcome of clustering one daily view. When Available is
// false only Notice is set.
type Result struct {
	Available   bool          `json:"available"`
	Notice      string        `json:"notice,omitempty"`
	Strategy    LabelStrategy `json:"strategy,omitempty"`
	Assignments []Assignment  `json:"assignments,omitempty"`
	Counts      []LabelCount  `json:"counts,omitempty"`
	Centroids   []Centroid    `json:"centroids,omitempty"`
	Iterations  int           `json:"iterations,omitempty"`
	Inertia     float64       `json:"inertia,omitempty"`
}

// Unavailable is the result for views that cannot be clustered
func Unavailable() Result {
	return Result{Available: false, Notice: NoticeUnavailable}
}

// Features extracts the clustered columns of rows in FeatureNames order
func Features(rows []dataset.DailyRecord) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = []float64{r.Temp, r.Humidity, r.Windspeed, float64(r.Count)}
	}
	return out
}

// Run standardizes the view's features and clusters them. An empty view, or
// one with fewer rows than clusters, is reported as unavailable rather than
// as an error; only invalid options return an error.
func Run(rows []dataset.DailyRecord, opts Options) (Result, error) {
	if opts.Strategy == "" {
		opts.Strategy = LabelByIndex
	}
	if !opts.Strategy.IsValid() {
		return Result{}, fmt.Errorf("%w: label strategy %q", ErrInvalidOptions, opts.Strategy)
	}
	if opts.K != len(AllLabels) {
		return Result{}, fmt.Errorf("%w: k must be %d to map onto demand labels", ErrInvalidOptions, len(AllLabels))
	}
	if len(rows) == 0 {
		return Unavailable(), nil
	}

	raw := Features(rows)
	scaler := FitScaler(raw)
	model, err := KMeans(scaler.Transform(raw), opts)
	if errors.Is(err, ErrTooFewRows) {
		return Unavailable(), nil
	}
	if err != nil {
		return Result{}, err
	}

	labelOf := labelMapping(model, scaler, opts.Strategy)

	res := Result{
		Available:   true,
		Strategy:    opts.Strategy,
		Assignments: make([]Assignment, len(rows)),
		Iterations:  model.Iterations,
		Inertia:     model.Inertia,
	}

	sizes := make([]int, opts.K)
	for i, r := range rows {
		c := model.Labels[i]
		sizes[c]++
		label := labelOf[c]
		res.Assignments[i] = Assignment{
			Row:       i,
			Date:      r.Date.Format(dataset.DateLayout),
			Cluster:   c,
			Label:     label,
			LabelText: label.String(),
			Temp:      r.Temp,
			Humidity:  r.Humidity,
			Windspeed: r.Windspeed,
			Count:     r.Count,
		}
	}

	for _, l := range AllLabels {
		lc := LabelCount{Label: l, LabelText: l.String()}
		for c, mapped := range labelOf {
			if mapped == l {
				lc.Count += sizes[c]
			}
		}
		res.Counts = append(res.Counts, lc)
	}

	for c, centre := range model.Centroids {
		v := scaler.Inverse(centre)
		res.Centroids = append(res.Centroids, Centroid{
			Cluster:   c,
			Label:     labelOf[c],
			LabelText: labelOf[c].String(),
			Temp:      v[0],
			Humidity:  v[1],
			Windspeed: v[2],
			Count:     v[3],
			Size:      sizes[c],
		})
	}
	sort.SliceStable(res.Centroids, func(i, j int) bool {
		return res.Centroids[i].Label < res.Centroids[j].Label
	})

	return res, nil
}

// labelMapping returns the demand label of every cluster index
func labelMapping(model Model, scaler Scaler, strategy LabelStrategy) []DemandLabel {
	k := len(model.Centroids)
	out := make([]DemandLabel, k)
	for c := range out {
		out[c] = DemandLabel(c)
	}
	if strategy != LabelByDemand {
		return out
	}

	order := make([]int, k)
	for c := range order {
		order[c] = c
	}
	countIdx := slices.Index(FeatureNames, dataset.ColCount)
	demand := func(c int) float64 { return scaler.Inverse(model.Centroids[c])[countIdx] }
	sort.SliceStable(order, func(i, j int) bool { return demand(order[i]) < demand(order[j]) })

	for rank, c := range order {
		out[c] = DemandLabel(rank)
	}
	return out
}

// Values collects field over the assignments carrying label
func (r Result) Values(label DemandLabel, field func(Assignment) float64) []float64 {
	var out []float64
	for _, a := range r.Assignments {
		if a.Label == label {
			out = append(out, field(a))
		}
	}
	return out
}

// Distinct returns the labels that occur in the result, in label order
func (r Result) Distinct() []DemandLabel {
	var out []DemandLabel
	for _, c := range r.Counts {
		if c.Count > 0 {
			out = append(out, c.Label)
		}
	}
	return out
}
