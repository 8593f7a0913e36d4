package analytics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"bikeshare/internal/dataset"
)

// Point is one (x, y) pair of a scatter chart
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Regression is the least-squares fit of the daily count on temperature
type Regression struct {
	Intercept float64  `json:"intercept"`
	Slope     float64  `json:"slope"`
	RSquared  float64  `json:"r_squared"`
	Points    []Point  `json:"points"`
	Line      [2]Point `json:"line"`
}

// Regress fits cnt = Intercept + Slope·temp over rows. It reports false
// when fewer than two rows are present or temperature does not vary.
func Regress(rows []dataset.DailyRecord) (Regression, bool) {
	if len(rows) < 2 {
		return Regression{}, false
	}

	x := make([]float64, len(rows))
	y := make([]float64, len(rows))
	points := make([]Point, len(rows))
	for i, r := range rows {
		x[i], y[i] = r.Temp, float64(r.Count)
		points[i] = Point{X: x[i], Y: y[i]}
	}

	lo, hi := floats.Min(x), floats.Max(x)
	if lo == hi {
		return Regression{}, false
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	r2 := stat.RSquared(x, y, nil, alpha, beta)
	if math.IsNaN(r2) {
		// constant count
		r2 = 0
	}
	return Regression{
		Intercept: alpha,
		Slope:     beta,
		RSquared:  r2,
		Points:    points,
		Line: [2]Point{
			{X: lo, Y: alpha + beta*lo},
			{X: hi, Y: alpha + beta*hi},
		},
	}, true
}

// HuePoint is a scatter point coloured by a third value
type HuePoint struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Hue float64 `json:"hue"`
}

// TempHumidity returns temperature against humidity coloured by the count
func TempHumidity(rows []dataset.DailyRecord) []HuePoint {
	out := make([]HuePoint, len(rows))
	for i, r := range rows {
		out[i] = HuePoint{X: r.Temp, Y: r.Humidity, Hue: float64(r.Count)}
	}
	return out
}
