package series

import "math"

// Point is a coordinate on a 100x100 viewBox with y growing downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LineChart is the geometry of a polyline scaled to fit its values.
type LineChart struct {
	Points []Point `json:"points"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Line scales values onto a 100x100 viewBox. A single value sits at x=50 and a
// flat series uses a unit range so it draws along the bottom edge.
func Line(values []float64) LineChart {
	out := LineChart{Points: []Point{}}
	if len(values) == 0 {
		return out
	}

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	rng := maxV - minV
	if rng == 0 {
		rng = 1
	}

	out.Min, out.Max = minV, maxV
	for i, v := range values {
		x := 50.0
		if len(values) > 1 {
			x = float64(i) / float64(len(values)-1) * 100
		}
		out.Points = append(out.Points, Point{X: x, Y: 100 - (v-minV)/rng*100})
	}
	return out
}

// Bars returns each value as a percentage of the largest one. A zero maximum
// is treated as 1.
func Bars(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	maxV := values[0]
	for _, v := range values[1:] {
		maxV = math.Max(maxV, v)
	}
	if maxV == 0 {
		maxV = 1
	}
	for i, v := range values {
		out[i] = v / maxV * 100
	}
	return out
}
