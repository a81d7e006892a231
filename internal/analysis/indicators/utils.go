package indicators

import (
	"math"

	"indicator-engine/internal/analysis/series"
)

func nan() float64 {
	return math.NaN()
}

// max returns the maximum of two float64 values.
func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// abs returns the absolute value of a float64.
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// trueRange of a bar given the previous close.
func trueRange(high, low, prevClose float64) float64 {
	return max(high-low, max(abs(high-prevClose), abs(low-prevClose)))
}

// medianPrice is (high+low)/2.
func medianPrice(high, low float64) float64 {
	return (high + low) / 2
}

// single wraps a one-output series produced for [begin, ...].
func single(begin int, out series.Series) series.Result {
	return series.Result{Begin: begin, Outputs: []series.Series{out}}
}

// child constructs a sub-indicator of kind with positional parameter values
// overriding its defaults.
func child(kind Kind, values ...float64) (Indicator, error) {
	p := DefaultParams(kind)
	for i, v := range values {
		if err := p.Set(i, v); err != nil {
			return nil, err
		}
	}
	return New(kind, p)
}
