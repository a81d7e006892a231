// Package window implements fixed-period reductions over a series.
//
// Reducers never clamp: output j aggregates in[i-period+1 .. i] with
// i = start+j, and the caller guarantees start-(period-1) >= 0 (indicators
// do this through a lookback of period-1). Violating the precondition is a
// programming error and panics with an index out of range.
package window

import (
	"fmt"
	"math"

	"indicator-engine/internal/analysis/series"
)

// Op selects the aggregate computed over each window.
type Op int

const (
	Sum Op = iota
	Min
	Max
	StdDev       // population standard deviation
	SampleStdDev // n-1 denominator
)

func (op Op) String() string {
	switch op {
	case Sum:
		return "sum"
	case Min:
		return "min"
	case Max:
		return "max"
	case StdDev:
		return "stddev"
	case SampleStdDev:
		return "sample_stddev"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Lookback returns the number of bars op needs before its first output.
func Lookback(period int) int {
	return period - 1
}

// Reduce computes op over every trailing window of period values for the
// absolute indices start..end, accumulating each window directly.
func Reduce(op Op, in series.Series, period, start, end int) series.Series {
	if end < start {
		return nil
	}
	out := make(series.Series, end-start+1)
	for i := start; i <= end; i++ {
		out[i-start] = aggregate(op, in[i-period+1:i+1])
	}
	return out
}

func aggregate(op Op, w series.Series) float64 {
	switch op {
	case Sum:
		return sum(w)
	case Min:
		return lowest(w)
	case Max:
		return highest(w)
	case StdDev:
		return stdDev(w, len(w))
	case SampleStdDev:
		if len(w) < 2 {
			return 0
		}
		return stdDev(w, len(w)-1)
	default:
		panic(fmt.Sprintf("window: unsupported op %v", op))
	}
}

func sum(values series.Series) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values series.Series) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// stdDev uses a two-pass mean/variance for stability.
func stdDev(values series.Series, denom int) float64 {
	if len(values) == 0 || denom <= 0 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(denom))
}

func highest(values series.Series) float64 {
	h := values[0]
	for _, v := range values[1:] {
		if v > h {
			h = v
		}
	}
	return h
}

func lowest(values series.Series) float64 {
	l := values[0]
	for _, v := range values[1:] {
		if v < l {
			l = v
		}
	}
	return l
}

// Mean returns the arithmetic mean of in[to-period+1 .. to].
func Mean(in series.Series, period, to int) float64 {
	return mean(in[to-period+1 : to+1])
}
