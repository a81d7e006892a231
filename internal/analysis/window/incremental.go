package window

import (
	"math"

	"indicator-engine/internal/analysis/series"
)

// ReduceIncremental is the O(n) form of Reduce. Sums and deviations carry a
// running total that adds the entering value and subtracts the leaving one,
// so results differ from Reduce by floating-point reassociation error. Min
// and Max use a monotonic index deque and are exact.
func ReduceIncremental(op Op, in series.Series, period, start, end int) series.Series {
	if end < start {
		return nil
	}
	switch op {
	case Sum:
		return runningSum(in, period, start, end)
	case Min:
		return monotonic(in, period, start, end, func(a, b float64) bool { return a <= b })
	case Max:
		return monotonic(in, period, start, end, func(a, b float64) bool { return a >= b })
	case StdDev:
		return runningStdDev(in, period, start, end, period)
	case SampleStdDev:
		return runningStdDev(in, period, start, end, period-1)
	default:
		return Reduce(op, in, period, start, end)
	}
}

func runningSum(in series.Series, period, start, end int) series.Series {
	out := make(series.Series, end-start+1)
	var total float64
	for i := start - period + 1; i <= start; i++ {
		total += in[i]
	}
	out[0] = total
	for i := start + 1; i <= end; i++ {
		total += in[i] - in[i-period]
		out[i-start] = total
	}
	return out
}

func runningStdDev(in series.Series, period, start, end, denom int) series.Series {
	out := make(series.Series, end-start+1)
	if denom <= 0 {
		return out
	}
	var s, sq float64
	for i := start - period + 1; i <= start; i++ {
		s += in[i]
		sq += in[i] * in[i]
	}
	n := float64(period)
	for i := start; i <= end; i++ {
		if i > start {
			enter, leave := in[i], in[i-period]
			s += enter - leave
			sq += enter*enter - leave*leave
		}
		// sum of squared deviations; negative drift from cancellation is clipped
		dev := sq - s*s/n
		if dev < 0 {
			dev = 0
		}
		out[i-start] = math.Sqrt(dev / float64(denom))
	}
	return out
}

// monotonic keeps candidate indices whose values are ordered by keep, so the
// window extreme is always at the head.
func monotonic(in series.Series, period, start, end int, keep func(a, b float64) bool) series.Series {
	out := make(series.Series, end-start+1)
	deque := make([]int, 0, period)
	for i := start - period + 1; i <= end; i++ {
		for len(deque) > 0 && deque[0] <= i-period {
			deque = deque[1:]
		}
		for len(deque) > 0 && keep(in[i], in[deque[len(deque)-1]]) {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)
		if i >= start {
			out[i-start] = in[deque[0]]
		}
	}
	return out
}
