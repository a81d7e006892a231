// Package smoothing implements the recursive moving averages. Every smoother
// carries a single state scalar (the last emitted value) across the loop and
// ends at the requested end index; nothing persists between calls.
//
// Like the window reducers, smoothers do not clamp: the caller passes a start
// at or above the smoother's lookback.
package smoothing

import (
	"fmt"
	"math"

	"indicator-engine/internal/analysis/series"
	"indicator-engine/internal/analysis/window"
)

// Seed selects how an EMA obtains its first value.
type Seed int

const (
	// SeedSMA seeds with the mean of the period values ending at start.
	SeedSMA Seed = iota
	// SeedFirst seeds with the input value at start.
	SeedFirst
)

func (s Seed) String() string {
	switch s {
	case SeedSMA:
		return "sma"
	case SeedFirst:
		return "first"
	default:
		return fmt.Sprintf("seed(%d)", int(s))
	}
}

// SMALookback returns the lookback of SMA, WMA and SMMA.
func SMALookback(period int) int {
	return period - 1
}

// EMALookback returns the lookback of EMA for the given seed.
func EMALookback(period int, seed Seed) int {
	if seed == SeedFirst {
		return 0
	}
	return period - 1
}

// CMOLookback returns the lookback of CMO and VIDYA.
func CMOLookback(period int) int {
	return period
}

// SMA computes the arithmetic mean over period values for start..end.
// Period 1 returns a copy of the input range.
func SMA(in series.Series, period, start, end int) series.Series {
	if end < start {
		return nil
	}
	if period == 1 {
		return in.Window(start, end).Clone()
	}
	sums := window.ReduceIncremental(window.Sum, in, period, start, end)
	for i := range sums {
		sums[i] /= float64(period)
	}
	return sums
}

// EMA computes the exponential moving average with alpha = 2/(period+1).
func EMA(in series.Series, period, start, end int, seed Seed) series.Series {
	if end < start {
		return nil
	}
	alpha := 2.0 / float64(period+1)
	out := make(series.Series, end-start+1)

	switch seed {
	case SeedFirst:
		out[0] = in[start]
	default:
		out[0] = window.Mean(in, period, start)
	}
	for i := start + 1; i <= end; i++ {
		j := i - start
		out[j] = alpha*in[i] + (1-alpha)*out[j-1]
	}
	return out
}

// SMMA computes Wilder smoothing: seeded with the mean of the first window,
// then out = (prev*(period-1) + in) / period.
func SMMA(in series.Series, period, start, end int) series.Series {
	if end < start {
		return nil
	}
	out := make(series.Series, end-start+1)
	out[0] = window.Mean(in, period, start)
	p := float64(period)
	for i := start + 1; i <= end; i++ {
		j := i - start
		out[j] = (out[j-1]*(p-1) + in[i]) / p
	}
	return out
}

// WMA computes the linearly weighted moving average, the most recent bar
// weighing period and the oldest weighing 1.
func WMA(in series.Series, period, start, end int) series.Series {
	if end < start {
		return nil
	}
	out := make(series.Series, end-start+1)
	denom := float64(period*(period+1)) / 2
	for i := start; i <= end; i++ {
		var acc float64
		for k := 0; k < period; k++ {
			acc += float64(period-k) * in[i-k]
		}
		out[i-start] = acc / denom
	}
	return out
}

// CMO computes the Chande Momentum Oscillator over period price changes:
// 100*(up-down)/(up+down). A flat window (up+down == 0) yields 0.
func CMO(in series.Series, period, start, end int) series.Series {
	if end < start {
		return nil
	}
	out := make(series.Series, end-start+1)
	for i := start; i <= end; i++ {
		out[i-start] = cmoAt(in, period, i)
	}
	return out
}

func cmoAt(in series.Series, period, i int) float64 {
	var up, down float64
	for k := i - period + 1; k <= i; k++ {
		diff := in[k] - in[k-1]
		if diff > 0 {
			up += diff
		} else {
			down -= diff
		}
	}
	if up+down == 0 {
		return 0
	}
	return 100 * (up - down) / (up + down)
}

// VIDYA computes the variable index dynamic average. Each step uses
// alpha = 2/(period+1) * |CMO|/100 with CMO over cmoPeriod changes, so a flat
// window holds the previous value. The first output is in[start].
func VIDYA(in series.Series, period, cmoPeriod, start, end int) series.Series {
	if end < start {
		return nil
	}
	base := 2.0 / float64(period+1)
	out := make(series.Series, end-start+1)
	out[0] = in[start]
	for i := start + 1; i <= end; i++ {
		j := i - start
		alpha := base * math.Abs(cmoAt(in, cmoPeriod, i)) / 100
		out[j] = alpha*in[i] + (1-alpha)*out[j-1]
	}
	return out
}
