// Package series provides the indexed numeric sequences, evaluation windows and
// result alignment shared by every indicator.
package series

import "math"

// Series is a time-ordered numeric sequence indexed by bar position.
// A Series is never modified once an evaluation pass has started.
type Series []float64

// Len returns the number of bars in the series.
func (s Series) Len() int {
	return len(s)
}

// Valid reports whether i addresses a bar of the series.
func (s Series) Valid(i int) bool {
	return i >= 0 && i < len(s)
}

// At returns the value at absolute index i.
func (s Series) At(i int) float64 {
	return s[i]
}

// Window returns the inclusive slice s[from..to] without copying.
func (s Series) Window(from, to int) Series {
	return s[from : to+1]
}

// Clone returns a copy of the series.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Last returns the final value of the series, or NaN when empty.
func (s Series) Last() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

// Equal reports whether both series hold bit-identical values.
// NaN values compare equal to each other.
func (s Series) Equal(other Series) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if math.Float64bits(s[i]) != math.Float64bits(other[i]) {
			return false
		}
	}
	return true
}

// Range is an inclusive [Start, End] request into a series.
type Range struct {
	Start int
	End   int
}

// Full returns the range covering every bar of a series of length n.
func Full(n int) Range {
	return Range{Start: 0, End: n - 1}
}

// Len returns the number of indices covered by r, zero when empty.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Empty reports whether the range covers no index.
func (r Range) Empty() bool {
	return r.End < r.Start
}

// Clamp applies the lookback/lookforward contract for a series of length n:
// the effective start is max(Start, lookback) and the effective end is
// min(End, n-1-lookforward). ok is false when nothing remains.
func (r Range) Clamp(lookback, lookforward, n int) (Range, bool) {
	out := r
	if out.Start < lookback {
		out.Start = lookback
	}
	if last := n - 1 - lookforward; out.End > last {
		out.End = last
	}
	if out.Start > out.End {
		return Range{Start: out.Start, End: out.Start - 1}, false
	}
	return out, true
}

// Contains reports whether absolute index i lies in r.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i <= r.End
}
