package series

// Offset converts an absolute bar index into the write offset inside a
// result's buffers. ok is false when abs is not covered by the result.
func Offset(r Result, abs int) (int, bool) {
	off := abs - r.Begin
	if off < 0 || off >= r.Len() {
		return 0, false
	}
	return off, true
}

// Intersect returns the common coverage of the given ranges. The returned
// range is empty when they do not overlap.
func Intersect(ranges ...Range) Range {
	if len(ranges) == 0 {
		return Range{Start: 0, End: -1}
	}
	out := ranges[0]
	for _, r := range ranges[1:] {
		if r.Start > out.Start {
			out.Start = r.Start
		}
		if r.End < out.End {
			out.End = r.End
		}
	}
	return out
}

// Coverage returns the range every result covers. A parent combining these
// results must not report more elements than this range holds.
func Coverage(results ...Result) Range {
	ranges := make([]Range, len(results))
	for i, r := range results {
		ranges[i] = r.Range()
	}
	return Intersect(ranges...)
}

// Span is a materialised sub-series whose first element sits at absolute
// index Begin. Composite nodes exchange Spans so children can be evaluated on
// derived inputs without padding.
type Span struct {
	Begin  int
	Values Series
}

// End returns the absolute index of the last value.
func (s Span) End() int {
	return s.Begin + len(s.Values) - 1
}

// Range returns the absolute coverage of the span.
func (s Span) Range() Range {
	return Range{Start: s.Begin, End: s.End()}
}

// At returns the value at absolute index abs. The caller guarantees abs lies
// inside the span.
func (s Span) At(abs int) float64 {
	return s.Values[abs-s.Begin]
}

// Rebase maps an absolute range into the span's local 0-based coordinates.
func (s Span) Rebase(abs Range) Range {
	return Range{Start: abs.Start - s.Begin, End: abs.End - s.Begin}
}

// Shift maps a result evaluated on the span's local coordinates back to
// absolute indices.
func (s Span) Shift(local Result) Result {
	local.Begin += s.Begin
	return local
}

// SpanOf wraps an entire series as a span beginning at index 0.
func SpanOf(s Series) Span {
	return Span{Begin: 0, Values: s}
}

// SpanFrom returns output slot i of r as a span.
func SpanFrom(r Result, i int) Span {
	return Span{Begin: r.Begin, Values: r.Outputs[i]}
}
