package series

import "fmt"

// Result is the outcome of one evaluation: Begin is the absolute index of the
// first produced output and every entry of Outputs holds Len() contiguous
// values written from offset 0.
type Result struct {
	Begin   int
	Outputs []Series
}

// Empty returns a zero-element result with n output slots.
func Empty(begin, n int) Result {
	return Result{Begin: begin, Outputs: make([]Series, n)}
}

// Len returns the number of elements in the result.
func (r Result) Len() int {
	if len(r.Outputs) == 0 {
		return 0
	}
	return len(r.Outputs[0])
}

// End returns the absolute index of the last produced output,
// or Begin-1 for an empty result.
func (r Result) End() int {
	return r.Begin + r.Len() - 1
}

// Range returns the absolute coverage of the result.
func (r Result) Range() Range {
	return Range{Start: r.Begin, End: r.End()}
}

// Output returns output slot i. The bool is false when i is outside the
// declared output arity.
func (r Result) Output(i int) (Series, bool) {
	if i < 0 || i >= len(r.Outputs) {
		return nil, false
	}
	return r.Outputs[i], true
}

// ValueAt returns output slot i at absolute bar index abs.
func (r Result) ValueAt(i, abs int) (float64, bool) {
	out, ok := r.Output(i)
	if !ok {
		return 0, false
	}
	off, ok := Offset(r, abs)
	if !ok {
		return 0, false
	}
	return out[off], true
}

// Slice narrows the result to the absolute range rng. Indices outside the
// result's coverage are dropped.
func (r Result) Slice(rng Range) Result {
	cov := Intersect(r.Range(), rng)
	if cov.Empty() {
		return Empty(rng.Start, len(r.Outputs))
	}
	from := cov.Start - r.Begin
	to := cov.End - r.Begin + 1
	out := Result{Begin: cov.Start, Outputs: make([]Series, len(r.Outputs))}
	for i, s := range r.Outputs {
		out.Outputs[i] = s[from:to]
	}
	return out
}

func (r Result) String() string {
	return fmt.Sprintf("Result{begin=%d len=%d outputs=%d}", r.Begin, r.Len(), len(r.Outputs))
}
