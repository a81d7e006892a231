// Package indicators provides technical indicators built on a shared
// evaluation core: windowed reducers, recursive smoothers and composites whose
// lookback is derived from their dependency tree.
package indicators

import (
	"fmt"
	"math"

	"indicator-engine/internal/analysis/series"
	apperrors "indicator-engine/internal/errors"
)

// Input names the role of one input series.
type Input string

const (
	InputPrice  Input = "price"
	InputOpen   Input = "open"
	InputHigh   Input = "high"
	InputLow    Input = "low"
	InputClose  Input = "close"
	InputVolume Input = "volume"
)

// Degenerate is the policy applied when a ratio or logarithm produces a
// non-finite value.
type Degenerate int

const (
	// NotApplicable marks indicators without ratio or log arithmetic.
	NotApplicable Degenerate = iota
	// PropagateNaN emits NaN for the affected bar.
	PropagateNaN
	// HoldPrevious repeats the last finite output, NaN when there is none.
	HoldPrevious
	// ZeroValue emits 0 for the affected bar.
	ZeroValue
)

func (d Degenerate) String() string {
	switch d {
	case PropagateNaN:
		return "nan"
	case HoldPrevious:
		return "hold"
	case ZeroValue:
		return "zero"
	default:
		return "n/a"
	}
}

// apply maps a computed value through the policy given the previous output.
func (d Degenerate) apply(v, prev float64) float64 {
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	switch d {
	case HoldPrevious:
		if math.IsNaN(prev) || math.IsInf(prev, 0) {
			return math.NaN()
		}
		return prev
	case ZeroValue:
		return 0
	default:
		return math.NaN()
	}
}

// Descriptor is the static description of an indicator kind.
type Descriptor struct {
	Kind        Kind
	Name        string
	Title       string
	Inputs      []Input
	Params      []ParamSpec
	Outputs     []string
	Degenerate  Degenerate
	RecalcAll   bool
	Description string
}

// Request is one evaluation call. Inputs are indexed like Descriptor.Inputs
// and Range is the inclusive absolute window being asked for.
type Request struct {
	Inputs []series.Series
	Range  series.Range
}

// Indicator is a configured, immutable indicator instance. Evaluate may be
// called concurrently on the same instance.
type Indicator interface {
	Descriptor() Descriptor
	Params() Params
	Lookback() int
	Lookforward() int
	Evaluate(req Request) (series.Result, error)
}

// OutputIndex returns the slot of the named output.
func OutputIndex(ind Indicator, name string) (int, error) {
	d := ind.Descriptor()
	for i, o := range d.Outputs {
		if o == name {
			return i, nil
		}
	}
	return -1, apperrors.NewParameterError(d.Name, -1, name, nil, apperrors.ErrInvalidParameterIndex)
}

// Output returns output slot i of a result produced by ind, failing fast when
// i is outside the declared output arity.
func Output(ind Indicator, r series.Result, i int) (series.Series, error) {
	d := ind.Descriptor()
	if i < 0 || i >= len(d.Outputs) {
		return nil, apperrors.NewParameterError(d.Name, i, "", nil, apperrors.ErrInvalidParameterIndex)
	}
	out, ok := r.Output(i)
	if !ok {
		return nil, apperrors.NewParameterError(d.Name, i, "", nil, apperrors.ErrInvalidParameterIndex)
	}
	return out, nil
}

// checkInputs validates input arity and equal lengths and returns the common
// series length.
func checkInputs(d Descriptor, inputs []series.Series) (int, error) {
	if len(inputs) != len(d.Inputs) {
		return 0, apperrors.NewInputError(d.Name, len(d.Inputs), len(inputs), "wrong number of input series")
	}
	n := inputs[0].Len()
	for _, in := range inputs[1:] {
		if in.Len() != n {
			return 0, apperrors.NewInputError(d.Name, n, in.Len(), "input series lengths differ")
		}
	}
	return n, nil
}

// prepare validates a request and applies the lookback/lookforward clamp.
// ok is false when the clamped window is empty.
func prepare(ind Indicator, req Request) (series.Range, bool, error) {
	n, err := checkInputs(ind.Descriptor(), req.Inputs)
	if err != nil {
		return series.Range{}, false, err
	}
	rng, ok := req.Range.Clamp(ind.Lookback(), ind.Lookforward(), n)
	return rng, ok, nil
}

// base carries the descriptor and parameters shared by every implementation.
type base struct {
	desc   Descriptor
	params Params
}

func (b *base) Descriptor() Descriptor { return b.desc }
func (b *base) Params() Params         { return b.params.Clone() }
func (b *base) Lookforward() int       { return 0 }

func (b *base) empty(rng series.Range) series.Result {
	return series.Empty(rng.Start, len(b.desc.Outputs))
}

func (b *base) String() string {
	return fmt.Sprintf("%s(%s)", b.desc.Name, b.params)
}

// Label renders an instance as NAME(param=value,...).
func Label(ind Indicator) string {
	if s, ok := ind.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%s(%s)", ind.Descriptor().Name, ind.Params())
}
