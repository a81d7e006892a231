package indicators

import (
	"indicator-engine/internal/analysis/series"
	"indicator-engine/internal/analysis/window"
	apperrors "indicator-engine/internal/errors"
)

type registration struct {
	desc  Descriptor
	build func(Params) (Indicator, error)
}

var registry map[Kind]registration

// Populated in init: composite factories construct children through New,
// which reads the registry.
func init() {
	registry = make(map[Kind]registration, kindCount)
	for _, r := range []registration{
		{sumDescriptor, newReducer(sumDescriptor, window.Sum)},
		{minDescriptor, newReducer(minDescriptor, window.Min)},
		{maxDescriptor, newReducer(maxDescriptor, window.Max)},
		{stdDevDescriptor, newStdDev},
		{smaDescriptor, newSMA},
		{emaDescriptor, newEMA},
		{smmaDescriptor, newSMMA},
		{wmaDescriptor, newWMA},
		{cmoDescriptor, newCMO},
		{vidyaDescriptor, newVIDYA},
		{medPriceDescriptor, newMedPrice},
		{trueRangeDescriptor, newTrueRange},
		{atrDescriptor, newATR},
		{bbandsDescriptor, newBBands},
		{macdDescriptor, newMACD},
		{osmaDescriptor, newOsMA},
		{doubleSMADescriptor, newDoubleSMA},
		{chopDescriptor, newChop},
		{vortexDescriptor, newVortex},
		{cogDescriptor, newCOG},
		{alligatorDescriptor, newAlligator},
		{fractalDescriptor, newFractal},
	} {
		registry[r.desc.Kind] = r
	}
}

// Registered reports whether kind has an implementation.
func Registered(kind Kind) bool {
	_, ok := registry[kind]
	return ok
}

// Describe returns the descriptor of kind.
func Describe(kind Kind) (Descriptor, error) {
	r, ok := registry[kind]
	if !ok {
		return Descriptor{}, apperrors.Wrapf(apperrors.ErrUnknownIndicator, "%s", kind)
	}
	return r.desc, nil
}

// Descriptors lists every registered indicator in kind order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, k := range AllKinds() {
		if r, ok := registry[k]; ok {
			out = append(out, r.desc)
		}
	}
	return out
}

// DefaultParams returns a fresh parameter set for kind holding its defaults.
// Unknown kinds get an empty set.
func DefaultParams(kind Kind) Params {
	r := registry[kind]
	return NewParams(r.desc.Name, r.desc.Params)
}

// New constructs an indicator instance. The instance keeps its own copy of
// params, so later changes to params do not affect it. An empty Params value
// selects the defaults.
func New(kind Kind, params Params) (Indicator, error) {
	r, ok := registry[kind]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrUnknownIndicator, "%s", kind)
	}
	if params.Len() == 0 {
		params = DefaultParams(kind)
	}
	if params.owner != r.desc.Name || params.Len() != len(r.desc.Params) {
		return nil, apperrors.NewParameterError(r.desc.Name, params.Len(), "", params.owner, apperrors.ErrInvalidParameterIndex)
	}
	return r.build(params.Clone())
}

// Lookback returns the number of leading bars kind cannot produce.
func Lookback(kind Kind, params Params) (int, error) {
	ind, err := New(kind, params)
	if err != nil {
		return 0, err
	}
	return ind.Lookback(), nil
}

// Lookforward returns the number of trailing bars kind cannot produce.
func Lookforward(kind Kind, params Params) (int, error) {
	ind, err := New(kind, params)
	if err != nil {
		return 0, err
	}
	return ind.Lookforward(), nil
}

// Evaluate constructs kind and evaluates it once over rng.
func Evaluate(kind Kind, inputs []series.Series, params Params, rng series.Range) (series.Result, error) {
	ind, err := New(kind, params)
	if err != nil {
		return series.Result{}, err
	}
	return ind.Evaluate(Request{Inputs: inputs, Range: rng})
}
