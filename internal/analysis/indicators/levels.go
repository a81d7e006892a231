package indicators

import (
	"indicator-engine/internal/analysis/series"
)

var medPriceDescriptor = Descriptor{
	Kind: KindMedPrice, Name: "MEDPRICE", Title: "Median price",
	Inputs:  []Input{InputHigh, InputLow},
	Outputs: []string{"value"},
}

func newMedPrice(p Params) (Indicator, error) {
	b := newBuilder(medPriceDescriptor, p)
	b.Output(b.Map(NotApplicable, func(x []float64) float64 {
		return medianPrice(x[0], x[1])
	}, b.Input(0), b.Input(1)))
	return b.Build()
}

var fractalDescriptor = Descriptor{
	Kind: KindFractal, Name: "FRACTAL", Title: "Williams fractals",
	Inputs:      []Input{InputHigh, InputLow},
	Outputs:     []string{"up", "down"},
	Params:      []ParamSpec{IntSpec("bars", 2, 1, 1000)},
	Degenerate:  PropagateNaN,
	Description: "A bar whose high (low) is strictly above (below) the bars on each side; other bars are NaN.",
}

// Fractal marks swing points. It needs bars on both sides, so the last
// computable bar trails the series end by the same count it trails the start.
type Fractal struct {
	base
	bars int
}

func newFractal(p Params) (Indicator, error) {
	return &Fractal{base: base{desc: fractalDescriptor, params: p}, bars: p.Int(0)}, nil
}

func (f *Fractal) Lookback() int    { return f.bars }
func (f *Fractal) Lookforward() int { return f.bars }

func (f *Fractal) Evaluate(req Request) (series.Result, error) {
	rng, ok, err := prepare(f, req)
	if err != nil {
		return series.Result{}, err
	}
	if !ok {
		return f.empty(rng), nil
	}
	high, low := req.Inputs[0], req.Inputs[1]
	up := make(series.Series, rng.Len())
	down := make(series.Series, rng.Len())
	for i := rng.Start; i <= rng.End; i++ {
		up[i-rng.Start] = f.extreme(high, i, func(a, b float64) bool { return a > b })
		down[i-rng.Start] = f.extreme(low, i, func(a, b float64) bool { return a < b })
	}
	return series.Result{Begin: rng.Start, Outputs: []series.Series{up, down}}, nil
}

// extreme returns in[i] when it beats every neighbour within bars, else NaN.
func (f *Fractal) extreme(in series.Series, i int, beats func(a, b float64) bool) float64 {
	for j := i - f.bars; j <= i+f.bars; j++ {
		if j != i && !beats(in[i], in[j]) {
			return nan()
		}
	}
	return in[i]
}
