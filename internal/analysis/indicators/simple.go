package indicators

import (
	"indicator-engine/internal/analysis/series"
	"indicator-engine/internal/analysis/smoothing"
	"indicator-engine/internal/analysis/window"
)

// simple is a single-input, single-output indicator backed by one reducer or
// smoother.
type simple struct {
	base
	lookback int
	run      func(in series.Series, start, end int) series.Series
}

func (s *simple) Lookback() int { return s.lookback }

func (s *simple) Evaluate(req Request) (series.Result, error) {
	rng, ok, err := prepare(s, req)
	if err != nil {
		return series.Result{}, err
	}
	if !ok {
		return s.empty(rng), nil
	}
	from := rng.Start
	if s.desc.RecalcAll {
		// path-dependent state: always start from the first computable bar
		from = s.lookback
	}
	res := single(from, s.run(req.Inputs[0], from, rng.End))
	if from != rng.Start {
		res = res.Slice(rng)
	}
	return res, nil
}

var priceInput = []Input{InputPrice}

var (
	sumDescriptor = Descriptor{
		Kind: KindSum, Name: "SUM", Title: "Summation",
		Inputs: priceInput, Outputs: []string{"value"},
		Params:      []ParamSpec{IntSpec("period", 30, 1, 100000)},
		Description: "Sum of the trailing period values.",
	}
	minDescriptor = Descriptor{
		Kind: KindMin, Name: "MIN", Title: "Lowest value over period",
		Inputs: priceInput, Outputs: []string{"value"},
		Params: []ParamSpec{IntSpec("period", 30, 1, 100000)},
	}
	maxDescriptor = Descriptor{
		Kind: KindMax, Name: "MAX", Title: "Highest value over period",
		Inputs: priceInput, Outputs: []string{"value"},
		Params: []ParamSpec{IntSpec("period", 30, 1, 100000)},
	}
	stdDevDescriptor = Descriptor{
		Kind: KindStdDev, Name: "STDDEV", Title: "Standard deviation",
		Inputs: priceInput, Outputs: []string{"value"},
		Params: []ParamSpec{
			IntSpec("period", 5, 2, 100000),
			FloatSpec("nbdev", 1, 0, 1000),
			ChoiceSpec("estimator", 0, "population", "sample"),
		},
	}
)

func newReducer(desc Descriptor, op window.Op) func(Params) (Indicator, error) {
	return func(p Params) (Indicator, error) {
		period := p.Int(0)
		return &simple{
			base:     base{desc: desc, params: p},
			lookback: window.Lookback(period),
			run: func(in series.Series, start, end int) series.Series {
				return window.ReduceIncremental(op, in, period, start, end)
			},
		}, nil
	}
}

func newStdDev(p Params) (Indicator, error) {
	period, nbDev := p.Int(0), p.Float(1)
	op := window.StdDev
	if p.Choice(2) == "sample" {
		op = window.SampleStdDev
	}
	return &simple{
		base:     base{desc: stdDevDescriptor, params: p},
		lookback: window.Lookback(period),
		run: func(in series.Series, start, end int) series.Series {
			out := window.Reduce(op, in, period, start, end)
			for i := range out {
				out[i] *= nbDev
			}
			return out
		},
	}, nil
}

var (
	smaDescriptor = Descriptor{
		Kind: KindSMA, Name: "SMA", Title: "Simple moving average",
		Inputs: priceInput, Outputs: []string{"value"},
		Params: []ParamSpec{IntSpec("period", 30, 1, 100000)},
	}
	emaDescriptor = Descriptor{
		Kind: KindEMA, Name: "EMA", Title: "Exponential moving average",
		Inputs: priceInput, Outputs: []string{"value"},
		Params: []ParamSpec{
			IntSpec("period", 30, 1, 100000),
			ChoiceSpec("seed", 0, "sma", "first"),
		},
		Description: "alpha = 2/(period+1); seeded with the SMA of the first window or the first value.",
	}
	smmaDescriptor = Descriptor{
		Kind: KindSMMA, Name: "SMMA", Title: "Smoothed moving average (Wilder)",
		Inputs: priceInput, Outputs: []string{"value"},
		Params: []ParamSpec{IntSpec("period", 14, 1, 100000)},
	}
	wmaDescriptor = Descriptor{
		Kind: KindWMA, Name: "WMA", Title: "Weighted moving average",
		Inputs: priceInput, Outputs: []string{"value"},
		Params: []ParamSpec{IntSpec("period", 30, 1, 100000)},
	}
	cmoDescriptor = Descriptor{
		Kind: KindCMO, Name: "CMO", Title: "Chande momentum oscillator",
		Inputs: priceInput, Outputs: []string{"value"},
		Params:      []ParamSpec{IntSpec("period", 14, 1, 100000)},
		Degenerate:  ZeroValue,
		Description: "A flat window (no price change) yields 0.",
	}
	vidyaDescriptor = Descriptor{
		Kind: KindVIDYA, Name: "VIDYA", Title: "Variable index dynamic average",
		Inputs: priceInput, Outputs: []string{"value"},
		Params: []ParamSpec{
			IntSpec("period", 14, 1, 100000),
			IntSpec("cmo_period", 9, 1, 100000),
		},
		Degenerate:  HoldPrevious,
		RecalcAll:   true,
		Description: "EMA whose alpha is scaled by |CMO|/100; a flat CMO window holds the previous value.",
	}
)

func newSMA(p Params) (Indicator, error) {
	period := p.Int(0)
	return &simple{
		base:     base{desc: smaDescriptor, params: p},
		lookback: smoothing.SMALookback(period),
		run: func(in series.Series, start, end int) series.Series {
			return smoothing.SMA(in, period, start, end)
		},
	}, nil
}

func newEMA(p Params) (Indicator, error) {
	period := p.Int(0)
	seed := smoothing.SeedSMA
	if p.Choice(1) == "first" {
		seed = smoothing.SeedFirst
	}
	return &simple{
		base:     base{desc: emaDescriptor, params: p},
		lookback: smoothing.EMALookback(period, seed),
		run: func(in series.Series, start, end int) series.Series {
			return smoothing.EMA(in, period, start, end, seed)
		},
	}, nil
}

func newSMMA(p Params) (Indicator, error) {
	period := p.Int(0)
	return &simple{
		base:     base{desc: smmaDescriptor, params: p},
		lookback: smoothing.SMALookback(period),
		run: func(in series.Series, start, end int) series.Series {
			return smoothing.SMMA(in, period, start, end)
		},
	}, nil
}

func newWMA(p Params) (Indicator, error) {
	period := p.Int(0)
	return &simple{
		base:     base{desc: wmaDescriptor, params: p},
		lookback: smoothing.SMALookback(period),
		run: func(in series.Series, start, end int) series.Series {
			return smoothing.WMA(in, period, start, end)
		},
	}, nil
}

func newCMO(p Params) (Indicator, error) {
	period := p.Int(0)
	return &simple{
		base:     base{desc: cmoDescriptor, params: p},
		lookback: smoothing.CMOLookback(period),
		run: func(in series.Series, start, end int) series.Series {
			return smoothing.CMO(in, period, start, end)
		},
	}, nil
}

func newVIDYA(p Params) (Indicator, error) {
	period, cmoPeriod := p.Int(0), p.Int(1)
	return &simple{
		base:     base{desc: vidyaDescriptor, params: p},
		lookback: smoothing.CMOLookback(cmoPeriod),
		run: func(in series.Series, start, end int) series.Series {
			return smoothing.VIDYA(in, period, cmoPeriod, start, end)
		},
	}, nil
}
