package indicators

import (
	"math"
)

var hlcInput = []Input{InputHigh, InputLow, InputClose}

var trueRangeDescriptor = Descriptor{
	Kind: KindTrueRange, Name: "TRANGE", Title: "True range",
	Inputs:      hlcInput,
	Outputs:     []string{"value"},
	Description: "max(high-low, |high-prev close|, |low-prev close|).",
}

func newTrueRange(p Params) (Indicator, error) {
	b := newBuilder(trueRangeDescriptor, p)
	prevClose := b.Lag(b.Input(2), 1)
	b.Output(b.Map(NotApplicable, func(x []float64) float64 {
		return trueRange(x[0], x[1], x[2])
	}, b.Input(0), b.Input(1), prevClose))
	return b.Build()
}

var atrDescriptor = Descriptor{
	Kind: KindATR, Name: "ATR", Title: "Average true range",
	Inputs:      hlcInput,
	Outputs:     []string{"value"},
	Params:      []ParamSpec{IntSpec("period", 14, 1, 100000)},
	Description: "Wilder smoothing of the true range.",
}

// newATR smooths TRANGE with SMMA, matching Wilder's definition.
func newATR(p Params) (Indicator, error) {
	b := newBuilder(atrDescriptor, p)
	tr := b.Apply(b.Child(KindTrueRange), b.Input(0), b.Input(1), b.Input(2))[0]
	b.Output(b.Apply(b.Child(KindSMMA, float64(p.Int(0))), tr)[0])
	return b.Build()
}

var bbandsDescriptor = Descriptor{
	Kind: KindBBands, Name: "BBANDS", Title: "Bollinger bands",
	Inputs:  priceInput,
	Outputs: []string{"upper", "middle", "lower"},
	Params: []ParamSpec{
		IntSpec("period", 20, 2, 100000),
		FloatSpec("nbdev_up", 2, 0, 1000),
		FloatSpec("nbdev_dn", 2, 0, 1000),
		ChoiceSpec("ma", 0, "sma", "ema", "smma", "wma"),
	},
	Description: "Moving average +/- a multiple of the population standard deviation.",
}

// newBBands composes a moving average with a standard deviation.
func newBBands(p Params) (Indicator, error) {
	period := float64(p.Int(0))
	up, dn := p.Float(1), p.Float(2)

	b := newBuilder(bbandsDescriptor, p)
	price := b.Input(0)
	middle := b.Apply(b.Child(movingAverageKinds[p.Choice(3)], period), price)[0]
	dev := b.Apply(b.Child(KindStdDev, period), price)[0]
	b.Output(b.Map(NotApplicable, func(x []float64) float64 { return x[0] + up*x[1] }, middle, dev))
	b.Output(middle)
	b.Output(b.Map(NotApplicable, func(x []float64) float64 { return x[0] - dn*x[1] }, middle, dev))
	return b.Build()
}

var chopDescriptor = Descriptor{
	Kind: KindChop, Name: "CHOP", Title: "Choppiness index",
	Inputs:      hlcInput,
	Outputs:     []string{"value"},
	Params:      []ParamSpec{IntSpec("period", 14, 2, 100000)},
	Degenerate:  PropagateNaN,
	Description: "100*log10(SUM(ATR(1), n) / (MAX(high, n) - MIN(low, n))) / log10(n); a zero range yields NaN.",
}

func newChop(p Params) (Indicator, error) {
	period := p.Int(0)
	norm := math.Log10(float64(period))

	b := newBuilder(chopDescriptor, p)
	high, low := b.Input(0), b.Input(1)
	atr := b.Apply(b.Child(KindATR, 1), high, low, b.Input(2))[0]
	total := b.Apply(b.Child(KindSum, float64(period)), atr)[0]
	hh := b.Apply(b.Child(KindMax, float64(period)), high)[0]
	ll := b.Apply(b.Child(KindMin, float64(period)), low)[0]
	b.Output(b.Map(chopDescriptor.Degenerate, func(x []float64) float64 {
		return 100 * math.Log10(x[0]/(x[1]-x[2])) / norm
	}, total, hh, ll))
	return b.Build()
}
