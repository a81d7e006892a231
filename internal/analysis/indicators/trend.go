package indicators

// movingAverageKinds maps the "ma" choice labels to smoother kinds.
var movingAverageKinds = map[string]Kind{
	"sma":  KindSMA,
	"ema":  KindEMA,
	"smma": KindSMMA,
	"wma":  KindWMA,
}

var macdDescriptor = Descriptor{
	Kind: KindMACD, Name: "MACD", Title: "Moving average convergence/divergence",
	Inputs:  priceInput,
	Outputs: []string{"macd", "signal", "histogram"},
	Params: []ParamSpec{
		IntSpec("fast", 12, 1, 100000),
		IntSpec("slow", 26, 1, 100000),
		IntSpec("signal", 9, 1, 100000),
	},
	Description: "EMA(fast) - EMA(slow), its EMA(signal) and their difference.",
}

// newMACD builds MACD from two price EMAs and an EMA of their difference.
func newMACD(p Params) (Indicator, error) {
	b := newBuilder(macdDescriptor, p)
	b.macd(b.Input(0), p.Int(0), p.Int(1), p.Int(2))
	return b.Build()
}

// macd declares the three MACD outputs over price.
func (b *Builder) macd(price Ref, fast, slow, signal int) {
	f := b.Apply(b.Child(KindEMA, float64(fast)), price)[0]
	s := b.Apply(b.Child(KindEMA, float64(slow)), price)[0]
	line := b.Map(NotApplicable, func(x []float64) float64 { return x[0] - x[1] }, f, s)
	sig := b.Apply(b.Child(KindEMA, float64(signal)), line)[0]
	hist := b.Map(NotApplicable, func(x []float64) float64 { return x[0] - x[1] }, line, sig)
	b.Output(line)
	b.Output(sig)
	b.Output(hist)
}

var osmaDescriptor = Descriptor{
	Kind: KindOsMA, Name: "OSMA", Title: "Moving average of oscillator",
	Inputs:  priceInput,
	Outputs: []string{"value"},
	Params: []ParamSpec{
		IntSpec("fast", 12, 1, 100000),
		IntSpec("slow", 26, 1, 100000),
		IntSpec("signal", 9, 1, 100000),
	},
	Description: "MACD histogram, evaluated through a MACD child.",
}

func newOsMA(p Params) (Indicator, error) {
	b := newBuilder(osmaDescriptor, p)
	m := b.Apply(b.Child(KindMACD, float64(p.Int(0)), float64(p.Int(1)), float64(p.Int(2))), b.Input(0))
	b.Output(m[2])
	return b.Build()
}

var doubleSMADescriptor = Descriptor{
	Kind: KindDoubleSMA, Name: "DOUBLE_SMA", Title: "Double-smoothed simple moving average",
	Inputs:  priceInput,
	Outputs: []string{"value"},
	Params: []ParamSpec{
		IntSpec("period1", 10, 1, 100000),
		IntSpec("period2", 10, 1, 100000),
	},
	Description: "SMA(period2) of SMA(period1).",
}

func newDoubleSMA(p Params) (Indicator, error) {
	b := newBuilder(doubleSMADescriptor, p)
	inner := b.Apply(b.Child(KindSMA, float64(p.Int(0))), b.Input(0))[0]
	b.Output(b.Apply(b.Child(KindSMA, float64(p.Int(1))), inner)[0])
	return b.Build()
}

var alligatorDescriptor = Descriptor{
	Kind: KindAlligator, Name: "ALLIGATOR", Title: "Williams' Alligator",
	Inputs:  []Input{InputHigh, InputLow},
	Outputs: []string{"jaw", "teeth", "lips"},
	Params: []ParamSpec{
		IntSpec("jaw_period", 13, 1, 100000),
		IntSpec("jaw_shift", 8, 0, 1000),
		IntSpec("teeth_period", 8, 1, 100000),
		IntSpec("teeth_shift", 5, 0, 1000),
		IntSpec("lips_period", 5, 1, 100000),
		IntSpec("lips_shift", 3, 0, 1000),
	},
	Description: "SMMA of the median price per line, each shifted forward by its shift.",
}

func newAlligator(p Params) (Indicator, error) {
	b := newBuilder(alligatorDescriptor, p)
	med := b.Apply(b.Child(KindMedPrice), b.Input(0), b.Input(1))[0]
	for line := 0; line < 3; line++ {
		period, shift := p.Int(2*line), p.Int(2*line+1)
		smoothed := b.Apply(b.Child(KindSMMA, float64(period)), med)[0]
		b.Output(b.Lag(smoothed, shift))
	}
	return b.Build()
}
