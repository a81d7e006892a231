package indicators

var vortexDescriptor = Descriptor{
	Kind: KindVortex, Name: "VORTEX", Title: "Vortex indicator",
	Inputs:      hlcInput,
	Outputs:     []string{"plus", "minus"},
	Params:      []ParamSpec{IntSpec("period", 14, 1, 100000)},
	Degenerate:  HoldPrevious,
	RecalcAll:   true,
	Description: "SUM(|high-prev low|, n)/SUM(TR, n) and SUM(|low-prev high|, n)/SUM(TR, n); a zero TR sum holds the previous value.",
}

// newVortex builds VI+ and VI- over the windowed vortex movements.
func newVortex(p Params) (Indicator, error) {
	period := float64(p.Int(0))

	b := newBuilder(vortexDescriptor, p)
	high, low, closing := b.Input(0), b.Input(1), b.Input(2)
	plusVM := b.Map(NotApplicable, func(x []float64) float64 { return abs(x[0] - x[1]) }, high, b.Lag(low, 1))
	minusVM := b.Map(NotApplicable, func(x []float64) float64 { return abs(x[0] - x[1]) }, low, b.Lag(high, 1))
	tr := b.Apply(b.Child(KindTrueRange), high, low, closing)[0]

	trSum := b.Apply(b.Child(KindSum, period), tr)[0]
	ratio := func(x []float64) float64 { return x[0] / x[1] }
	b.Output(b.Map(vortexDescriptor.Degenerate, ratio, b.Apply(b.Child(KindSum, period), plusVM)[0], trSum))
	b.Output(b.Map(vortexDescriptor.Degenerate, ratio, b.Apply(b.Child(KindSum, period), minusVM)[0], trSum))
	return b.Build()
}

var cogDescriptor = Descriptor{
	Kind: KindCOG, Name: "COG", Title: "Center of gravity",
	Inputs:  priceInput,
	Outputs: []string{"cog", "signal"},
	Params: []ParamSpec{
		IntSpec("period", 10, 1, 100000),
		IntSpec("signal", 3, 1, 100000),
	},
	Degenerate:  PropagateNaN,
	Description: "-SUM((i+1)*price[t-i]) / SUM(price[t-i]) over the period, with a WMA signal line; a zero price sum yields NaN.",
}

// newCOG derives Ehlers' weighting from SUM and WMA: with the newest bar
// weighing 1, the numerator is (n+1)*(SUM - WMA*n/2).
func newCOG(p Params) (Indicator, error) {
	n := float64(p.Int(0))

	b := newBuilder(cogDescriptor, p)
	price := b.Input(0)
	total := b.Apply(b.Child(KindSum, n), price)[0]
	weighted := b.Apply(b.Child(KindWMA, n), price)[0]
	cog := b.Map(cogDescriptor.Degenerate, func(x []float64) float64 {
		return -(n + 1) * (x[0] - x[1]*n/2) / x[0]
	}, total, weighted)
	b.Output(cog)
	b.Output(b.Apply(b.Child(KindWMA, float64(p.Int(1))), cog)[0])
	return b.Build()
}
