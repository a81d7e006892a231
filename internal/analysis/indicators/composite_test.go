package indicators

import (
	"errors"
	"math"
	"testing"

	"indicator-engine/internal/analysis/series"
	apperrors "indicator-engine/internal/errors"
	"indicator-engine/internal/models"
)

var rangeDescriptor = Descriptor{
	Name:    "RANGE_SMA",
	Inputs:  []Input{InputHigh, InputLow},
	Outputs: []string{"value"},
}

func TestBuilder_DerivesLookbackFromGraph(t *testing.T) {
	b := newBuilder(rangeDescriptor, Params{})
	spread := b.Map(NotApplicable, func(x []float64) float64 { return x[0] - x[1] }, b.Input(0), b.Input(1))
	smoothed := b.Apply(b.Child(KindSMA, 4), spread)[0]
	b.Output(b.Lag(smoothed, 2))
	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if c.Lookback() != 3+2 || c.Lookforward() != 0 {
		t.Fatalf("lookback/lookforward = %d/%d, want 5/0", c.Lookback(), c.Lookforward())
	}
	if len(c.Children()) != 1 {
		t.Errorf("children = %d, want 1", len(c.Children()))
	}

	high := series.Series{2, 4, 6, 8, 10, 12, 14, 16}
	low := series.Series{1, 2, 3, 4, 5, 6, 7, 8}
	res, err := c.Evaluate(Request{Inputs: []series.Series{high, low}, Range: series.Full(8)})
	if err != nil {
		t.Fatal(err)
	}
	// spread is 1..8; SMA(4) at bar i is i-0.5; lag 2 gives i-2.5
	want := series.Series{2.5, 3.5, 4.5}
	if res.Begin != 5 || !res.Outputs[0].Equal(want) {
		t.Errorf("got begin %d %v, want begin 5 %v", res.Begin, res.Outputs[0], want)
	}
}

func TestBuilder_LookforwardPropagates(t *testing.T) {
	b := newBuilder(Descriptor{Name: "SMOOTH_FRACTAL", Inputs: []Input{InputHigh, InputLow}, Outputs: []string{"value"}}, Params{})
	up := b.Apply(b.Child(KindFractal, 2), b.Input(0), b.Input(1))[0]
	filled := b.Map(ZeroValue, func(x []float64) float64 { return x[0] }, up)
	b.Output(b.Apply(b.Child(KindSum, 3), filled)[0])
	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if c.Lookback() != 4 || c.Lookforward() != 2 {
		t.Errorf("lookback/lookforward = %d/%d, want 4/2", c.Lookback(), c.Lookforward())
	}

	high := series.Series{1, 2, 5, 2, 1, 3, 1, 0, 0}
	low := make(series.Series, len(high))
	res, err := c.Evaluate(Request{Inputs: []series.Series{high, low}, Range: series.Full(len(high))})
	if err != nil {
		t.Fatal(err)
	}
	// fractal up at bar 2 (5) and bar 5 (3); zeros elsewhere
	want := series.Series{5, 3, 3}
	if res.Begin != 4 || !res.Outputs[0].Equal(want) {
		t.Errorf("got begin %d %v, want begin 4 %v", res.Begin, res.Outputs[0], want)
	}
}

func TestBuilder_Errors(t *testing.T) {
	b := newBuilder(rangeDescriptor, Params{})
	b.Apply(b.Child(KindATR, 3), b.Input(0))
	if _, err := b.Build(); !errors.Is(err, apperrors.ErrConfigInvalid) {
		t.Errorf("arity mismatch: expected ErrConfigInvalid, got %v", err)
	}

	b = newBuilder(rangeDescriptor, Params{})
	b.Input(0)
	if _, err := b.Build(); !errors.Is(err, apperrors.ErrConfigInvalid) {
		t.Errorf("missing output: expected ErrConfigInvalid, got %v", err)
	}

	b = newBuilder(rangeDescriptor, Params{})
	b.Output(b.Lag(b.Input(0), -1))
	if _, err := b.Build(); !errors.Is(err, apperrors.ErrConfigInvalid) {
		t.Errorf("negative lag: expected ErrConfigInvalid, got %v", err)
	}

	b = newBuilder(rangeDescriptor, Params{})
	b.Output(Ref{node: 7})
	if _, err := b.Build(); !errors.Is(err, apperrors.ErrConfigInvalid) {
		t.Errorf("dangling ref: expected ErrConfigInvalid, got %v", err)
	}

	b = newBuilder(rangeDescriptor, Params{})
	b.Output(b.Apply(b.Child(KindSMA, 0), b.Input(0))[0])
	if _, err := b.Build(); !errors.Is(err, apperrors.ErrParameterOutOfRange) {
		t.Errorf("bad child param: expected ErrParameterOutOfRange, got %v", err)
	}
}

func TestDegeneratePolicies(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		policy Degenerate
		v      float64
		prev   float64
		want   float64
	}{
		{PropagateNaN, inf, 3, math.NaN()},
		{HoldPrevious, math.NaN(), 3, 3},
		{HoldPrevious, inf, math.NaN(), math.NaN()},
		{ZeroValue, -inf, 3, 0},
		{ZeroValue, 2, 3, 2},
	}
	for _, tt := range tests {
		got := tt.policy.apply(tt.v, tt.prev)
		if !(got == tt.want || math.IsNaN(got) && math.IsNaN(tt.want)) {
			t.Errorf("%s.apply(%v, %v) = %v, want %v", tt.policy, tt.v, tt.prev, got, tt.want)
		}
	}
}

func TestBuilder_RecalculatingChildStartsAtItsLookback(t *testing.T) {
	desc := Descriptor{Name: "VIDYA_SPREAD", Inputs: priceInput, Outputs: []string{"value"}}
	b := newBuilder(desc, Params{})
	price := b.Input(0)
	fast := b.Apply(b.Child(KindVIDYA, 5, 3), price)[0]
	slow := b.Apply(b.Child(KindSMA, 20), price)[0]
	b.Output(b.Map(NotApplicable, func(x []float64) float64 { return x[0] - x[1] }, fast, slow))
	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if !c.Descriptor().RecalcAll {
		t.Error("composite over VIDYA should recalculate from its lookback")
	}
	if c.Lookback() != 19 {
		t.Fatalf("lookback = %d, want 19", c.Lookback())
	}

	in := []series.Series{series.Series(syntheticBars(200).Column(models.FieldClose))}
	full, err := c.Evaluate(Request{Inputs: in, Range: series.Full(200)})
	if err != nil {
		t.Fatal(err)
	}
	part, err := c.Evaluate(Request{Inputs: in, Range: series.Range{Start: 100, End: 150}})
	if err != nil {
		t.Fatal(err)
	}
	if part.Begin != 100 || part.Len() != 51 {
		t.Fatalf("sub-range gave begin=%d len=%d", part.Begin, part.Len())
	}
	for i := 100; i <= 150; i++ {
		want, _ := full.ValueAt(0, i)
		got, _ := part.ValueAt(0, i)
		if got != want {
			t.Errorf("bar %d: got %v, want %v", i, got, want)
		}
	}
}
