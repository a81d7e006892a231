package smoothing

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	talib "github.com/markcheno/go-talib"

	"indicator-engine/internal/analysis/series"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.9f, want %.9f (tol=%g)", label, got, want, tol)
	}
}

func constant(n int, v float64) series.Series {
	s := make(series.Series, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func wave(n int) series.Series {
	s := make(series.Series, n)
	for i := range s {
		s[i] = 250 + 25*math.Sin(float64(i)/5) + float64(i%7)
	}
	return s
}

func TestSMA_PeriodOneIsIdentity(t *testing.T) {
	in := series.Series{3, 1, 4, 1, 5, 9, 2, 6}
	got := SMA(in, 1, 2, 6)
	if !got.Equal(in.Window(2, 6)) {
		t.Fatalf("SMA(1) = %v, want %v", got, in.Window(2, 6))
	}
	got[0] = 99
	if in[2] != 4 {
		t.Error("SMA(1) must not alias its input")
	}
}

func TestSMA_Correctness_Period3(t *testing.T) {
	// Prices: 100, 102, 104, 103, 105 -> 102, 103, 104
	in := series.Series{100, 102, 104, 103, 105}
	got := SMA(in, 3, 2, 4)
	want := []float64{102, 103, 104}
	for i := range want {
		assertClose(t, "SMA(3)", got[i], want[i], 1e-12)
	}
}

func TestSmoothers_ConstantInputConverges(t *testing.T) {
	const v = 42.5
	in := constant(40, v)

	cases := map[string]series.Series{
		"EMA/sma seed":   EMA(in, 10, 9, 39, SeedSMA),
		"EMA/first seed": EMA(in, 10, 0, 39, SeedFirst),
		"SMMA":           SMMA(in, 10, 9, 39),
		"WMA":            WMA(in, 10, 9, 39),
		"VIDYA":          VIDYA(in, 10, 9, 9, 39),
	}
	for name, out := range cases {
		for j, got := range out {
			if math.Abs(got-v) > 1e-12 {
				t.Errorf("%s: out[%d] = %v, want %v", name, j, got, v)
				break
			}
		}
	}
}

func TestEMA_MatchesTALib(t *testing.T) {
	in := wave(150)
	const period = 12
	ref := talib.Ema(in, period)
	got := EMA(in, period, period-1, len(in)-1, SeedSMA)
	for i := period - 1; i < len(in); i++ {
		assertClose(t, "EMA", got[i-(period-1)], ref[i], 1e-9)
	}
}

func TestSMA_MatchesTALib(t *testing.T) {
	in := wave(150)
	const period = 20
	ref := talib.Sma(in, period)
	got := SMA(in, period, period-1, len(in)-1)
	for i := period - 1; i < len(in); i++ {
		assertClose(t, "SMA", got[i-(period-1)], ref[i], 1e-9)
	}
}

func TestSMMA_Recurrence(t *testing.T) {
	in := series.Series{1, 2, 3, 4, 5, 6}
	got := SMMA(in, 3, 2, 5)
	// seed mean(1,2,3)=2; (2*2+4)/3=8/3; (8/3*2+5)/3=31/9; (31/9*2+6)/3=116/27
	want := []float64{2, 8.0 / 3, 31.0 / 9, 116.0 / 27}
	for i := range want {
		assertClose(t, "SMMA", got[i], want[i], 1e-12)
	}
}

func TestWMA_Weights(t *testing.T) {
	in := series.Series{1, 2, 3}
	got := WMA(in, 3, 2, 2)
	// (3*3 + 2*2 + 1*1) / 6
	assertClose(t, "WMA", got[0], 14.0/6.0, 1e-12)
}

func TestCMO_KnownValues(t *testing.T) {
	up := series.Series{1, 2, 3, 4, 5}
	if got := CMO(up, 4, 4, 4); got[0] != 100 {
		t.Errorf("CMO of rising series = %v, want 100", got[0])
	}
	down := series.Series{5, 4, 3, 2, 1}
	if got := CMO(down, 4, 4, 4); got[0] != -100 {
		t.Errorf("CMO of falling series = %v, want -100", got[0])
	}
	if got := CMO(constant(6, 3), 4, 4, 5); got[0] != 0 || got[1] != 0 {
		t.Errorf("CMO of flat series = %v, want zeros", got)
	}
	mixed := series.Series{10, 12, 11, 14}
	// up = 2+3 = 5, down = 1
	assertClose(t, "CMO mixed", CMO(mixed, 3, 3, 3)[0], 100*4.0/6.0, 1e-12)
}

func TestVIDYA_FollowsTrendSlowerThanPrice(t *testing.T) {
	in := make(series.Series, 30)
	for i := range in {
		in[i] = float64(i)
	}
	out := VIDYA(in, 9, 9, 9, 29)
	if out[0] != 9 {
		t.Fatalf("seed = %v, want 9", out[0])
	}
	for j := 1; j < len(out); j++ {
		if out[j] <= out[j-1] || out[j] >= in[9+j] {
			t.Fatalf("out[%d] = %v should rise and lag price %v", j, out[j], in[9+j])
		}
	}
}

func TestSmoothers_EmptyRange(t *testing.T) {
	in := wave(10)
	for name, out := range map[string]series.Series{
		"SMA":   SMA(in, 3, 5, 4),
		"EMA":   EMA(in, 3, 5, 4, SeedSMA),
		"SMMA":  SMMA(in, 3, 5, 4),
		"WMA":   WMA(in, 3, 5, 4),
		"CMO":   CMO(in, 3, 5, 4),
		"VIDYA": VIDYA(in, 3, 3, 5, 4),
	} {
		if out != nil {
			t.Errorf("%s: expected nil for empty range", name)
		}
	}
}

func TestProperty_CMOWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("CMO values are within [-100, 100]", prop.ForAll(
		func(values []float64, period int) bool {
			in := series.Series(values)
			if period >= len(in) {
				return true
			}
			for _, v := range CMO(in, period, period, len(in)-1) {
				if v < -100 || v > 100 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(60, gen.Float64Range(1, 500)),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

func TestProperty_EMAStaysWithinInputRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("EMA and SMMA never leave [min, max] of their input", prop.ForAll(
		func(values []float64, period int) bool {
			in := series.Series(values)
			if period > len(in) {
				return true
			}
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, v := range in {
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
			const eps = 1e-9
			for _, out := range []series.Series{
				EMA(in, period, period-1, len(in)-1, SeedSMA),
				SMMA(in, period, period-1, len(in)-1),
			} {
				for _, v := range out {
					if v < lo-eps || v > hi+eps {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(60, gen.Float64Range(1, 500)),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}
