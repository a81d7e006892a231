package indicators

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"indicator-engine/internal/analysis/series"
	apperrors "indicator-engine/internal/errors"
	"indicator-engine/internal/metrics"
)

type countingObserver struct {
	evaluations atomic.Int64
	busy        atomic.Int64
	peak        atomic.Int64
}

func (o *countingObserver) ObserveEvaluation(string, time.Duration, int, error) {
	o.evaluations.Add(1)
}

func (o *countingObserver) WorkerStarted() {
	n := o.busy.Add(1)
	for {
		p := o.peak.Load()
		if n <= p || o.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (o *countingObserver) WorkerDone() { o.busy.Add(-1) }

func TestEngine_RunPreservesOrderAndSharesInstances(t *testing.T) {
	bars := syntheticBars(250)
	kinds := []Kind{KindSMA, KindBBands, KindMACD, KindChop, KindAlligator}

	var jobs []Job
	var want []series.Result
	for i := 0; i < 40; i++ {
		ind := mustNew(t, kinds[i%len(kinds)])
		in := inputsFor(t, ind, bars)
		rng := series.Range{Start: i, End: 200 + i}
		jobs = append(jobs, Job{Name: fmt.Sprintf("job-%d", i), Indicator: ind, Inputs: in, Range: rng})
		want = append(want, eval(t, ind, in, rng))
	}

	obs := &countingObserver{}
	engine := NewEngine(4, WithObserver(obs))
	results, err := engine.Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(results), len(jobs))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Name, r.Err)
		}
		if r.Name != jobs[i].Name || r.Kind != jobs[i].Indicator.Descriptor().Kind {
			t.Errorf("result %d is %s/%s, want %s", i, r.Name, r.Kind, jobs[i].Name)
		}
		if r.Result.Begin != want[i].Begin {
			t.Errorf("%s: begin %d, want %d", r.Name, r.Result.Begin, want[i].Begin)
		}
		for o := range r.Result.Outputs {
			if !r.Result.Outputs[o].Equal(want[i].Outputs[o]) {
				t.Errorf("%s: output %d differs from sequential evaluation", r.Name, o)
			}
		}
	}
	if got := obs.evaluations.Load(); got != int64(len(jobs)) {
		t.Errorf("observer saw %d evaluations, want %d", got, len(jobs))
	}
	if peak := obs.peak.Load(); peak > 4 {
		t.Errorf("%d concurrent evaluations with 4 workers", peak)
	}
}

func TestEngine_ConcurrentUseOfOneInstance(t *testing.T) {
	bars := syntheticBars(300)
	ind := mustNew(t, KindVortex)
	in := inputsFor(t, ind, bars)
	ref := eval(t, ind, in, series.Full(len(bars)))

	jobs := make([]Job, 64)
	for i := range jobs {
		jobs[i] = Job{Name: "vortex", Indicator: ind, Inputs: in, Range: series.Full(len(bars))}
	}
	results, err := NewEngine(8).Run(context.Background(), jobs)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if !r.Result.Outputs[0].Equal(ref.Outputs[0]) || !r.Result.Outputs[1].Equal(ref.Outputs[1]) {
			t.Fatal("shared instance produced different values")
		}
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	ind := mustNew(t, KindSMA, 3)
	in := []series.Series{{1, 2, 3, 4, 5}}
	jobs := []Job{
		{Name: "a", Indicator: ind, Inputs: in, Range: series.Full(5)},
		{Name: "b", Indicator: ind, Inputs: in, Range: series.Full(5)},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := NewEngine(2).Run(ctx, jobs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", r.Name, r.Err)
		}
	}
}

func TestEngine_JobErrors(t *testing.T) {
	atr := mustNew(t, KindATR)
	jobs := []Job{
		{Name: "missing"},
		{Name: "mismatch", Indicator: atr, Inputs: []series.Series{{1}, {1}}, Range: series.Full(1)},
	}
	results, err := NewEngine(0).Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("job errors must not fail the batch: %v", err)
	}
	if !errors.Is(results[0].Err, apperrors.ErrConfigInvalid) {
		t.Errorf("nil indicator: expected ErrConfigInvalid, got %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, apperrors.ErrInputMismatch) {
		t.Errorf("bad inputs: expected ErrInputMismatch, got %v", results[1].Err)
	}
}

func TestEngine_RecordsPrometheusMetrics(t *testing.T) {
	m := metrics.NewMetrics()
	ind := mustNew(t, KindSMA, 3)
	in := []series.Series{{1, 2, 3, 4, 5}}
	jobs := []Job{
		{Name: "full", Indicator: ind, Inputs: in, Range: series.Full(5)},
		{Name: "short", Indicator: ind, Inputs: in, Range: series.Range{Start: 0, End: 1}},
	}
	if _, err := NewEngine(2, WithObserver(m)).Run(context.Background(), jobs); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("SMA", "ok")); got != 2 {
		t.Errorf("evaluations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ValuesTotal.WithLabelValues("SMA")); got != 3 {
		t.Errorf("values = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.EmptyResults.WithLabelValues("SMA")); got != 1 {
		t.Errorf("empty results = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.WorkersBusy); got != 0 {
		t.Errorf("busy workers after run = %v", got)
	}
}
