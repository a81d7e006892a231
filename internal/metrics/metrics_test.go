package metrics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveEvaluation(t *testing.T) {
	m := NewMetrics()
	m.ObserveEvaluation("SMA", time.Millisecond, 10, nil)
	m.ObserveEvaluation("SMA", time.Millisecond, 0, nil)
	m.ObserveEvaluation("ATR", time.Millisecond, 0, errors.New("boom"))

	if got := testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("SMA", "ok")); got != 2 {
		t.Errorf("SMA ok evaluations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("ATR", "error")); got != 1 {
		t.Errorf("ATR error evaluations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.EmptyResults.WithLabelValues("SMA")); got != 1 {
		t.Errorf("SMA empty results = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ValuesTotal.WithLabelValues("SMA")); got != 10 {
		t.Errorf("SMA values = %v, want 10", got)
	}
	// failed evaluations do not count as empty
	if got := testutil.ToFloat64(m.EmptyResults.WithLabelValues("ATR")); got != 0 {
		t.Errorf("ATR empty results = %v, want 0", got)
	}
}

func TestWorkerGauge(t *testing.T) {
	m := NewMetrics()
	m.WorkerStarted()
	m.WorkerStarted()
	m.WorkerDone()
	if got := testutil.ToFloat64(m.WorkersBusy); got != 1 {
		t.Errorf("busy workers = %v, want 1", got)
	}
}

func TestIndependentRegistries(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.ObserveEvaluation("SUM", time.Microsecond, 3, nil)
	if got := testutil.ToFloat64(b.ValuesTotal.WithLabelValues("SUM")); got != 0 {
		t.Errorf("second registry saw %v values", got)
	}
}

func TestWriteTextAndSamples(t *testing.T) {
	m := NewMetrics()
	m.ObserveEvaluation("EMA", time.Millisecond, 5, nil)

	var buf bytes.Buffer
	if err := m.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(buf.String(), `indicators_values_total{kind="EMA"} 5`) {
		t.Errorf("text output missing values counter:\n%s", buf.String())
	}

	families, err := m.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, s := range Samples(families) {
		if s.Name == "indicators_evaluation_duration_seconds_count" && s.Labels["kind"] == "EMA" {
			found = true
			if s.Value != 1 {
				t.Errorf("histogram count = %v, want 1", s.Value)
			}
		}
	}
	if !found {
		t.Error("histogram sample not flattened")
	}
}
