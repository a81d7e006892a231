// Package metrics exposes Prometheus collectors for indicator evaluation.
package metrics

import (
	"io"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the evaluation collectors. Each instance owns its registry so
// several engines (and tests) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	EvaluationsTotal *prometheus.CounterVec   // labels: kind, status
	EvaluationDur    *prometheus.HistogramVec // labels: kind
	EmptyResults     *prometheus.CounterVec   // labels: kind
	ValuesTotal      *prometheus.CounterVec   // labels: kind
	WorkersBusy      prometheus.Gauge
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicators_evaluations_total",
			Help: "Indicator evaluations by kind and outcome",
		}, []string{"kind", "status"}),
		EvaluationDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "indicators_evaluation_duration_seconds",
			Help:    "Indicator evaluation latency",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"kind"}),
		EmptyResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicators_empty_results_total",
			Help: "Evaluations that produced no values (insufficient history)",
		}, []string{"kind"}),
		ValuesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicators_values_total",
			Help: "Output bars produced",
		}, []string{"kind"}),
		WorkersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indicators_workers_busy",
			Help: "Engine workers currently evaluating a job",
		}),
	}

	m.registry.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationDur,
		m.EmptyResults,
		m.ValuesTotal,
		m.WorkersBusy,
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveEvaluation records one finished evaluation producing bars values.
func (m *Metrics) ObserveEvaluation(kind string, d time.Duration, bars int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EvaluationsTotal.WithLabelValues(kind, status).Inc()
	m.EvaluationDur.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		return
	}
	if bars == 0 {
		m.EmptyResults.WithLabelValues(kind).Inc()
	}
	m.ValuesTotal.WithLabelValues(kind).Add(float64(bars))
}

// WorkerStarted and WorkerDone track pool occupancy.
func (m *Metrics) WorkerStarted() { m.WorkersBusy.Inc() }
func (m *Metrics) WorkerDone()    { m.WorkersBusy.Dec() }

// Gather collects the current metric families, sorted by name.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families, nil
}

// WriteText writes the gathered families in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Sample is one flattened counter or gauge value.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Samples flattens counters and gauges; histograms contribute their sample
// count under name_count.
func Samples(families []*dto.MetricFamily) []Sample {
	var out []Sample
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := make(map[string]string, len(metric.GetLabel()))
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out = append(out, Sample{Name: mf.GetName(), Labels: labels, Value: metric.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				out = append(out, Sample{Name: mf.GetName(), Labels: labels, Value: metric.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				out = append(out, Sample{Name: mf.GetName() + "_count", Labels: labels, Value: float64(metric.GetHistogram().GetSampleCount())})
			}
		}
	}
	return out
}
