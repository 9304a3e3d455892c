// Package metrics holds the Prometheus counters recorded during a run.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a private registry of run counters.
type Metrics struct {
	registry *prometheus.Registry
	samples  *prometheus.CounterVec
	retries  *prometheus.CounterVec
	calls    *prometheus.CounterVec
}

// New creates counters registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prompteval",
			Name:      "samples_total",
			Help:      "Samples whose evaluation attempt completed, by eval and status.",
		}, []string{"eval", "status"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prompteval",
			Name:      "model_retries_total",
			Help:      "Model call retries, by failure kind.",
		}, []string{"kind"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prompteval",
			Name:      "model_calls_total",
			Help:      "Provider call attempts, by model and result.",
		}, []string{"model", "result"}),
	}
	m.registry.MustRegister(m.samples, m.retries, m.calls)
	return m
}

// SampleDone counts one completed evaluation attempt.
func (m *Metrics) SampleDone(eval string, failed bool) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "failed"
	}
	m.samples.WithLabelValues(eval, status).Inc()
}

// Retry counts one retry of the given kind.
func (m *Metrics) Retry(kind string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(kind).Inc()
}

// Call counts one provider attempt.
func (m *Metrics) Call(model string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.calls.WithLabelValues(model, result).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all counters in the Prometheus text format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
