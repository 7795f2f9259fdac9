// Package metrics exports scheduler activity as Prometheus metrics.
//
// A nil *Metrics is valid and records nothing, so the scheduler can call it
// unconditionally.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const DefaultNamespace = "command"

type Metrics struct {
	scheduled   prometheus.Counter
	finished    prometheus.Counter
	interrupted *prometheus.CounterVec
	failures    *prometheus.CounterVec
	active      prometheus.Gauge
	tick        prometheus.Histogram
}

// New creates the scheduler metrics and registers them with registerer.
// An empty namespace uses DefaultNamespace.
func New(registerer prometheus.Registerer, namespace string) (*Metrics, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	m := &Metrics{
		scheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_total",
			Help:      "Commands that entered the active set.",
		}),
		finished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finished_total",
			Help:      "Commands that ended because they reported finished.",
		}),
		interrupted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interrupted_total",
			Help:      "Commands that were ended early, by reason.",
		}, []string{"reason"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Lifecycle calls that panicked or broke the command contract, by phase.",
		}, []string{"phase"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active",
			Help:      "Commands currently scheduled.",
		}),
		tick: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one scheduler tick.",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
		}),
	}
	if registerer != nil {
		for _, collector := range []prometheus.Collector{m.scheduled, m.finished, m.interrupted, m.failures, m.active, m.tick} {
			if err := registerer.Register(collector); err != nil {
				return nil, fmt.Errorf("metrics: register: %w", err)
			}
		}
	}
	return m, nil
}

func (m *Metrics) Scheduled() {
	if m == nil {
		return
	}
	m.scheduled.Inc()
}

func (m *Metrics) Finished() {
	if m == nil {
		return
	}
	m.finished.Inc()
}

func (m *Metrics) Interrupted(reason string) {
	if m == nil {
		return
	}
	m.interrupted.WithLabelValues(reason).Inc()
}

func (m *Metrics) Failed(phase string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(phase).Inc()
}

func (m *Metrics) Active(n int) {
	if m == nil {
		return
	}
	m.active.Set(float64(n))
}

func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tick.Observe(d.Seconds())
}
