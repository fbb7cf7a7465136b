// Package metrics exposes Prometheus metrics for registry operations.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "nodereg"

// Metrics holds the registry's collectors.
type Metrics struct {
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	modules       prometheus.Gauge
	nodeTypes     *prometheus.GaugeVec
	eventsDropped *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of registry mutations by operation and result.",
		}, []string{"op", "result"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Registry mutation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		modules: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "modules",
			Help:      "Number of modules currently loaded.",
		}),

		nodeTypes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "node_types",
			Help:      "Number of node types by state.",
		}, []string{"state"}),

		eventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_dropped_total",
			Help:      "Notifications dropped because the queue was full.",
		}, []string{"kind"}),
	}
}

// ObserveOperation records one completed mutation. result is the error code
// of err, or "ok".
func (m *Metrics) ObserveOperation(op, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetInventory updates the module and node type gauges.
func (m *Metrics) SetInventory(modules int, byState map[string]int) {
	if m == nil {
		return
	}
	m.modules.Set(float64(modules))
	m.nodeTypes.Reset()
	for state, n := range byState {
		m.nodeTypes.WithLabelValues(state).Set(float64(n))
	}
}

// EventDropped counts a dropped notification.
func (m *Metrics) EventDropped(kind string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(kind).Inc()
}
