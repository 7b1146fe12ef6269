package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of the order backend.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	saves       *prometheus.CounterVec
	loadResets  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkservices",
			Name:      "order_transitions_total",
			Help:      "Order status transitions by action and result.",
		}, []string{"action", "result"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkservices",
			Name:      "persistence_saves_total",
			Help:      "Persistence writes by key and outcome (full, compacted, minimal, dropped, failed).",
		}, []string{"key", "outcome"}),
		loadResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkservices",
			Name:      "persistence_load_resets_total",
			Help:      "Stored keys discarded at load because they could not be decoded.",
		}, []string{"key"}),
	}
	m.registry.MustRegister(m.transitions, m.saves, m.loadResets)
	return m
}

func (m *Metrics) ObserveTransition(action, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) ObserveSave(key, outcome string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(key, outcome).Inc()
}

func (m *Metrics) ObserveLoadReset(key string) {
	if m == nil {
		return
	}
	m.loadResets.WithLabelValues(key).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
