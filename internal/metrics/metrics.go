// Package metrics defines the prometheus collectors of the builder service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campaign_builder"

// Metrics holds every collector. A nil *Metrics disables recording at the
// call sites that accept one.
type Metrics struct {
	registry *prometheus.Registry

	GraphMutations   *prometheus.CounterVec   // by operation
	StageTransitions *prometheus.CounterVec   // by from, to, outcome
	GatewayAttempts  *prometheus.CounterVec   // by shape, status
	GatewayLatency   *prometheus.HistogramVec // by shape
	AutosaveFailures prometheus.Counter
	ActiveSessions   prometheus.Gauge
}

// New creates the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		GraphMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "mutations_total",
			Help:      "Successful canvas graph mutations",
		}, []string{"operation"}),

		StageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "transitions_total",
			Help:      "Wizard stage transitions attempted",
		}, []string{"from", "to", "outcome"}),

		GatewayAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "attempts_total",
			Help:      "Generation webhook attempts by payload shape and status",
		}, []string{"shape", "status"}),

		GatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "attempt_duration_seconds",
			Help:      "Generation webhook attempt latency",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"shape"}),

		AutosaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "autosave_failures_total",
			Help:      "Autosave writes that failed",
		}),

		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "active_sessions",
			Help:      "Open editing sessions",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.GraphMutations,
		m.StageTransitions,
		m.GatewayAttempts,
		m.GatewayLatency,
		m.AutosaveFailures,
		m.ActiveSessions,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
