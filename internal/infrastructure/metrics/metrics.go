// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery channels reported by Dispatched.
const (
	ChannelRealtime = "realtime"
	ChannelPush     = "push"
	ChannelNone     = "none"
)

// Metrics groups the counters. A nil *Metrics is valid and records nothing,
// which keeps test wiring short.
type Metrics struct {
	registry *prometheus.Registry

	dispatched   *prometheus.CounterVec
	pushFailures *prometheus.CounterVec
	sweepItems   *prometheus.CounterVec
	teardowns    *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		dispatched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wishlist_notifications_dispatched_total",
			Help: "Notifications persisted, by delivery channel.",
		}, []string{"type", "channel"}),
		pushFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wishlist_push_failures_total",
			Help: "Failed push deliveries, by reason.",
		}, []string{"reason"}),
		sweepItems: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wishlist_sweep_items_total",
			Help: "Entities processed by scheduled sweeps.",
		}, []string{"pass", "outcome"}),
		teardowns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wishlist_relationship_teardowns_total",
			Help: "Unfriend and block cascades, by result.",
		}, []string{"operation", "result"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Dispatched(notificationType, channel string) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(notificationType, channel).Inc()
}

func (m *Metrics) PushFailed(reason string) {
	if m == nil {
		return
	}
	m.pushFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) SweepProcessed(pass, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.sweepItems.WithLabelValues(pass, outcome).Add(float64(n))
}

func (m *Metrics) Teardown(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.teardowns.WithLabelValues(operation, result).Inc()
}
