// Package metrics exposes Prometheus counters for ticks and render passes.
//
// A nil *Collector is valid and records nothing, so projectors built without
// metrics need no special casing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry and the arbor metric families.
type Collector struct {
	registry *prometheus.Registry

	ticks     prometheus.Counter
	renders   *prometheus.CounterVec
	scheduled *prometheus.CounterVec
	members   *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
}

// New creates a Collector with all metric families registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbor_ticks_total",
			Help: "Total number of lifecycle ticks delivered to the root chip",
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_renders_total",
			Help: "Total number of render passes per projector",
		}, []string{"projector"}),
		scheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_scheduled_renders_total",
			Help: "Total number of render requests per projector",
		}, []string{"projector"}),
		members: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arbor_set_members",
			Help: "Renderable set size observed at the last render pass",
		}, []string{"projector"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arbor_render_duration_seconds",
			Help:    "Duration of render passes",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"projector"}),
	}
	c.registry.MustRegister(c.ticks, c.renders, c.scheduled, c.members, c.duration)
	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Tick records one lifecycle tick.
func (c *Collector) Tick() {
	if c == nil {
		return
	}
	c.ticks.Inc()
}

// Scheduled records a render request for projector.
func (c *Collector) Scheduled(projector string) {
	if c == nil {
		return
	}
	c.scheduled.WithLabelValues(projector).Inc()
}

// Rendered records a completed render pass.
func (c *Collector) Rendered(projector string, members int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.renders.WithLabelValues(projector).Inc()
	c.members.WithLabelValues(projector).Set(float64(members))
	c.duration.WithLabelValues(projector).Observe(elapsed.Seconds())
}

// Forget drops every series labelled with projector. Called when a
// projector is discarded so terminated roots do not linger in scrapes.
func (c *Collector) Forget(projector string) {
	if c == nil {
		return
	}
	c.renders.DeleteLabelValues(projector)
	c.scheduled.DeleteLabelValues(projector)
	c.members.DeleteLabelValues(projector)
	c.duration.DeleteLabelValues(projector)
}
