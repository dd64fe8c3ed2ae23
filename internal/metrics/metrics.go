// Package metrics exposes render counters for the kiosk.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "kiosk"

// Error reasons used as the "reason" label
const (
	ReasonNoImage      = "no_image"
	ReasonInvalidImage = "invalid_image"
	ReasonCancelled    = "cancelled"
	ReasonRender       = "render"
)

// Metrics holds the render collectors and the registry they live on
type Metrics struct {
	registry *prometheus.Registry

	renderedTotal  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
}

// New creates a registry with the render collectors plus the Go and process
// collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		renderedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "postcards_rendered_total",
			Help:      "Total number of postcards written, by tier",
		}, []string{"tier"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "render_errors_total",
			Help:      "Total number of failed snapshot renders, by reason",
		}, []string{"reason"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent composing and writing one postcard",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"tier"}),
	}

	registry.MustRegister(
		m.renderedTotal,
		m.errorsTotal,
		m.renderDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRender records one written postcard
func (m *Metrics) ObserveRender(tier string, seconds float64) {
	m.renderedTotal.WithLabelValues(tier).Inc()
	m.renderDuration.WithLabelValues(tier).Observe(seconds)
}

// ObserveError records one failed render
func (m *Metrics) ObserveError(reason string) {
	m.errorsTotal.WithLabelValues(reason).Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
