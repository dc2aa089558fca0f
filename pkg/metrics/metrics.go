// Package metrics exposes prometheus instruments for upstream calls and the HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	RecordsReturned         prometheus.Histogram
	HTTPRequestsTotal       *prometheus.CounterVec
	StaleResultsDiscarded   prometheus.Counter
}

// New registers every instrument on a private registry so tests can build as many
// instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyword_volume_upstream_requests_total",
				Help: "Upstream API calls by service and outcome",
			},
			[]string{"service", "outcome"},
		),
		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyword_volume_upstream_request_duration_seconds",
				Help:    "Upstream API call latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"service"},
		),
		RecordsReturned: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "keyword_volume_records_returned",
				Help:    "Related keywords returned per search",
				Buckets: []float64{0, 10, 50, 100, 250, 500, 1000},
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyword_volume_http_requests_total",
				Help: "Inbound HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		StaleResultsDiscarded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "keyword_volume_stale_results_discarded_total",
				Help: "Results dropped because a newer search superseded them",
			},
		),
	}
}

// ObserveUpstream satisfies api.Recorder.
func (m *Metrics) ObserveUpstream(service, outcome string, elapsed time.Duration) {
	m.UpstreamRequestsTotal.WithLabelValues(service, outcome).Inc()
	if elapsed > 0 {
		m.UpstreamRequestDuration.WithLabelValues(service).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveRecords(n int) {
	m.RecordsReturned.Observe(float64(n))
}

func (m *Metrics) ObserveHTTP(route, status string) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
}

func (m *Metrics) ObserveStale() {
	m.StaleResultsDiscarded.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
