// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanai_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "urbanai_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "urbanai_http_requests_in_flight",
			Help: "Requests currently being served.",
		},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanai_events_published_total",
			Help: "Domain events published by routing key and outcome.",
		},
		[]string{"routing_key", "outcome"},
	)
)

// MustRegister installs all collectors into the default registry.
func MustRegister() {
	prometheus.MustRegister(RequestsTotal, RequestDuration, InFlight, EventsPublished)
}
