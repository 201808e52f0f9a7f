// Package metrics holds the Prometheus collectors of the gateway.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftf_http_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ftf_http_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// LoginsTotal counts login flows by provider and outcome
	// ("success" or the failing stage).
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftf_logins_total",
			Help: "Login flows by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// ProviderLatency records identity provider round trips in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ftf_provider_latency_seconds",
			Help:    "Identity provider latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "stage"},
	)

	// GatewayDecisionsTotal counts interceptor verdicts.
	GatewayDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftf_gateway_decisions_total",
			Help: "Interceptor decisions",
		},
		[]string{"interceptor", "decision"},
	)

	// VendorsCreatedTotal counts vendors created by first logins.
	VendorsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ftf_vendors_created_total",
			Help: "Vendors created on first login",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		LoginsTotal,
		ProviderLatency,
		GatewayDecisionsTotal,
		VendorsCreatedTotal,
	)
}
