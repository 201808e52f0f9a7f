package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	RequestsTotal.WithLabelValues("GET", "/health", "2xx").Inc()
	RequestDuration.WithLabelValues("GET", "/health").Observe(0.01)
	LoginsTotal.WithLabelValues("facebook", "success").Inc()
	ProviderLatency.WithLabelValues("facebook", "exchange").Observe(0.2)
	GatewayDecisionsTotal.WithLabelValues("authenticator", "allow").Inc()
	VendorsCreatedTotal.Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := make(map[string]bool)
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	for _, name := range []string{
		"ftf_http_requests_total",
		"ftf_http_request_duration_seconds",
		"ftf_logins_total",
		"ftf_provider_latency_seconds",
		"ftf_gateway_decisions_total",
		"ftf_vendors_created_total",
	} {
		assert.True(t, found[name], name)
	}

	assert.GreaterOrEqual(t, testutil.ToFloat64(LoginsTotal.WithLabelValues("facebook", "success")), 1.0)
}
