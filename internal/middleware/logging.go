package middleware

import (
	"strconv"
	"time"

	"ftf-gateway/internal/logger"
	"ftf-gateway/internal/metrics"
	"ftf-gateway/internal/response"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request once it completes and records the
// HTTP request metrics. Unmatched routes are labelled "unmatched" to keep
// metric cardinality bounded.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status/100)+"xx").Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		fields := map[string]any{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": elapsed.Milliseconds(),
			"ip":         c.ClientIP(),
		}
		switch {
		case status >= 500:
			logger.Error("request failed", fields)
		case status == response.StatusClientClosedRequest:
			logger.Warn("request cancelled by client", fields)
		case route == "/health" || route == "/metrics":
			logger.Debug("request completed", fields)
		default:
			logger.Info("request completed", fields)
		}
	}
}
