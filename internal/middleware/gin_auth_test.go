package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ftf-gateway/internal/auth"
	"ftf-gateway/internal/logger"
	"ftf-gateway/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGinBridgeForwardsAnnotatedRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	annotate := InterceptorFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		next.ServeHTTP(w, r.WithContext(auth.WithVendorID(r.Context(), "v-1")))
	})

	router := gin.New()
	router.Use(Gin(annotate))
	router.POST("/x", func(c *gin.Context) {
		id, _ := auth.VendorIDFromContext(c.Request.Context())
		c.String(http.StatusOK, id)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v-1", rec.Body.String())
}

func TestGinBridgeAbortsWhenIntercepted(t *testing.T) {
	gin.SetMode(gin.TestMode)

	deny := InterceptorFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		w.WriteHeader(http.StatusForbidden)
	})

	reached := false
	router := gin.New()
	router.Use(Gin(deny))
	router.POST("/x", func(c *gin.Context) { reached = true })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(zap.NewNop()) })

	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, http.StatusInternalServerError, entries[0].ContextMap()["status"])
}

func TestGinBridgeMarksCancelledRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(zap.NewNop()) })

	pass := InterceptorFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		next.ServeHTTP(w, r)
	})

	reached := false
	router := gin.New()
	router.Use(RequestLogger())
	router.Use(Gin(pass))
	router.POST("/cancelled", func(c *gin.Context) { reached = true })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/cancelled", nil).WithContext(ctx)

	counter := metrics.RequestsTotal.WithLabelValues(http.MethodPost, "/cancelled", "4xx")
	before := testutil.ToFloat64(counter)

	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, reached)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Empty(t, logs.FilterMessage("request completed").All())

	entries := logs.FilterMessage("request cancelled by client").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 499, entries[0].ContextMap()["status"])
}
