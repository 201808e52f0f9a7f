package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tag(name string, order *[]string) Interceptor {
	return InterceptorFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		*order = append(*order, name)
		next.ServeHTTP(w, r)
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "terminal")
		w.WriteHeader(http.StatusNoContent)
	})

	h := Chain([]Interceptor{tag("first", &order), tag("second", &order)}, terminal)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/x", nil))

	assert.Equal(t, []string{"first", "second", "terminal"}, order)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestChainShortCircuit(t *testing.T) {
	var order []string
	stop := InterceptorFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		order = append(order, "stop")
		w.WriteHeader(http.StatusTeapot)
	})
	terminal := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "terminal")
	})

	rec := httptest.NewRecorder()
	Chain([]Interceptor{stop, tag("never", &order)}, terminal).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, []string{"stop"}, order)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestChainStopsOnCancelledRequest(t *testing.T) {
	var order []string
	ctx, cancel := context.WithCancel(context.Background())

	cancelling := InterceptorFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		order = append(order, "cancel")
		cancel()
		next.ServeHTTP(w, r)
	})
	terminal := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "terminal")
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil).WithContext(ctx)
	Chain([]Interceptor{cancelling, tag("after", &order)}, terminal).
		ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{"cancel"}, order)
}

func TestChainWithoutInterceptors(t *testing.T) {
	called := false
	terminal := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	Chain(nil, terminal).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}
