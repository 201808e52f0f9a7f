package middleware

import (
	"net/http"

	"ftf-gateway/internal/metrics"
)

// Interceptor is one stage of the gateway. It either calls next (possibly
// with a modified request) or writes a response and returns without
// calling it.
type Interceptor interface {
	Intercept(w http.ResponseWriter, r *http.Request, next http.Handler)
}

// InterceptorFunc adapts a plain function to Interceptor.
type InterceptorFunc func(w http.ResponseWriter, r *http.Request, next http.Handler)

func (f InterceptorFunc) Intercept(w http.ResponseWriter, r *http.Request, next http.Handler) {
	f(w, r, next)
}

// Chain composes interceptors around terminal. The first interceptor is
// the outermost. A request whose context is already done is dropped
// before each stage.
func Chain(interceptors []Interceptor, terminal http.Handler) http.Handler {
	h := stage(terminal)
	for i := len(interceptors) - 1; i >= 0; i-- {
		ic, next := interceptors[i], h
		h = stage(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ic.Intercept(w, r, next)
		}))
	}
	return h
}

func stage(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Err() != nil {
			return
		}
		h.ServeHTTP(w, r)
	})
}

func record(interceptor, decision string) {
	metrics.GatewayDecisionsTotal.WithLabelValues(interceptor, decision).Inc()
}

func isSafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
