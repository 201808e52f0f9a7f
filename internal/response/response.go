// Package response writes the gateway's JSON bodies and maps domain errors
// onto status codes.
package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ftf-gateway/internal/auth"
)

const (
	CodeInvalidRequest       = "invalid_request"
	CodeUnsupportedGrantType = "unsupported_grant_type"
	CodeInvalidGrant         = "invalid_grant"
	CodeProviderUnreachable  = "provider_unreachable"
	CodeUnauthenticated      = "unauthenticated"
	CodeForbidden            = "forbidden"
	CodeNotFound             = "not_found"
	CodeInternal             = "internal_error"
)

// StatusClientClosedRequest marks requests whose caller went away before
// a response was written.
const StatusClientClosedRequest = 499

// ErrorBody is the error shape of every endpoint.
type ErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, code, description string) {
	JSON(w, status, ErrorBody{Error: code, Description: description})
}

// Classify maps err to a status code and error code. Unknown errors are
// internal; their text is never sent to the client.
func Classify(err error) (status int, code, description string) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthenticated, "valid identity and bearer credential required"
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, CodeForbidden, "resource belongs to another vendor"
	case errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "resource not found"
	case errors.Is(err, auth.ErrTimeout):
		return http.StatusGatewayTimeout, CodeProviderUnreachable, "identity provider timed out"
	case errors.Is(err, auth.ErrExchange):
		return http.StatusBadRequest, CodeInvalidGrant, "authorization code was rejected"
	case errors.Is(err, auth.ErrProviderDown), errors.Is(err, auth.ErrProfileFetch):
		return http.StatusBadGateway, CodeProviderUnreachable, "identity provider unavailable"
	case errors.Is(err, context.Canceled):
		// Client is gone; the status is only seen by logs.
		return StatusClientClosedRequest, CodeInvalidRequest, "request cancelled"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal error"
	}
}

// FromError writes the error response for err.
func FromError(w http.ResponseWriter, err error) {
	status, code, desc := Classify(err)
	Error(w, status, code, desc)
}
