package auth

import "errors"

// Gateway error taxonomy. Callers match with errors.Is; the HTTP layer maps
// each sentinel to a status and an OAuth-style error code.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrExchange         = errors.New("authorization code exchange rejected")
	ErrProfileFetch     = errors.New("profile fetch failed")
	ErrTimeout          = errors.New("identity provider timed out")
	ErrProviderDown     = errors.New("identity provider unreachable")
	ErrAccountConflict  = errors.New("multiple vendors share one external identity")
	ErrStoreUnavailable = errors.New("record store unavailable")
)
