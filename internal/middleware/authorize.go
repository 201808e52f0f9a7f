package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ftf-gateway/internal/auth"
	"ftf-gateway/internal/logger"
	"ftf-gateway/internal/resource"
	"ftf-gateway/internal/response"
)

// Authorizer checks that a mutating request targets something the
// authenticated vendor owns. It must run after the Authenticator.
//
// Paths are read after prefix:
//
//	/vendors/{id}          owner is {id}
//	/vendors/{id}/{kind}   creating under a namespace, {id} must be the caller
//	/{kind}/{id}           owner comes from the resource store; unowned
//	                       records may be claimed
//
// Anything else is forbidden.
type Authorizer struct {
	resources resource.Store
	prefix    string
}

func NewAuthorizer(resources resource.Store, prefix string) *Authorizer {
	return &Authorizer{
		resources: resources,
		prefix:    strings.TrimSuffix(prefix, "/"),
	}
}

func (a *Authorizer) Intercept(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if isSafe(r.Method) {
		record("authorizer", "pass")
		next.ServeHTTP(w, r)
		return
	}

	vendorID, ok := auth.VendorIDFromContext(r.Context())
	if !ok {
		a.reject(w, r, fmt.Errorf("%w: no authenticated vendor", auth.ErrUnauthenticated))
		return
	}

	if err := a.authorize(r.Context(), vendorID, r.URL.Path); err != nil {
		a.reject(w, r, err)
		return
	}

	record("authorizer", "allow")
	next.ServeHTTP(w, r)
}

func (a *Authorizer) authorize(ctx context.Context, vendorID, path string) error {
	rest, ok := strings.CutPrefix(path, a.prefix)
	if !ok {
		return auth.ErrForbidden
	}
	segs := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(segs) == 2 && segs[0] == "vendors":
		return sameVendor(vendorID, segs[1])

	case len(segs) == 3 && segs[0] == "vendors":
		if _, ok := resource.ParseKind(segs[2]); !ok {
			return auth.ErrForbidden
		}
		return sameVendor(vendorID, segs[1])

	case len(segs) == 2:
		kind, ok := resource.ParseKind(segs[0])
		if !ok || segs[1] == "" {
			return auth.ErrForbidden
		}
		owner, err := a.resources.Owner(ctx, kind, segs[1])
		switch {
		case errors.Is(err, resource.ErrNotFound):
			return auth.ErrNotFound
		case err != nil:
			return fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
		case owner != "" && owner != vendorID:
			return auth.ErrForbidden
		}
		return nil
	}

	return auth.ErrForbidden
}

func sameVendor(vendorID, target string) error {
	if target == "" || target != vendorID {
		return auth.ErrForbidden
	}
	return nil
}

func (a *Authorizer) reject(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}

	vendorID, _ := auth.VendorIDFromContext(r.Context())
	fields := map[string]any{
		"method":    r.Method,
		"path":      r.URL.Path,
		"vendor_id": vendorID,
	}

	switch {
	case errors.Is(err, auth.ErrStoreUnavailable):
		record("authorizer", "error")
		fields["error"] = err
		logger.Error("authorization failed", fields)
	default:
		record("authorizer", "deny")
		logger.Info("request not authorized", fields)
	}
	response.FromError(w, err)
}
