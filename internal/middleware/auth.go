package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ftf-gateway/internal/auth"
	"ftf-gateway/internal/auth/credentials"
	"ftf-gateway/internal/logger"
	"ftf-gateway/internal/response"
	"ftf-gateway/internal/vendor"

	"github.com/google/uuid"
)

// IdentityHeader names the vendor a mutating request claims to act as.
// It carries either the vendor id or the vendor's external identity.
const IdentityHeader = "X-User-Id"

// Verifier checks a bearer credential for a vendor.
type Verifier interface {
	Verify(ctx context.Context, vendorID, bearer string) (*credentials.Credential, error)
}

// Authenticator lets safe methods through and requires a valid identity
// header plus bearer credential on everything else.
type Authenticator struct {
	vendors  vendor.Store
	verifier Verifier
}

func NewAuthenticator(vendors vendor.Store, verifier Verifier) *Authenticator {
	return &Authenticator{vendors: vendors, verifier: verifier}
}

func (a *Authenticator) Intercept(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if isSafe(r.Method) {
		record("authenticator", "pass")
		next.ServeHTTP(w, r)
		return
	}

	vendorID, err := a.authenticate(r)
	if err != nil {
		a.reject(w, r, err)
		return
	}

	record("authenticator", "allow")
	next.ServeHTTP(w, r.WithContext(auth.WithVendorID(r.Context(), vendorID)))
}

// Authenticate runs the credential checks alone, for handlers outside the
// chain that still need a verified vendor.
func (a *Authenticator) Authenticate(r *http.Request) (vendorID, bearer string, err error) {
	vendorID, err = a.authenticate(r)
	if err != nil {
		return "", "", err
	}
	bearer, _ = bearerToken(r)
	return vendorID, bearer, nil
}

func (a *Authenticator) authenticate(r *http.Request) (string, error) {
	identity := strings.TrimSpace(r.Header.Get(IdentityHeader))
	bearer, ok := bearerToken(r)
	if identity == "" || !ok {
		return "", fmt.Errorf("%w: missing identity or bearer", auth.ErrUnauthenticated)
	}

	vendorID, err := a.resolveVendor(r.Context(), identity)
	if err != nil {
		return "", err
	}

	if _, err := a.verifier.Verify(r.Context(), vendorID, bearer); err != nil {
		return "", err
	}
	return vendorID, nil
}

func (a *Authenticator) resolveVendor(ctx context.Context, identity string) (string, error) {
	if _, err := uuid.Parse(identity); err == nil {
		v, err := a.vendors.Get(ctx, identity)
		switch {
		case errors.Is(err, vendor.ErrNotFound):
			return "", fmt.Errorf("%w: unknown vendor", auth.ErrUnauthenticated)
		case err != nil:
			return "", fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
		}
		return v.ID, nil
	}

	found, err := a.vendors.FindByIdentity(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: unknown vendor", auth.ErrUnauthenticated)
	case 1:
		return found[0].ID, nil
	default:
		return "", auth.ErrAccountConflict
	}
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}

	if errors.Is(err, auth.ErrUnauthenticated) {
		record("authenticator", "deny")
		logger.Debug("request not authenticated", map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	} else {
		record("authenticator", "error")
		logger.Error("authentication failed", map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err,
		})
	}
	response.FromError(w, err)
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}
