package resolver

import (
	"context"

	"ftf-gateway/internal/auth"
)

// Resolver determines which vendor an external identity belongs to.
// It is the ONLY place where identity-to-vendor mapping logic lives.
type Resolver interface {
	Resolve(
		ctx context.Context,
		profile *auth.Profile,
	) (vendorID string, err error)
}
