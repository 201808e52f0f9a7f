package credentials

import "context"

// Store persists credentials keyed by vendor. Get returns (nil, nil) when
// the credential does not exist or has already expired.
type Store interface {
	Create(ctx context.Context, c Credential) error
	Get(ctx context.Context, vendorID, credentialID string) (*Credential, error)
	ListByVendor(ctx context.Context, vendorID string) ([]Credential, error)
	Delete(ctx context.Context, vendorID, credentialID string) error
}
