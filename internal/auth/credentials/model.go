package credentials

import "time"

// Credential is the stored proof of a successful login. The raw bearer
// secret is never stored, only TokenHash.
type Credential struct {
	ID          string    `json:"id"`
	VendorID    string    `json:"vendor_id"`
	TokenHash   string    `json:"token_hash"`
	HashVersion string    `json:"hash_version"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the credential is no longer valid at now.
func (c Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
