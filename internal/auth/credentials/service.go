package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ftf-gateway/internal/auth"
	"ftf-gateway/internal/utils"

	"github.com/google/uuid"
)

const secretBytes = 32

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", auth.ErrUnauthenticated)
)

// Issued is the result of a successful issuance. Bearer is the only copy of
// the raw secret; it cannot be recovered from the store.
type Issued struct {
	Bearer     string
	Credential Credential
}

// Service is the token issuer and verifier.
type Service struct {
	store      Store
	params     Params
	defaultTTL time.Duration
	now        func() time.Time
}

type Option func(*Service)

// WithParams overrides the argon2id parameters used for new credentials.
func WithParams(p Params) Option {
	return func(s *Service) { s.params = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, defaultTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		store:      store,
		params:     DefaultParams,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a bearer credential for vendorID valid for lifetime, or for
// the default TTL when lifetime is not positive.
func (s *Service) Issue(ctx context.Context, vendorID string, lifetime time.Duration) (*Issued, error) {
	if vendorID == "" {
		return nil, errors.New("credentials: vendor id is required")
	}
	if lifetime <= 0 {
		lifetime = s.defaultTTL
	}

	secret, err := utils.RandomString(secretBytes)
	if err != nil {
		return nil, err
	}

	hash, version, err := HashToken(secret, s.params)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := Credential{
		ID:          uuid.NewString(),
		VendorID:    vendorID,
		TokenHash:   hash,
		HashVersion: version,
		IssuedAt:    now,
		ExpiresAt:   now.Add(lifetime),
	}

	// A caller that went away must not leave a credential behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
	}

	return &Issued{
		Bearer:     c.ID + "." + secret,
		Credential: c,
	}, nil
}

// Verify checks a presented bearer against the stored credential of
// vendorID. Any mismatch, absence or expiry yields ErrInvalidCredentials.
func (s *Service) Verify(ctx context.Context, vendorID, bearer string) (*Credential, error) {
	credentialID, secret, ok := splitBearer(bearer)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	c, err := s.store.Get(ctx, vendorID, credentialID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
	}
	if c == nil || c.VendorID != vendorID || c.Expired(s.now()) {
		return nil, ErrInvalidCredentials
	}

	match, err := VerifyToken(c.TokenHash, secret)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}

	return c, nil
}

// Revoke deletes the credential behind bearer after verifying it.
func (s *Service) Revoke(ctx context.Context, vendorID, bearer string) error {
	c, err := s.Verify(ctx, vendorID, bearer)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, vendorID, c.ID); err != nil {
		return fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
	}
	return nil
}

// RevokeAll deletes every credential of vendorID, live or not, and returns
// how many were removed.
func (s *Service) RevokeAll(ctx context.Context, vendorID string) (int, error) {
	all, err := s.store.ListByVendor(ctx, vendorID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
	}
	for _, c := range all {
		if err := s.store.Delete(ctx, vendorID, c.ID); err != nil {
			return 0, fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
		}
	}
	return len(all), nil
}

func splitBearer(bearer string) (id, secret string, ok bool) {
	id, secret, ok = strings.Cut(bearer, ".")
	if !ok || secret == "" {
		return "", "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", "", false
	}
	return id, secret, true
}
