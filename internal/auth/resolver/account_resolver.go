package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ftf-gateway/internal/auth"
	"ftf-gateway/internal/logger"
	"ftf-gateway/internal/metrics"
	"ftf-gateway/internal/vendor"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// AccountResolver maps an external identity to exactly one vendor,
// creating the vendor on first login.
//
// Uniqueness is guaranteed by the store: Create fails with
// vendor.ErrDuplicateIdentity when another login won the race, and the
// resolver re-reads instead of failing. Concurrent resolutions inside one
// process are additionally coalesced per identity.
type AccountResolver struct {
	vendors vendor.Store
	group   singleflight.Group
	now     func() time.Time
}

func NewAccountResolver(vendors vendor.Store) *AccountResolver {
	return &AccountResolver{
		vendors: vendors,
		now:     time.Now,
	}
}

func (r *AccountResolver) Resolve(ctx context.Context, profile *auth.Profile) (string, error) {
	if profile == nil {
		return "", errors.New("profile is nil")
	}

	identity := vendor.NormalizeIdentity(profile.ExternalIdentity)
	if identity == "" {
		return "", fmt.Errorf("%w: profile has no external identity", auth.ErrProfileFetch)
	}

	ch := r.group.DoChan(identity, func() (any, error) {
		// Detached from any single caller so one disconnect does not fail
		// the others waiting on the same identity.
		return r.resolve(context.WithoutCancel(ctx), identity, profile.DisplayName)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *AccountResolver) resolve(ctx context.Context, identity, displayName string) (string, error) {
	// 1. Existing vendor for this identity
	id, found, err := r.lookup(ctx, identity)
	if err != nil || found {
		return id, err
	}

	// 2. First login: create. The store's uniqueness guard decides the
	// winner of concurrent creations.
	now := r.now().UTC()
	v := vendor.Vendor{
		ID:               uuid.NewString(),
		ExternalIdentity: identity,
		DisplayName:      displayName,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = r.vendors.Create(ctx, v)
	switch {
	case err == nil:
		metrics.VendorsCreatedTotal.Inc()
		logger.Info("vendor created", map[string]any{
			"vendor_id": v.ID,
		})
		return v.ID, nil

	case errors.Is(err, vendor.ErrDuplicateIdentity):
		// 3. Someone else just created it; use theirs.
		id, found, err := r.lookup(ctx, identity)
		if err != nil {
			return "", err
		}
		if !found {
			return "", fmt.Errorf("%w: identity reported duplicate but not readable", auth.ErrStoreUnavailable)
		}
		return id, nil

	default:
		return "", fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
	}
}

func (r *AccountResolver) lookup(ctx context.Context, identity string) (string, bool, error) {
	matches, err := r.vendors.FindByIdentity(ctx, identity)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
	}

	switch len(matches) {
	case 0:
		return "", false, nil
	case 1:
		return matches[0].ID, true, nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		logger.Error("vendor uniqueness violated", map[string]any{
			"matches":    len(matches),
			"vendor_ids": ids,
		})
		return "", false, fmt.Errorf("%w: %d vendors", auth.ErrAccountConflict, len(matches))
	}
}
