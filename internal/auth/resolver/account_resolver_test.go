package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ftf-gateway/internal/auth"
	"ftf-gateway/internal/vendor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// stubVendorStore wraps a MemoryStore and lets a test override single
// operations.
type stubVendorStore struct {
	*vendor.MemoryStore
	findFn   func(ctx context.Context, identity string) ([]vendor.Vendor, error)
	createFn func(ctx context.Context, v vendor.Vendor) error
}

func (s *stubVendorStore) FindByIdentity(ctx context.Context, identity string) ([]vendor.Vendor, error) {
	if s.findFn != nil {
		return s.findFn(ctx, identity)
	}
	return s.MemoryStore.FindByIdentity(ctx, identity)
}

func (s *stubVendorStore) Create(ctx context.Context, v vendor.Vendor) error {
	if s.createFn != nil {
		return s.createFn(ctx, v)
	}
	return s.MemoryStore.Create(ctx, v)
}

func TestResolveCreatesThenReuses(t *testing.T) {
	store := vendor.NewMemoryStore()
	r := NewAccountResolver(store)
	ctx := context.Background()

	first, err := r.Resolve(ctx, &auth.Profile{ExternalIdentity: "a@b.com", DisplayName: "Ann"})
	require.NoError(t, err)

	second, err := r.Resolve(ctx, &auth.Profile{ExternalIdentity: "A@B.com", DisplayName: "Ann Changed"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	v, err := store.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", v.ExternalIdentity)
	assert.Equal(t, "Ann", v.DisplayName, "login must not overwrite vendor-edited fields")
}

func TestResolveKeepsEditedDisplayName(t *testing.T) {
	store := vendor.NewMemoryStore()
	r := NewAccountResolver(store)
	ctx := context.Background()

	id, err := r.Resolve(ctx, &auth.Profile{ExternalIdentity: "a@b.com", DisplayName: "Ann"})
	require.NoError(t, err)

	_, err = store.UpdateDisplayName(ctx, id, "Ann's Empanadas")
	require.NoError(t, err)

	again, err := r.Resolve(ctx, &auth.Profile{ExternalIdentity: "a@b.com", DisplayName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	v, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ann's Empanadas", v.DisplayName)
}

func TestResolveRejectsEmptyIdentity(t *testing.T) {
	r := NewAccountResolver(vendor.NewMemoryStore())

	_, err := r.Resolve(context.Background(), &auth.Profile{ExternalIdentity: "  "})
	assert.ErrorIs(t, err, auth.ErrProfileFetch)

	_, err = r.Resolve(context.Background(), nil)
	assert.Error(t, err)
}

func TestResolveAccountConflict(t *testing.T) {
	store := &stubVendorStore{
		MemoryStore: vendor.NewMemoryStore(),
		findFn: func(context.Context, string) ([]vendor.Vendor, error) {
			return []vendor.Vendor{{ID: "v1"}, {ID: "v2"}}, nil
		},
	}
	r := NewAccountResolver(store)

	_, err := r.Resolve(context.Background(), &auth.Profile{ExternalIdentity: "dup@b.com"})
	assert.ErrorIs(t, err, auth.ErrAccountConflict)
}

func TestResolveFallsBackToRereadOnDuplicate(t *testing.T) {
	winner := vendor.Vendor{ID: "winner", ExternalIdentity: "late@b.com"}

	var finds atomic.Int32
	store := &stubVendorStore{
		MemoryStore: vendor.NewMemoryStore(),
		findFn: func(context.Context, string) ([]vendor.Vendor, error) {
			// Nothing on the first read, the winner after the lost create.
			if finds.Add(1) == 1 {
				return nil, nil
			}
			return []vendor.Vendor{winner}, nil
		},
		createFn: func(context.Context, vendor.Vendor) error {
			return vendor.ErrDuplicateIdentity
		},
	}
	r := NewAccountResolver(store)

	id, err := r.Resolve(context.Background(), &auth.Profile{ExternalIdentity: "late@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "winner", id)
	assert.EqualValues(t, 2, finds.Load())
}

func TestResolveStoreUnavailable(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name  string
		store *stubVendorStore
	}{
		{
			name: "find fails",
			store: &stubVendorStore{
				MemoryStore: vendor.NewMemoryStore(),
				findFn: func(context.Context, string) ([]vendor.Vendor, error) {
					return nil, boom
				},
			},
		},
		{
			name: "create fails",
			store: &stubVendorStore{
				MemoryStore: vendor.NewMemoryStore(),
				createFn: func(context.Context, vendor.Vendor) error {
					return boom
				},
			},
		},
		{
			name: "duplicate but unreadable",
			store: &stubVendorStore{
				MemoryStore: vendor.NewMemoryStore(),
				createFn: func(context.Context, vendor.Vendor) error {
					return vendor.ErrDuplicateIdentity
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewAccountResolver(tt.store)
			_, err := r.Resolve(context.Background(), &auth.Profile{ExternalIdentity: "x@b.com"})
			assert.ErrorIs(t, err, auth.ErrStoreUnavailable)
		})
	}
}

// racyStore widens the window between the read and the create so that
// concurrent first logins really do overlap.
type racyStore struct {
	*vendor.MemoryStore
	creates atomic.Int32
}

func (s *racyStore) FindByIdentity(ctx context.Context, identity string) ([]vendor.Vendor, error) {
	out, err := s.MemoryStore.FindByIdentity(ctx, identity)
	time.Sleep(20 * time.Millisecond)
	return out, err
}

func (s *racyStore) Create(ctx context.Context, v vendor.Vendor) error {
	s.creates.Add(1)
	return s.MemoryStore.Create(ctx, v)
}

func TestResolveUniqueUnderConcurrency(t *testing.T) {
	store := &racyStore{MemoryStore: vendor.NewMemoryStore()}

	// Separate resolvers stand in for separate gateway processes: only the
	// store can keep them from creating duplicates.
	resolvers := make([]*AccountResolver, 4)
	for i := range resolvers {
		resolvers[i] = NewAccountResolver(store)
	}

	const n = 20
	var (
		g   errgroup.Group
		mu  sync.Mutex
		ids = make(map[string]int)
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		r := resolvers[i%len(resolvers)]
		g.Go(func() error {
			<-start
			id, err := r.Resolve(context.Background(), &auth.Profile{
				ExternalIdentity: "fresh@b.com",
				DisplayName:      "Fresh",
			})
			if err != nil {
				return err
			}
			mu.Lock()
			ids[id]++
			mu.Unlock()
			return nil
		})
	}
	close(start)
	require.NoError(t, g.Wait())

	require.Len(t, ids, 1, "all logins must resolve to one vendor")

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.GreaterOrEqual(t, store.creates.Load(), int32(2), "resolvers should have raced on create")
}

func TestResolveCallerCancelled(t *testing.T) {
	release := make(chan struct{})
	store := &stubVendorStore{
		MemoryStore: vendor.NewMemoryStore(),
		findFn: func(context.Context, string) ([]vendor.Vendor, error) {
			<-release
			return nil, nil
		},
	}
	r := NewAccountResolver(store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx, &auth.Profile{ExternalIdentity: "gone@b.com"})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("resolve did not return after cancellation")
	}
	close(release)
}
