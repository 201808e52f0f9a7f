package resource

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Record)}
}

func (s *MemoryStore) lookup(kind Kind, id string) (Record, bool) {
	r, ok := s.byID[id]
	if !ok || r.Kind != kind {
		return Record{}, false
	}
	return r, true
}

func (s *MemoryStore) Owner(_ context.Context, kind Kind, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.lookup(kind, id)
	if !ok {
		return "", ErrNotFound
	}
	return r.VendorID, nil
}

func (s *MemoryStore) Get(_ context.Context, kind Kind, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.lookup(kind, id)
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) List(_ context.Context, kind Kind) ([]Record, error) {
	return s.filter(func(r Record) bool { return r.Kind == kind }), nil
}

func (s *MemoryStore) ListByVendor(_ context.Context, kind Kind, vendorID string) ([]Record, error) {
	return s.filter(func(r Record) bool {
		return r.Kind == kind && r.VendorID == vendorID
	}), nil
}

func (s *MemoryStore) filter(keep func(Record) bool) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, r := range s.byID {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) Create(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	s.byID[r.ID] = r
	return nil
}

func (s *MemoryStore) Update(_ context.Context, kind Kind, id, vendorID string, data json.RawMessage) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.lookup(kind, id)
	if !ok {
		return nil, ErrNotFound
	}
	if r.VendorID == "" {
		r.VendorID = vendorID
	}
	r.Data = data
	r.UpdatedAt = time.Now().UTC()
	s.byID[id] = r
	return &r, nil
}

func (s *MemoryStore) Delete(_ context.Context, kind Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(kind, id); !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}
