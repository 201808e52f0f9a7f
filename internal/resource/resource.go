// Package resource stores the vendor-owned records (events, menus, items)
// the gateway protects, and serves them behind the interceptor chain.
package resource

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("resource not found")

type Kind string

const (
	KindEvents Kind = "events"
	KindMenus  Kind = "menus"
	KindItems  Kind = "items"
)

// Kinds lists every resource kind in route order.
var Kinds = []Kind{KindEvents, KindMenus, KindItems}

// ParseKind accepts the plural path segment of a resource kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Record is one stored resource. An empty VendorID means the record is
// unowned and the first vendor to modify it claims it.
type Record struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	VendorID  string          `json:"vendor_id,omitempty"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store is the resource side of the record store. Lookups of an id under
// the wrong kind behave as if the record did not exist.
type Store interface {
	// Owner returns the owning vendor id, empty for an unowned record.
	Owner(ctx context.Context, kind Kind, id string) (string, error)
	Get(ctx context.Context, kind Kind, id string) (*Record, error)
	List(ctx context.Context, kind Kind) ([]Record, error)
	ListByVendor(ctx context.Context, kind Kind, vendorID string) ([]Record, error)
	Create(ctx context.Context, r Record) error
	// Update replaces the data of a record. An unowned record becomes
	// owned by vendorID; an owned one keeps its owner.
	Update(ctx context.Context, kind Kind, id, vendorID string, data json.RawMessage) (*Record, error)
	Delete(ctx context.Context, kind Kind, id string) error
}
