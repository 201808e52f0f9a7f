package auth

import "context"

// unexported, collision-proof context key
type vendorIDContextKeyType struct{}

var vendorIDKey = vendorIDContextKeyType{}

// VendorIDFromContext extracts the authenticated vendor id from context.
func VendorIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(vendorIDKey).(string)
	return id, ok && id != ""
}

// WithVendorID attaches an authenticated vendor id to ctx.
func WithVendorID(ctx context.Context, vendorID string) context.Context {
	return context.WithValue(ctx, vendorIDKey, vendorID)
}
