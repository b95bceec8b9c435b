// Package localstore is the per-device durable key/value storage the session
// and cart stores persist into, the server-side stand-in for a browser's
// localStorage.
package localstore

import (
	"context"
	"errors"
)

// ErrDeviceRequired is returned when a device-scoped store is built without a device id.
var ErrDeviceRequired = errors.New("device id is required")

// Store is a string key/value store. GetItem reports ok=false for absent keys.
type Store interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
