// Package metadata provides the local key/value store that backs the
// device-side state: the serialized discovered-voice list and the
// last-sync instant live here under fixed keys.
package metadata

import (
	"context"
)

// Repository is a string-keyed, string-valued store.
type Repository interface {
	// Get returns the value stored under key. found is false when the key
	// is absent; that is not an error.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set inserts or replaces the value under key.
	Set(ctx context.Context, key string, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
