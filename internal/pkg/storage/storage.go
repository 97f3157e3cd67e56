// Package storage is the durable key/value store backing the cart,
// wishlist and recent-search history. Values are JSON-encoded; each
// consumer owns exactly one key and never reads another consumer's key.
package storage

import "errors"

// Persisted keys. Names are part of the on-disk format.
const (
	KeyCart           = "shophub_cart"
	KeyWishlist       = "shophub_wishlist"
	KeyRecentSearches = "recentSearches"
)

// ErrNotFound indicates the key has never been written (or was deleted).
var ErrNotFound = errors.New("storage: key not found")

// Store is the durable key/value contract. Implementations JSON-encode
// values on Set and decode into dst on Get. Engines treat Set failures as
// best-effort: they log and keep serving from memory.
type Store interface {
	// Get decodes the stored value for key into dst. Returns ErrNotFound
	// when the key is absent; a decode error when the stored value is
	// corrupt.
	Get(key string, dst any) error

	// Set stores the JSON encoding of v under key, replacing any
	// previous value.
	Set(key string, v any) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Has reports whether key currently holds a value.
	Has(key string) bool
}
