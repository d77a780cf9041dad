package driven

import "context"

// KVStore is a persistent string key-value store, the local-storage
// analogue. Values are UTF-8 text, JSON-encoded where structured.
// Writes are last-write-wins; implementations must be safe for
// concurrent use.
type KVStore interface {
	// Get returns the value for key.
	// Returns domain.ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	// Returns an error wrapping domain.ErrStorageUnavailable when the
	// store rejects the write.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
