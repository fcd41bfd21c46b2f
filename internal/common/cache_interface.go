package common

import "time"

// CacheInterface defines the contract for cache implementations. Values
// are stored as JSON so every backend hands callers a private copy.
type CacheInterface interface {
	// Set stores a value in cache with the given key and duration
	Set(key string, value interface{}, duration time.Duration)

	// GetInto decodes the cached value for key into dest.
	// Returns false on a miss or when the value cannot be decoded.
	GetInto(key string, dest interface{}) bool

	// Delete removes a value from cache by key
	Delete(key string)

	// Close closes any underlying connections (for Redis, etc.)
	Close() error
}
