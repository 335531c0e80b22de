// Package provider defines the entry map used by nvcache to hold fetched
// settings.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation).
//
// Important: a provider instance is owned by exactly one cache. Clear drops
// every entry the provider holds, which is how a cache applies a full
// invalidation when the table version moves.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs and a full reset.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL (<= 0 means no expiry). May ignore
	// cost if unsupported. Returns ok=false when the store rejected the write
	// under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close(ctx context.Context) error
}
