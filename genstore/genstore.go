// Package genstore holds the per-table version counters that drive cache
// invalidation. A counter is owned by the settings store: every committed
// write to a table must be followed by a Bump of that table's key, and
// clients only ever read it.
package genstore

import "context"

// GenStore abstracts where version counters live.
// Use LocalGenStore for a single process (the store and its clients share
// memory), or RedisGenStore when the store and its clients are separate
// processes.
type GenStore interface {
	// Snapshot returns the current version; missing => 0.
	Snapshot(ctx context.Context, key string) (uint64, error)
	// Bump atomically increments and returns the new version.
	Bump(ctx context.Context, key string) (uint64, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
