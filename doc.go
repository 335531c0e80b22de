// Package nvcache is the client side of a remote, versioned name/value
// settings store. Each Cache serves one table and keeps the values it has
// fetched for its own scope, including "unset" answers, for as long as the
// table's version counter does not move.
//
// Components:
//   - store.Store: the remote collaborator. A keyed Call is tried first; any
//     Call failure falls back to a Query for exactly one row and column.
//   - genstore.GenStore: where the store publishes each table's version. The
//     store bumps it after every committed write; the cache only reads it.
//   - provider.Provider: the entry map (in-memory by default, or ristretto,
//     bigcache, redis). Entries are framed with the version they were fetched
//     under and dropped as soon as the version moves.
//
// Read path (own scope):
//
//	v := versions.Snapshot(table)        // cheap, no store round-trip
//	if v != local { clear(); local = v } // full invalidation
//	if entry cached { return entry }     // present or absent
//	fetch remotely; cache it iff local is still v
//
// Reads for any other scope always go to the store and are never cached.
// Writes always go to the store; the next read observes them through the
// version bump.
//
// Remote failures are logged and reported through Hooks, never returned:
// a failed read looks like an unset setting and a failed write returns false.
// Only the typed accessors without a default (Int, Int64, Float32, Value)
// return errors, always as a *SettingError.
package nvcache
