package nvcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// The table version moved; every cached entry was dropped.
	Invalidated(table string, from, to uint64)

	// A self-scope read finished. hit=true when it made no remote call.
	Lookup(table, name string, hit bool)

	// The fast-path call failed with something other than store.ErrUnsupported
	// and the read fell back to a query. A real outage looks the same as a
	// store without fast-path support from here.
	FastPathFallback(table, name string, err error)

	// Both remote paths failed (or the store could not be bound); the read
	// returned unset and nothing was cached.
	RemoteReadError(table, name string, err error)

	// A put was not committed.
	RemoteWriteError(table, name string, err error)

	// The version counter could not be read; the read bypassed the cache.
	VersionReadError(table string, err error)

	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "version_mismatch"}
	EntryDropped(table, name, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(table, name string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Invalidated(string, uint64, uint64)     {}
func (NopHooks) Lookup(string, string, bool)            {}
func (NopHooks) FastPathFallback(string, string, error) {}
func (NopHooks) RemoteReadError(string, string, error)  {}
func (NopHooks) RemoteWriteError(string, string, error) {}
func (NopHooks) VersionReadError(string, error)         {}
func (NopHooks) EntryDropped(string, string, string)    {}
func (NopHooks) ProviderSetRejected(string, string)     {}
