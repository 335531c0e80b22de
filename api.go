package nvcache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	gen "github.com/unkn0wn-root/nvcache/genstore"
	pr "github.com/unkn0wn-root/nvcache/provider"
	"github.com/unkn0wn-root/nvcache/store"
)

// Scope identifies whose view of a table a read or write targets (a user,
// a tenant, a profile). Only the cache's own scope is cached.
type Scope int

func (s Scope) String() string { return strconv.Itoa(int(s)) }

// Accessor reads and writes one table in one scope.
type Accessor interface {
	// Get returns the value of name; ok=false when it is unset or the store
	// could not be read. Remote failures are logged, never returned.
	Get(ctx context.Context, name string) (value string, ok bool)
	// Put writes through to the store. It reports whether the store accepted
	// the write and never touches the local cache.
	Put(ctx context.Context, name, value string) bool
	Table() Table
}

// Cache is the client side of one table. Get and Put act on the Self scope.
type Cache interface {
	Accessor

	GetForScope(ctx context.Context, name string, scope Scope) (string, bool)
	PutForScope(ctx context.Context, name, value string, scope Scope) bool

	// ForScope returns an Accessor bound to scope. Reads through it are only
	// cached when scope is Self.
	ForScope(scope Scope) Accessor

	// Version is the table version the cached entries belong to.
	Version() uint64
	Enabled() bool
	Close(context.Context) error
}

// Options configure one table client.
// Table, Resolver and Versions are required; others have sensible defaults.
type Options struct {
	// Required
	Table    Table
	Resolver store.Resolver // binds the store handle on first remote access
	Versions gen.GenStore   // where the store publishes table versions

	Self     Scope         // the caller's own scope; default 0
	Entries  pr.Provider   // nil => in-memory map
	EntryTTL time.Duration // 0 => entries live until the next version change
	Logger   Logger        // if nil, NopLogger is used
	Hooks    Hooks         // if nil, NopHooks is used
	Disabled bool          // default false; true sends every read to the store

	// Validators are checked by Put, keyed by setting name.
	Validators map[string]Validator
	// Moved names live in another table now. Reads are redirected there;
	// writes are refused.
	Moved map[string]Cache
}

func New(opts Options) (Cache, error) {
	return newCache(opts)
}

func errMissing(what string) error { return fmt.Errorf("nvcache: %s is required", what) }
