package nvcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/nvcache/genstore"
	"github.com/unkn0wn-root/nvcache/internal/util"
	"github.com/unkn0wn-root/nvcache/internal/wire"
	"github.com/unkn0wn-root/nvcache/provider"
	"github.com/unkn0wn-root/nvcache/store"
)

type cache struct {
	table      Table
	self       Scope
	resolver   store.Resolver
	versions   genstore.GenStore
	entries    provider.Provider
	entryTTL   time.Duration
	log        Logger
	hooks      Hooks
	enabled    bool
	validators map[string]Validator
	moved      map[string]Cache

	// mu guards the entry map contents, localVersion and st.
	mu           sync.Mutex
	localVersion uint64
	st           store.Store // nil until bound

	flight singleflight.Group
}

type fetched struct {
	value   string
	present bool
}

func newCache(opts Options) (*cache, error) {
	if err := opts.Table.validate(); err != nil {
		return nil, err
	}
	if opts.Resolver == nil {
		return nil, errMissing("resolver")
	}
	if opts.Versions == nil {
		return nil, errMissing("versions")
	}
	opts = opts.withDefaults()
	for name := range opts.Moved {
		if opts.Moved[name] == nil {
			return nil, fmt.Errorf("nvcache: moved target for %q is nil", name)
		}
	}

	c := &cache{
		table:      opts.Table,
		self:       opts.Self,
		resolver:   opts.Resolver,
		versions:   opts.Versions,
		entries:    opts.Entries,
		entryTTL:   opts.EntryTTL,
		log:        opts.Logger,
		hooks:      opts.Hooks,
		enabled:    !opts.Disabled,
		validators: opts.Validators,
		moved:      opts.Moved,
	}
	return c, nil
}

func (c *cache) Table() Table  { return c.table }
func (c *cache) Enabled() bool { return c.enabled }

func (c *cache) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localVersion
}

// Close releases the entry provider. Versions and the bound store are shared
// with other tables and are left to their owner.
func (c *cache) Close(ctx context.Context) error {
	return c.entries.Close(ctx)
}

func (c *cache) Get(ctx context.Context, name string) (string, bool) {
	return c.GetForScope(ctx, name, c.self)
}

func (c *cache) Put(ctx context.Context, name, value string) bool {
	return c.PutForScope(ctx, name, value, c.self)
}

func (c *cache) ForScope(scope Scope) Accessor { return scoped{c: c, scope: scope} }

type scoped struct {
	c     *cache
	scope Scope
}

func (s scoped) Get(ctx context.Context, name string) (string, bool) {
	return s.c.GetForScope(ctx, name, s.scope)
}

func (s scoped) Put(ctx context.Context, name, value string) bool {
	return s.c.PutForScope(ctx, name, value, s.scope)
}

func (s scoped) Table() Table { return s.c.table }

func (c *cache) GetForScope(ctx context.Context, name string, scope Scope) (string, bool) {
	if m, ok := c.moved[name]; ok {
		c.log.Warn("setting has moved; reading from its new table",
			Fields{"table": c.table.Name, "name": name, "to": m.Table().Name})
		return m.GetForScope(ctx, name, scope)
	}

	if scope != c.self || !c.enabled {
		v, ok, _ := c.fetch(ctx, name, scope)
		return v, ok
	}

	ver, err := c.versions.Snapshot(ctx, c.table.VersionKey)
	if err != nil {
		c.hooks.VersionReadError(c.table.Name, err)
		c.log.Warn("version read failed; bypassing cache",
			Fields{"table": c.table.Name, "name": name, "err": err})
		v, ok, _ := c.fetch(ctx, name, scope)
		return v, ok
	}

	c.mu.Lock()
	c.syncVersionLocked(ctx, ver)
	e, hit := c.lookupLocked(ctx, name)
	c.mu.Unlock()
	if hit {
		c.hooks.Lookup(c.table.Name, name, true)
		return e.Value, e.Present
	}

	res, _, _ := c.flight.Do(util.FlightKey(name, ver), func() (any, error) {
		v, ok, err := c.fetch(ctx, name, scope)
		if err != nil {
			return fetched{}, nil // remote failure: report unset, cache nothing
		}
		c.commit(ctx, name, ver, v, ok)
		return fetched{value: v, present: ok}, nil
	})
	c.hooks.Lookup(c.table.Name, name, false)
	f := res.(fetched)
	return f.value, f.present
}

// syncVersionLocked drops every entry when the table version has moved.
func (c *cache) syncVersionLocked(ctx context.Context, ver uint64) {
	if ver == c.localVersion {
		return
	}
	from := c.localVersion
	if err := c.entries.Clear(ctx); err != nil {
		// entries carry their version, so stale ones are still rejected on read
		c.log.Warn("entry clear failed", Fields{"table": c.table.Name, "err": err})
	}
	c.localVersion = ver
	c.hooks.Invalidated(c.table.Name, from, ver)
	c.log.Debug("table version moved; cache cleared",
		Fields{"table": c.table.Name, "from": from, "to": ver})
}

func (c *cache) lookupLocked(ctx context.Context, name string) (wire.Entry, bool) {
	k := util.EntryKey(name)
	raw, ok, err := c.entries.Get(ctx, k)
	if err != nil {
		c.log.Warn("entry read failed", Fields{"table": c.table.Name, "name": name, "err": err})
		return wire.Entry{}, false
	}
	if !ok {
		return wire.Entry{}, false
	}
	e, err := wire.Decode(raw)
	if err != nil {
		_ = c.entries.Del(ctx, k)
		c.hooks.EntryDropped(c.table.Name, name, "corrupt")
		return wire.Entry{}, false
	}
	if e.Version != c.localVersion {
		_ = c.entries.Del(ctx, k)
		c.hooks.EntryDropped(c.table.Name, name, "version_mismatch")
		return wire.Entry{}, false
	}
	return e, true
}

// commit stores a fetched value, absent values included, unless the table
// version moved after ver was sampled.
func (c *cache) commit(ctx context.Context, name string, ver uint64, value string, present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.localVersion != ver {
		c.log.Debug("fetch raced a version change; not cached",
			Fields{"table": c.table.Name, "name": name, "sampled": ver, "current": c.localVersion})
		return
	}
	b := wire.Encode(wire.Entry{Version: ver, Present: present, Value: value})
	k := util.EntryKey(name)
	ok, err := c.entries.Set(ctx, k, b, int64(len(b)), c.entryTTL)
	if err != nil {
		c.log.Warn("entry write failed", Fields{"table": c.table.Name, "name": name, "err": err})
		return
	}
	if !ok {
		c.hooks.ProviderSetRejected(c.table.Name, name)
	}
}

// bind returns the store handle, resolving it on first use. A failed resolve
// is retried by the next caller.
func (c *cache) bind(ctx context.Context) (store.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st != nil {
		return c.st, nil
	}
	authority := c.table.Authority()
	st, err := c.resolver.Resolve(ctx, authority)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", store.ErrUnavailable, authority, err)
	}
	if st == nil {
		return nil, fmt.Errorf("%w: no store for %s", store.ErrUnavailable, authority)
	}
	c.st = st
	c.log.Debug("store bound", Fields{"table": c.table.Name, "authority": authority})
	return st, nil
}

// fetch reads name from the store: the keyed call first, a query if that
// fails. A non-nil error means neither path produced an answer.
func (c *cache) fetch(ctx context.Context, name string, scope Scope) (string, bool, error) {
	st, err := c.bind(ctx)
	if err != nil {
		c.readFailed(name, err)
		return "", false, err
	}

	var args store.Args
	if scope != c.self {
		args = store.Args{store.ArgScope: scope.String()}
	}
	r, err := st.Call(ctx, c.table.GetMethod, name, args)
	if err == nil {
		return r.Value, r.Present, nil
	}
	if errors.Is(err, store.ErrUnsupported) {
		c.log.Debug("fast path unsupported; querying",
			Fields{"table": c.table.Name, "name": name})
	} else {
		c.hooks.FastPathFallback(c.table.Name, name, err)
		c.log.Warn("fast path failed; querying",
			Fields{"table": c.table.Name, "name": name, "err": err})
	}

	v, ok, err := c.query(ctx, st, name)
	if err != nil {
		c.readFailed(name, err)
		return "", false, err
	}
	return v, ok, nil
}

func (c *cache) query(ctx context.Context, st store.Store, name string) (string, bool, error) {
	cur, err := st.Query(ctx, c.table.URI, []string{store.ColumnValue}, store.SelectionByName, []string{name})
	if err != nil {
		return "", false, err
	}
	if cur == nil {
		return "", false, fmt.Errorf("%w: query returned no cursor", store.ErrUnavailable)
	}
	defer cur.Close()

	if !cur.Next() {
		if err := cur.Err(); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	v, ok := cur.String(store.ColumnValue)
	return v, ok, nil
}

func (c *cache) readFailed(name string, err error) {
	c.hooks.RemoteReadError(c.table.Name, name, err)
	c.log.Warn("can't get setting", Fields{"table": c.table.Name, "name": name, "err": err})
}

func (c *cache) PutForScope(ctx context.Context, name, value string, scope Scope) bool {
	if m, ok := c.moved[name]; ok {
		c.log.Warn("setting has moved; refusing write",
			Fields{"table": c.table.Name, "name": name, "to": m.Table().Name})
		return false
	}
	if v, ok := c.validators[name]; ok {
		if err := v.Validate(value); err != nil {
			c.log.Warn("rejected invalid value", Fields{"table": c.table.Name, "name": name, "err": err})
			return false
		}
	}

	st, err := c.bind(ctx)
	if err == nil {
		args := store.Args{store.ArgValue: value, store.ArgScope: scope.String()}
		_, err = st.Call(ctx, c.table.PutMethod, name, args)
	}
	if err != nil {
		c.hooks.RemoteWriteError(c.table.Name, name, err)
		c.log.Warn("can't set setting", Fields{"table": c.table.Name, "name": name, "err": err})
		return false
	}
	return true
}
