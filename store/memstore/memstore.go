// Package memstore is an in-process Settings Store. It keeps tables in maps,
// bumps the table version after each committed write and can be told to fail
// or to drop fast-path support, which makes it the usual backend in tests.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/nvcache/genstore"
	"github.com/unkn0wn-root/nvcache/store"
)

// Store serves every table under one authority. Tables are created on first
// write.
type Store struct {
	authority    string
	versions     genstore.GenStore
	defaultScope int

	mu     sync.RWMutex
	tables map[string]map[int]map[string]string // table -> scope -> name -> value

	fastPath atomic.Bool
	callErr  atomic.Pointer[error]
	queryErr atomic.Pointer[error]
	calls    atomic.Int64
	queries  atomic.Int64
	callGets atomic.Int64
	callPuts atomic.Int64
}

var _ store.Store = (*Store)(nil)

type Config struct {
	Authority string
	// Versions receives a Bump of store.VersionKey(Authority, table) after
	// every committed write.
	Versions genstore.GenStore
	// DefaultScope is the scope of calls without store.ArgScope and of queries.
	DefaultScope int
}

func New(cfg Config) (*Store, error) {
	if cfg.Authority == "" {
		return nil, fmt.Errorf("memstore: authority is required")
	}
	if cfg.Versions == nil {
		return nil, fmt.Errorf("memstore: versions is required")
	}
	s := &Store{
		authority:    cfg.Authority,
		versions:     cfg.Versions,
		defaultScope: cfg.DefaultScope,
		tables:       make(map[string]map[int]map[string]string),
	}
	s.fastPath.Store(true)
	return s, nil
}

// SetFastPath enables or disables Call handling for GET methods. Disabled,
// GET calls return store.ErrUnsupported.
func (s *Store) SetFastPath(on bool) { s.fastPath.Store(on) }

// FailCalls makes every Call return err; nil restores normal behavior.
func (s *Store) FailCalls(err error) { s.callErr.Store(errPtr(err)) }

// FailQueries makes every Query return err; nil restores normal behavior.
func (s *Store) FailQueries(err error) { s.queryErr.Store(errPtr(err)) }

func errPtr(err error) *error {
	if err == nil {
		return nil
	}
	return &err
}

// Stats counts remote operations received so far.
type Stats struct {
	Calls   int64 // all Calls, failed ones included
	Gets    int64 // GET Calls that were served
	Puts    int64 // PUT Calls that committed
	Queries int64
}

func (s *Store) Stats() Stats {
	return Stats{
		Calls:   s.calls.Load(),
		Gets:    s.callGets.Load(),
		Puts:    s.callPuts.Load(),
		Queries: s.queries.Load(),
	}
}

// Reads counts lookups: every Call that did not commit a put, plus queries.
func (s Stats) Reads() int64 { return s.Calls - s.Puts + s.Queries }

func (s *Store) Call(ctx context.Context, method, name string, args store.Args) (store.Reply, error) {
	s.calls.Add(1)
	if p := s.callErr.Load(); p != nil {
		return store.Reply{}, *p
	}
	scope := s.defaultScope
	if sc, ok := args.Scope(); ok {
		scope = sc
	}

	verb, table := store.ParseMethod(method)
	switch verb {
	case store.VerbGet:
		if !s.fastPath.Load() {
			return store.Reply{}, fmt.Errorf("%w: %s", store.ErrUnsupported, method)
		}
		s.callGets.Add(1)
		v, ok := s.lookup(table, scope, name)
		return store.Reply{Value: v, Present: ok}, nil
	case store.VerbPut:
		value, set := args[store.ArgValue]
		if err := s.commit(ctx, table, scope, name, value, set); err != nil {
			return store.Reply{}, err
		}
		s.callPuts.Add(1)
		return store.Reply{}, nil
	}
	return store.Reply{}, fmt.Errorf("%w: %s", store.ErrUnsupported, method)
}

func (s *Store) Query(_ context.Context, uri string, columns []string, selection string, selectionArgs []string) (store.Cursor, error) {
	s.queries.Add(1)
	if p := s.queryErr.Load(); p != nil {
		return nil, *p
	}
	authority, table, ok := store.ParseURI(uri)
	if !ok || authority != s.authority {
		return nil, fmt.Errorf("memstore: unknown uri %q", uri)
	}
	if selection != store.SelectionByName || len(selectionArgs) != 1 {
		return nil, fmt.Errorf("memstore: unsupported selection %q", selection)
	}
	name := selectionArgs[0]
	v, found := s.lookup(table, s.defaultScope, name)
	if !found {
		return store.Rows(), nil
	}

	row := make(store.Row, len(columns))
	for _, c := range columns {
		switch c {
		case store.ColumnName:
			row[c] = name
		case store.ColumnValue:
			row[c] = v
		default:
			return nil, fmt.Errorf("memstore: unknown column %q", c)
		}
	}
	return store.Rows(row), nil
}

// Set writes directly, as another process would, and bumps the version.
func (s *Store) Set(ctx context.Context, table string, scope int, name, value string) error {
	return s.commit(ctx, table, scope, name, value, true)
}

// Delete removes a name and bumps the version.
func (s *Store) Delete(ctx context.Context, table string, scope int, name string) error {
	return s.commit(ctx, table, scope, name, "", false)
}

func (s *Store) lookup(table string, scope int, name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.tables[table][scope][name]
	return v, ok
}

// commit applies the write, then bumps the counter, so a reader that sees the
// new version also sees the write.
func (s *Store) commit(ctx context.Context, table string, scope int, name, value string, set bool) error {
	s.mu.Lock()
	t := s.tables[table]
	if t == nil {
		t = make(map[int]map[string]string)
		s.tables[table] = t
	}
	m := t[scope]
	if m == nil {
		m = make(map[string]string)
		t[scope] = m
	}
	if set {
		m[name] = value
	} else {
		delete(m, name)
	}
	s.mu.Unlock()

	if _, err := s.versions.Bump(ctx, store.VersionKey(s.authority, table)); err != nil {
		return fmt.Errorf("memstore: version bump: %w", err)
	}
	return nil
}
