// Package redis is a Settings Store backed by Redis hashes, one hash per
// (table, scope). Every write also bumps the table's version counter, so
// clients reading through nvcache observe it on their next self read. With a
// genstore.RedisGenStore on the same client the write and the bump commit
// together in one MULTI/EXEC.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/nvcache/genstore"
	"github.com/unkn0wn-root/nvcache/store"
)

var (
	ErrNilClient   = errors.New("redis store: nil client")
	ErrNilVersions = errors.New("redis store: nil versions")
)

type Store struct {
	rdb          goredis.UniversalClient
	authority    string
	versions     genstore.GenStore
	defaultScope int
	closeClient  bool
}

var _ store.Store = (*Store)(nil)

type Config struct {
	Client    goredis.UniversalClient
	Authority string
	// Versions is bumped with every committed write. A genstore.RedisGenStore
	// on the same client makes the write and the bump atomic.
	Versions genstore.GenStore
	// DefaultScope is used by calls without store.ArgScope and by queries.
	DefaultScope int
	CloseClient  bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.Versions == nil {
		return nil, ErrNilVersions
	}
	if cfg.Authority == "" {
		return nil, errors.New("redis store: authority is required")
	}
	return &Store{
		rdb:          cfg.Client,
		authority:    cfg.Authority,
		versions:     cfg.Versions,
		defaultScope: cfg.DefaultScope,
		closeClient:  cfg.CloseClient,
	}, nil
}

func (s *Store) hashKey(table string, scope int) string {
	return "settings:" + s.authority + ":" + table + ":" + strconv.Itoa(scope)
}

func (s *Store) Call(ctx context.Context, method, name string, args store.Args) (store.Reply, error) {
	scope := s.defaultScope
	if sc, ok := args.Scope(); ok {
		scope = sc
	}
	verb, table := store.ParseMethod(method)
	switch verb {
	case store.VerbGet:
		v, ok, err := s.hget(ctx, table, scope, name)
		if err != nil {
			return store.Reply{}, err
		}
		return store.Reply{Value: v, Present: ok}, nil
	case store.VerbPut:
		value, set := args[store.ArgValue]
		return store.Reply{}, s.commit(ctx, table, scope, name, value, set)
	}
	return store.Reply{}, fmt.Errorf("%w: %s", store.ErrUnsupported, method)
}

func (s *Store) Query(ctx context.Context, uri string, columns []string, selection string, selectionArgs []string) (store.Cursor, error) {
	authority, table, ok := store.ParseURI(uri)
	if !ok || authority != s.authority {
		return nil, fmt.Errorf("redis store: unknown uri %q", uri)
	}
	if selection != store.SelectionByName || len(selectionArgs) != 1 {
		return nil, fmt.Errorf("redis store: unsupported selection %q", selection)
	}
	name := selectionArgs[0]
	v, found, err := s.hget(ctx, table, s.defaultScope, name)
	if err != nil {
		return nil, err
	}
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
			return nil, fmt.Errorf("redis store: unknown column %q", c)
		}
	}
	return store.Rows(row), nil
}

func (s *Store) hget(ctx context.Context, table string, scope int, name string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, s.hashKey(table, scope), name).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return v, true, nil
}

// commit applies the write and bumps the table's counter. When the counter
// lives on this store's client (a genstore.RedisGenStore sharing it, outside
// Cluster) both run in one MULTI/EXEC. Otherwise the write lands first and
// the bump follows; a failed bump leaves the write visible to uncached
// readers while cached readers keep the old value until the next bump, and
// the error is returned so the put reports failure.
func (s *Store) commit(ctx context.Context, table string, scope int, name, value string, set bool) error {
	k := s.hashKey(table, scope)
	vk := store.VersionKey(s.authority, table)
	write := func(c goredis.Cmdable) error {
		if set {
			return c.HSet(ctx, k, name, value).Err()
		}
		return c.HDel(ctx, k, name).Err()
	}

	if counter, ok := s.sharedCounter(vk); ok {
		_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			if err := write(p); err != nil {
				return err
			}
			return p.Incr(ctx, counter).Err()
		})
		if err != nil {
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		return nil
	}

	if err := write(s.rdb); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if _, err := s.versions.Bump(ctx, vk); err != nil {
		return fmt.Errorf("redis store: version bump: %w", err)
	}
	return nil
}

// sharedCounter returns the Redis key of the counter for vk when it can be
// bumped in the same transaction as a write on s.rdb.
func (s *Store) sharedCounter(vk string) (string, bool) {
	g, ok := s.versions.(*genstore.RedisGenStore)
	if !ok || g.Client() != s.rdb {
		return "", false
	}
	// keys of one transaction must share a slot on Cluster
	if _, cluster := s.rdb.(*goredis.ClusterClient); cluster {
		return "", false
	}
	return g.Key(vk), true
}

// Close releases the underlying redis client only when this store owns it.
func (s *Store) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
