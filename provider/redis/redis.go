package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/nvcache/internal/util"
	pr "github.com/unkn0wn-root/nvcache/provider"
)

var (
	ErrNilClient   = errors.New("redis provider: nil client")
	ErrEmptyPrefix = errors.New("redis provider: empty prefix")
)

// Redis keeps entries in Redis under a fixed key prefix so that several
// processes reading the same table scope can share fetched values. Every
// entry carries the table version it was fetched under, so sharing is safe
// across processes that observe the counter at different times.
type Redis struct {
	rdb         goredis.UniversalClient
	prefix      string
	scanCount   int64
	closeClient bool
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client goredis.UniversalClient
	// Prefix is prepended to every key and bounds what Clear deletes.
	// Empty = TablePrefix(Authority, Table, Scope).
	Prefix string
	// Authority, Table and Scope name the table view this provider caches.
	// Used only to derive the default Prefix.
	Authority string
	Table     string
	Scope     int
	// ScanCount is the COUNT hint for Clear's SCAN; 0 = 512.
	ScanCount   int64
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	prefix := cfg.Prefix
	if prefix == "" {
		if cfg.Authority == "" || cfg.Table == "" {
			return nil, ErrEmptyPrefix
		}
		prefix = TablePrefix(cfg.Authority, cfg.Table, cfg.Scope)
	}
	sc := cfg.ScanCount
	if sc <= 0 {
		sc = 512
	}
	return &Redis{rdb: cfg.Client, prefix: prefix, scanCount: sc, closeClient: cfg.CloseClient}, nil
}

// TablePrefix is the key prefix for one table view, so Clear on one table's
// version move leaves other tables and scopes on a shared Redis intact.
func TablePrefix(authority, table string, scope int) string {
	return util.EntryPrefix(authority, table, scope)
}

func (p *Redis) key(k string) string { return p.prefix + k }

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, p.key(key)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 0 // no expiry
	}
	if err := p.rdb.Set(ctx, p.key(key), value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, p.key(key)).Err()
}

// Clear unlinks every key under the prefix. It walks the keyspace with SCAN,
// so keys written concurrently may survive; those carry a newer table version
// and are validated on read anyway.
func (p *Redis) Clear(ctx context.Context) error {
	iter := p.rdb.Scan(ctx, 0, p.prefix+"*", p.scanCount).Iterator()
	batch := make([]string, 0, p.scanCount)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= p.scanCount {
			if err := p.rdb.Unlink(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return p.rdb.Unlink(ctx, batch...).Err()
	}
	return nil
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
