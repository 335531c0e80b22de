// Package memory is the default Provider: an in-process ttlcache holding the
// framed entries of one table view.
package memory

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	pr "github.com/unkn0wn-root/nvcache/provider"
)

// Memory never evicts on size. Entries leave on Del, Clear or, when set with
// a ttl, once it elapses; reads don't extend it.
type Memory struct {
	c *ttlcache.Cache[string, []byte]
}

var _ pr.Provider = (*Memory)(nil)

func New() *Memory {
	return &Memory{c: ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)}
}

func (p *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	it := p.c.Get(key)
	if it == nil || it.IsExpired() {
		return nil, false, nil
	}
	return it.Value(), true, nil
}

func (p *Memory) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	p.c.Set(key, value, ttl)
	return true, nil
}

func (p *Memory) Del(_ context.Context, key string) error {
	p.c.Delete(key)
	return nil
}

func (p *Memory) Clear(context.Context) error {
	p.c.DeleteAll()
	return nil
}

// Len reports the number of held entries.
func (p *Memory) Len() int { return p.c.Len() }

func (p *Memory) Close(context.Context) error {
	p.c.DeleteAll()
	return nil
}
