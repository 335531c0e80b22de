// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/nvcache"
//	asynchook "github.com/unkn0wn-root/nvcache/hooks/async"
//	"github.com/unkn0wn-root/nvcache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    LookupEvery: 100, // sample lookups: ~every 100th read
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	system, _ := nvcache.New(nvcache.Options{
//	    Table:    nvcache.NewTable("cmsettings", "system"),
//	    Resolver: store.Static(st),
//	    Versions: genstore.NewRedisGenStore(rdb, "settings"),
//	    Hooks:    hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/nvcache"
)

// Hooks forwards events to inner on background workers. Events are dropped
// when the queue is full or after Close.
type Hooks struct {
	inner nvcache.Hooks
	q     chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ nvcache.Hooks = (*Hooks)(nil)

func New(inner nvcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Safe to call twice.
func (h *Hooks) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.q)
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) Invalidated(t string, from, to uint64) {
	h.try(func() { h.inner.Invalidated(t, from, to) })
}
func (h *Hooks) Lookup(t, n string, hit bool) { h.try(func() { h.inner.Lookup(t, n, hit) }) }
func (h *Hooks) FastPathFallback(t, n string, err error) {
	h.try(func() { h.inner.FastPathFallback(t, n, err) })
}
func (h *Hooks) RemoteReadError(t, n string, err error) {
	h.try(func() { h.inner.RemoteReadError(t, n, err) })
}
func (h *Hooks) RemoteWriteError(t, n string, err error) {
	h.try(func() { h.inner.RemoteWriteError(t, n, err) })
}
func (h *Hooks) VersionReadError(t string, err error) {
	h.try(func() { h.inner.VersionReadError(t, err) })
}
func (h *Hooks) EntryDropped(t, n, r string) { h.try(func() { h.inner.EntryDropped(t, n, r) }) }
func (h *Hooks) ProviderSetRejected(t, n string) {
	h.try(func() { h.inner.ProviderSetRejected(t, n) })
}
