package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/nvcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	LookupEvery     uint64
	EntryDropEvery  uint64
	InvalidateEvery uint64
	// Optional setting name redactor. Defaults to identity.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	lookupCtr     atomic.Uint64
	entryDropCtr  atomic.Uint64
	invalidateCtr atomic.Uint64
}

var _ nvcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(name string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(name)
	}
	return name
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Invalidated(table string, from, to uint64) {
	if h.l == nil || !sample(h.opts.InvalidateEvery, &h.invalidateCtr) {
		return
	}
	h.l.Debug("nvcache.invalidated",
		"table", table,
		"from", from,
		"to", to)
}

func (h *Hooks) Lookup(table, name string, hit bool) {
	if h.l == nil || !sample(h.opts.LookupEvery, &h.lookupCtr) {
		return
	}
	h.l.Debug("nvcache.lookup",
		"table", table,
		"name", h.redact(name),
		"hit", hit)
}

func (h *Hooks) FastPathFallback(table, name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("nvcache.fast_path_fallback",
		"table", table,
		"name", h.redact(name),
		"err", err)
}

func (h *Hooks) RemoteReadError(table, name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("nvcache.remote_read_error",
		"table", table,
		"name", h.redact(name),
		"err", err)
}

func (h *Hooks) RemoteWriteError(table, name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("nvcache.remote_write_error",
		"table", table,
		"name", h.redact(name),
		"err", err)
}

func (h *Hooks) VersionReadError(table string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("nvcache.version_read_error",
		"table", table,
		"err", err)
}

func (h *Hooks) EntryDropped(table, name, reason string) {
	if h.l == nil || !sample(h.opts.EntryDropEvery, &h.entryDropCtr) {
		return
	}
	h.l.Debug("nvcache.entry_dropped",
		"table", table,
		"name", h.redact(name),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(table, name string) {
	if h.l == nil {
		return
	}
	h.l.Warn("nvcache.provider_set_rejected",
		"table", table,
		"name", h.redact(name))
}
