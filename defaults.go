package nvcache

import "github.com/unkn0wn-root/nvcache/provider/memory"

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// withDefaults fills the Options a cache can run without: a silent logger,
// no-op hooks and an in-process entry map.
func (o Options) withDefaults() Options {
	o.Logger = coalesce[Logger](o.Logger, NopLogger{})
	o.Hooks = coalesce[Hooks](o.Hooks, NopHooks{})
	if o.Entries == nil {
		o.Entries = memory.New()
	}
	return o
}
