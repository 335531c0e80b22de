package ristretto

import (
	"context"
	"testing"
)

func newProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for zero config")
	}
}

func TestSetIsVisibleAndClearDrops(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)

	if ok, err := p.Set(ctx, "entry:x", []byte("v"), 1, 0); !ok || err != nil {
		t.Fatalf("Set ok=%v err=%v", ok, err)
	}
	b, ok, err := p.Get(ctx, "entry:x")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("Get = %q,%v,%v", b, ok, err)
	}

	if err := p.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := p.Get(ctx, "entry:x"); ok {
		t.Fatalf("hit after Clear")
	}
}

func TestUnexpectedShapeSelfHeals(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	p.c.Set("entry:x", "not bytes", 1)
	p.c.Wait()
	if _, ok, _ := p.Get(ctx, "entry:x"); ok {
		t.Fatalf("non-[]byte value served")
	}
}
