package nvcache

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/nvcache/codec"
)

// Typed accessors. The plain form returns a *SettingError when the name is
// unset or does not parse; the Or form returns def instead and never fails.

func Int(ctx context.Context, a Accessor, name string) (int32, error) {
	return parsed(ctx, a, name, func(s string) (int32, error) {
		n, err := strconv.ParseInt(s, 10, 32)
		return int32(n), err
	})
}

func IntOr(ctx context.Context, a Accessor, name string, def int32) int32 {
	if v, err := Int(ctx, a, name); err == nil {
		return v
	}
	return def
}

func Int64(ctx context.Context, a Accessor, name string) (int64, error) {
	return parsed(ctx, a, name, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

func Int64Or(ctx context.Context, a Accessor, name string, def int64) int64 {
	if v, err := Int64(ctx, a, name); err == nil {
		return v
	}
	return def
}

func Float32(ctx context.Context, a Accessor, name string) (float32, error) {
	return parsed(ctx, a, name, func(s string) (float32, error) {
		f, err := strconv.ParseFloat(s, 32)
		return float32(f), err
	})
}

func Float32Or(ctx context.Context, a Accessor, name string, def float32) float32 {
	if v, err := Float32(ctx, a, name); err == nil {
		return v
	}
	return def
}

// StringOr returns def when name is unset.
func StringOr(ctx context.Context, a Accessor, name, def string) string {
	if v, ok := a.Get(ctx, name); ok {
		return v
	}
	return def
}

func PutInt(ctx context.Context, a Accessor, name string, v int32) bool {
	return a.Put(ctx, name, strconv.FormatInt(int64(v), 10))
}

func PutInt64(ctx context.Context, a Accessor, name string, v int64) bool {
	return a.Put(ctx, name, strconv.FormatInt(v, 10))
}

func PutFloat32(ctx context.Context, a Accessor, name string, v float32) bool {
	return a.Put(ctx, name, strconv.FormatFloat(float64(v), 'g', -1, 32))
}

// List splits the value of name on delim, dropping empty items. An unset name
// is an empty list.
func List(ctx context.Context, a Accessor, name, delim string) []string {
	v, _ := a.Get(ctx, name)
	return splitList(v, delim)
}

// PutList joins list with delim and stores it under name.
func PutList(ctx context.Context, a Accessor, name, delim string, list []string) bool {
	return a.Put(ctx, name, strings.Join(list, delim))
}

// Value decodes a composite setting written by PutValue.
func Value[V any](ctx context.Context, a Accessor, name string, c codec.Codec[V]) (V, error) {
	var zero V
	s, ok := a.Get(ctx, name)
	if !ok {
		return zero, &SettingError{Table: a.Table().Name, Name: name, Kind: ErrNotFound}
	}
	malformed := func(err error) error {
		return &SettingError{Table: a.Table().Name, Name: name, Value: s, Kind: ErrMalformedValue, Err: err}
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return zero, malformed(err)
	}
	v, err := c.Decode(b)
	if err != nil {
		return zero, malformed(err)
	}
	return v, nil
}

// PutValue encodes v with c and stores it base64-encoded under name.
func PutValue[V any](ctx context.Context, a Accessor, name string, c codec.Codec[V], v V) (bool, error) {
	b, err := c.Encode(v)
	if err != nil {
		return false, err
	}
	return a.Put(ctx, name, base64.StdEncoding.EncodeToString(b)), nil
}

func parsed[T any](ctx context.Context, a Accessor, name string, parse func(string) (T, error)) (T, error) {
	var zero T
	s, ok := a.Get(ctx, name)
	if !ok {
		return zero, &SettingError{Table: a.Table().Name, Name: name, Kind: ErrNotFound}
	}
	v, err := parse(s)
	if err != nil {
		return zero, &SettingError{Table: a.Table().Name, Name: name, Value: s, Kind: ErrNotANumber, Err: err}
	}
	return v, nil
}

func splitList(s, delim string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, delim)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
