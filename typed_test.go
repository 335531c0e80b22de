package nvcache

import (
	"encoding/base64"
	"errors"
	"reflect"
	"testing"

	"github.com/unkn0wn-root/nvcache/codec"
)

func TestIntAccessors(t *testing.T) {
	e := newEnv(t, "system", nil)
	_ = e.st.Set(e.ctx, "system", 0, "screen_brightness", "128")
	_ = e.st.Set(e.ctx, "system", 0, "bad", "12ab")
	_ = e.st.Set(e.ctx, "system", 0, "huge", "4294967296")

	if v, err := Int(e.ctx, e.c, "screen_brightness"); err != nil || v != 128 {
		t.Fatalf("Int = %d,%v", v, err)
	}

	_, err := Int(e.ctx, e.c, "missing")
	var se *SettingError
	if !errors.As(err, &se) || !errors.Is(err, ErrNotFound) || se.Name != "missing" || se.Table != "system" {
		t.Fatalf("missing: err=%v", err)
	}
	if _, err := Int(e.ctx, e.c, "bad"); !errors.Is(err, ErrNotANumber) {
		t.Fatalf("bad: err=%v", err)
	}
	if _, err := Int(e.ctx, e.c, "huge"); !errors.Is(err, ErrNotANumber) {
		t.Fatalf("int32 overflow: err=%v", err)
	}
	if v, err := Int64(e.ctx, e.c, "huge"); err != nil || v != 4294967296 {
		t.Fatalf("Int64 = %d,%v", v, err)
	}

	if got := IntOr(e.ctx, e.c, "missing", 7); got != 7 {
		t.Fatalf("IntOr missing = %d", got)
	}
	if got := IntOr(e.ctx, e.c, "bad", 7); got != 7 {
		t.Fatalf("IntOr bad = %d", got)
	}
	if got := Int64Or(e.ctx, e.c, "screen_brightness", 7); got != 128 {
		t.Fatalf("Int64Or = %d", got)
	}
}

func TestFloatAndPutAccessors(t *testing.T) {
	e := newEnv(t, "system", nil)

	if !PutFloat32(e.ctx, e.c, "font_scale", 1.15) {
		t.Fatalf("PutFloat32 failed")
	}
	if v, err := Float32(e.ctx, e.c, "font_scale"); err != nil || v != 1.15 {
		t.Fatalf("Float32 = %v,%v", v, err)
	}
	if got := Float32Or(e.ctx, e.c, "missing", 1); got != 1 {
		t.Fatalf("Float32Or = %v", got)
	}

	if !PutInt(e.ctx, e.c, "volume", -3) || !PutInt64(e.ctx, e.c, "uptime", 1<<40) {
		t.Fatalf("Put failed")
	}
	if v, _ := e.c.Get(e.ctx, "volume"); v != "-3" {
		t.Fatalf("volume stored as %q", v)
	}
	if v := Int64Or(e.ctx, e.c, "uptime", 0); v != 1<<40 {
		t.Fatalf("uptime = %d", v)
	}
	if got := StringOr(e.ctx, e.c, "missing", "def"); got != "def" {
		t.Fatalf("StringOr = %q", got)
	}
}

func TestListAccessors(t *testing.T) {
	e := newEnv(t, "secure", nil)

	if got := List(e.ctx, e.c, "qs_tiles", ","); len(got) != 0 {
		t.Fatalf("unset list = %v", got)
	}
	if !PutList(e.ctx, e.c, "qs_tiles", ",", []string{"wifi", "bt", "nfc"}) {
		t.Fatalf("PutList failed")
	}
	if got := List(e.ctx, e.c, "qs_tiles", ","); !reflect.DeepEqual(got, []string{"wifi", "bt", "nfc"}) {
		t.Fatalf("List = %v", got)
	}

	_ = e.st.Set(e.ctx, "secure", 0, "sparse", "|a||b|")
	if got := List(e.ctx, e.c, "sparse", "|"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("List sparse = %v", got)
	}
}

func TestCompositeValues(t *testing.T) {
	type wifiOverride struct {
		SSID     string `json:"ssid"`
		Priority int    `json:"priority"`
	}
	e := newEnv(t, "global", nil)
	c := codec.JSON[wifiOverride]{}

	in := wifiOverride{SSID: "home", Priority: 3}
	ok, err := PutValue(e.ctx, e.c, "wifi_override", c, in)
	if err != nil || !ok {
		t.Fatalf("PutValue = %v,%v", ok, err)
	}
	got, err := Value(e.ctx, e.c, "wifi_override", c)
	if err != nil || got != in {
		t.Fatalf("Value = %+v,%v", got, err)
	}

	if _, err := Value(e.ctx, e.c, "missing", c); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: err=%v", err)
	}
	_ = e.st.Set(e.ctx, "global", 0, "plain", "not base64!")
	_ = e.st.Set(e.ctx, "global", 0, "not_json", base64.StdEncoding.EncodeToString([]byte("{")))
	for _, name := range []string{"plain", "not_json"} {
		_, err := Value(e.ctx, e.c, name, c)
		var se *SettingError
		if !errors.As(err, &se) || !errors.Is(err, ErrMalformedValue) {
			t.Fatalf("%s: err=%v want *SettingError matching ErrMalformedValue", name, err)
		}
		if se.Name != name || se.Table != "global" || se.Err == nil {
			t.Fatalf("%s: SettingError=%+v", name, se)
		}
	}
}
