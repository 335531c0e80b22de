package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"testing"

	"github.com/unkn0wn-root/nvcache"
)

func TestSlogLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("dropped below level", nvcache.Fields{"x": 1})
	if buf.Len() != 0 {
		t.Fatalf("debug entry written at info level: %s", buf.String())
	}

	l.Warn("version read failed; bypassing cache", nvcache.Fields{"table": "system", "name": "x"})
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("bad json %q: %v", buf.String(), err)
	}
	if rec["level"] != "WARN" || rec["msg"] != "version read failed; bypassing cache" {
		t.Fatalf("record=%v", rec)
	}
	grp, _ := rec["nvcache"].(map[string]any)
	if grp["table"] != "system" || grp["name"] != "x" {
		t.Fatalf("group=%v", rec["nvcache"])
	}
}
