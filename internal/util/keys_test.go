package util

import "testing"

func TestKeys(t *testing.T) {
	if got := EntryKey("screen_brightness"); got != "entry:screen_brightness" {
		t.Fatalf("EntryKey=%q", got)
	}
	if FlightKey("a", 1) == FlightKey("a", 2) {
		t.Fatalf("flight keys must differ across versions")
	}
	if FlightKey("a1", 0) == FlightKey("a", 10) {
		t.Fatalf("flight keys must not collide across name/version split")
	}
	if got := EntryPrefix("cmsettings", "secure", 10); got != "nv:cmsettings:secure:10:" {
		t.Fatalf("EntryPrefix=%q", got)
	}
}
