package util

import "strconv"

// EntryKey is the provider key of a cached setting.
func EntryKey(name string) string { return "entry:" + name }

// FlightKey coalesces concurrent misses of the same name at the same version.
func FlightKey(name string, version uint64) string {
	return name + "\x00" + strconv.FormatUint(version, 10)
}

// EntryPrefix scopes a shared provider keyspace to one table view.
func EntryPrefix(authority, table string, scope int) string {
	return "nv:" + authority + ":" + table + ":" + strconv.Itoa(scope) + ":"
}
