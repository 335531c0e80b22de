package nvcache

import (
	"strings"

	"github.com/unkn0wn-root/nvcache/store"
)

// Table identifies one partition of a Settings Store: where to query it, which
// Call methods read and write it, and which counter tracks its version.
type Table struct {
	Name       string
	URI        string
	GetMethod  string
	PutMethod  string
	VersionKey string
}

// NewTable derives the conventional addresses of table name under authority.
func NewTable(authority, name string) Table {
	return Table{
		Name:       name,
		URI:        store.URI(authority, name),
		GetMethod:  store.GetMethod(name),
		PutMethod:  store.PutMethod(name),
		VersionKey: store.VersionKey(authority, name),
	}
}

// Authority is the host part of the table URI; empty if URI is malformed.
func (t Table) Authority() string {
	a, _, ok := store.ParseURI(t.URI)
	if !ok {
		return ""
	}
	return a
}

// URIFor is the address of a single setting in the table.
func (t Table) URIFor(name string) string {
	return strings.TrimSuffix(t.URI, "/") + "/" + name
}

func (t Table) validate() error {
	switch {
	case t.Name == "":
		return errMissing("table name")
	case t.Authority() == "":
		return errMissing("table uri")
	case t.GetMethod == "":
		return errMissing("table get method")
	case t.PutMethod == "":
		return errMissing("table put method")
	case t.VersionKey == "":
		return errMissing("table version key")
	}
	return nil
}
