// Package store defines the Settings Store contract nvcache reads through.
//
// A Settings Store owns one or more tables under an authority. It answers a
// keyed fast-path Call and a row-oriented Query, and after every committed
// write to a table it bumps that table's version counter (see genstore).
// nvcache never writes the counter itself.
package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrUnsupported is returned by Call when the store has no handler for the
	// method. Callers fall back to Query.
	ErrUnsupported = errors.New("store: method not supported")
	// ErrUnavailable reports that the store could not be reached or resolved.
	ErrUnavailable = errors.New("store: unavailable")
)

const (
	// ArgValue carries the value of a put.
	ArgValue = "value"
	// ArgScope carries the target scope when it is not the caller's own.
	ArgScope = "_user"

	ColumnName  = "name"
	ColumnValue = "value"

	// SelectionByName is the only selection Query implementations must support.
	SelectionByName = "name=?"

	getPrefix = "GET_"
	putPrefix = "PUT_"
	scheme    = "content://"
)

// Args are the string arguments of a Call.
type Args map[string]string

// Scope returns the ArgScope argument, if set and numeric.
func (a Args) Scope() (int, bool) {
	s, ok := a[ArgScope]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Reply is the result of a Call. Present=false means the name is unset.
type Reply struct {
	Value   string
	Present bool
}

// Cursor iterates the rows of a Query.
type Cursor interface {
	Next() bool
	// String returns the column of the current row; ok=false for NULL or an
	// unknown column.
	String(column string) (string, bool)
	Err() error
	Close() error
}

type Store interface {
	Call(ctx context.Context, method, name string, args Args) (Reply, error)
	Query(ctx context.Context, uri string, columns []string, selection string, selectionArgs []string) (Cursor, error)
}

// Resolver binds the store handle for an authority.
type Resolver interface {
	Resolve(ctx context.Context, authority string) (Store, error)
}

type ResolverFunc func(ctx context.Context, authority string) (Store, error)

func (f ResolverFunc) Resolve(ctx context.Context, authority string) (Store, error) {
	return f(ctx, authority)
}

// Static resolves every authority to s.
func Static(s Store) Resolver {
	return ResolverFunc(func(context.Context, string) (Store, error) { return s, nil })
}

func GetMethod(table string) string { return getPrefix + table }
func PutMethod(table string) string { return putPrefix + table }

// URI is the address of a table: content://<authority>/<table>.
func URI(authority, table string) string { return scheme + authority + "/" + table }

// VersionKey names the version counter of a table.
func VersionKey(authority, table string) string {
	return "sys." + authority + "_" + table + "_version"
}

// Verb is the operation a Call method names.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbGet
	VerbPut
)

// ParseMethod splits a Call method into its verb and table.
func ParseMethod(method string) (Verb, string) {
	switch {
	case strings.HasPrefix(method, getPrefix) && len(method) > len(getPrefix):
		return VerbGet, method[len(getPrefix):]
	case strings.HasPrefix(method, putPrefix) && len(method) > len(putPrefix):
		return VerbPut, method[len(putPrefix):]
	}
	return VerbUnknown, ""
}

// ParseURI splits a table address into authority and table. Trailing path
// segments (as produced for a single name) are ignored.
func ParseURI(uri string) (authority, table string, ok bool) {
	rest, found := strings.CutPrefix(uri, scheme)
	if !found {
		return "", "", false
	}
	authority, rest, found = strings.Cut(rest, "/")
	if !found || authority == "" {
		return "", "", false
	}
	table, _, _ = strings.Cut(rest, "/")
	if table == "" {
		return "", "", false
	}
	return authority, table, true
}

// Row is one Query result row. A missing column reads as NULL.
type Row map[string]string

type rowsCursor struct {
	rows []Row
	i    int
}

// Rows returns a Cursor over in-memory rows.
func Rows(rows ...Row) Cursor { return &rowsCursor{rows: rows, i: -1} }

func (c *rowsCursor) Next() bool {
	if c.i+1 >= len(c.rows) {
		c.i = len(c.rows)
		return false
	}
	c.i++
	return true
}

func (c *rowsCursor) String(column string) (string, bool) {
	if c.i < 0 || c.i >= len(c.rows) {
		return "", false
	}
	v, ok := c.rows[c.i][column]
	return v, ok
}

func (c *rowsCursor) Err() error   { return nil }
func (c *rowsCursor) Close() error { return nil }
