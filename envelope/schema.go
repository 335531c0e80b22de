package envelope

import "fmt"

// Group is the set of fields introduced at format version Since.
// Read should consume what Write produced for the same version and return
// rd.Err(), or the error of a nested DecodeFrom.
type Group[R any] struct {
	Since int32
	Write func(w *Writer, r *R)
	Read  func(rd *Reader, r *R) error
}

// Schema describes how a record type is laid out across format versions.
// Groups are ordered by Since, oldest first.
type Schema[R any] struct {
	groups []Group[R]
}

// NewSchema validates that groups are non-empty, start at version 1 or later
// and are strictly ascending.
func NewSchema[R any](groups ...Group[R]) (*Schema[R], error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no groups", ErrInvalidSchema)
	}
	prev := int32(0)
	for i, g := range groups {
		if g.Since <= prev {
			return nil, fmt.Errorf("%w: group %d has version %d after %d", ErrInvalidSchema, i, g.Since, prev)
		}
		if g.Write == nil || g.Read == nil {
			return nil, fmt.Errorf("%w: group %d (v%d) missing read or write", ErrInvalidSchema, i, g.Since)
		}
		prev = g.Since
	}
	return &Schema[R]{groups: groups}, nil
}

// MustSchema is like NewSchema but panics on error. Intended for
// package-level schema variables.
func MustSchema[R any](groups ...Group[R]) *Schema[R] {
	s, err := NewSchema(groups...)
	if err != nil {
		panic(err)
	}
	return s
}

// Latest is the highest version any group was introduced at.
func (s *Schema[R]) Latest() int32 { return s.groups[len(s.groups)-1].Since }

// Encode frames r at the given format version. Groups introduced after
// version are not written.
func (s *Schema[R]) Encode(r *R, version int32) ([]byte, error) {
	w := NewWriter(64)
	if err := s.EncodeTo(w, r, version); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// EncodeTo appends a framed record at the writer's cursor.
func (s *Schema[R]) EncodeTo(w *Writer, r *R, version int32) error {
	if version < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}
	f := w.BeginRecord(version)
	for _, g := range s.groups {
		if g.Since > version {
			break
		}
		g.Write(w, r)
	}
	w.EndRecord(f)
	return nil
}

// Decode reads one record from b as a decoder that understands format
// versions up to maxVersion. Trailing bytes after the record are ignored.
func (s *Schema[R]) Decode(b []byte, maxVersion int32) (R, error) {
	return s.DecodeFrom(NewReader(b), maxVersion)
}

// DecodeFrom reads one record at the reader's cursor. On success, and on
// payload errors when the header was intact, the reader is left at the first
// byte after the record.
func (s *Schema[R]) DecodeFrom(rd *Reader, maxVersion int32) (R, error) {
	var zero R
	info, err := rd.BeginRecord()
	if err != nil {
		return zero, err
	}
	var (
		r       R
		readErr error
	)
	for _, g := range s.groups {
		if g.Since > maxVersion || g.Since > info.Version {
			break
		}
		if readErr = g.Read(rd, &r); readErr != nil || rd.Err() != nil {
			break
		}
	}
	endErr := rd.EndRecord(info)
	switch {
	case readErr != nil:
		return zero, readErr
	case endErr != nil:
		return zero, endErr
	}
	return r, nil
}
