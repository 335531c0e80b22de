// Package envelope implements a versioned, length-prefixed binary framing for
// structured records.
//
// Layout (little-endian):
//
//	formatVersion(i32) | length(i32) | payload(length)
//
// The payload is a sequence of field groups ordered by the version that
// introduced them, oldest first. Fields are only ever appended in a new group,
// never reordered or removed. A decoder reads the groups it knows about and
// then jumps to the declared end of the record, so older decoders skip fields
// written by newer encoders and a short read of a known group cannot leak into
// the next record.
//
// Optional fields are written as a one byte presence flag followed by the value
// when present:
//
//	if w.Present(r.Label != nil) {
//		w.WriteString(*r.Label)
//	}
//
// Byte slices and string lists carry an int32 length, -1 for nil, so a nil
// and an empty slice decode back to what was encoded.
package envelope

import (
	"errors"
	"fmt"
)

// HeaderSize is the number of bytes preceding the payload.
const HeaderSize = 8

// nilLength is the length or count written for a nil byte slice or list.
const nilLength int32 = -1

var (
	// ErrMalformedRecord reports a framing violation. It is fatal for the
	// record being decoded, not for the stream that contains it.
	ErrMalformedRecord = errors.New("envelope: malformed record")
	// ErrInvalidVersion is returned when encoding at a version below 1.
	ErrInvalidVersion = errors.New("envelope: invalid format version")
	// ErrInvalidSchema is returned by NewSchema for unordered or empty groups.
	ErrInvalidSchema = errors.New("envelope: invalid schema")
)

// MalformedError describes where and why a record failed to decode.
// errors.Is(err, ErrMalformedRecord) holds for every MalformedError.
type MalformedError struct {
	Offset    int // reader offset at which the violation was detected
	Need      int // bytes the reader wanted
	Available int // bytes left in the current window
	Reason    string
}

func (e *MalformedError) Error() string {
	if e.Need > 0 {
		return fmt.Sprintf("envelope: malformed record at offset %d: %s (need %d, have %d)",
			e.Offset, e.Reason, e.Need, e.Available)
	}
	return fmt.Sprintf("envelope: malformed record at offset %d: %s", e.Offset, e.Reason)
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformedRecord }
