package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version     byte = 1
	kindPresent byte = 1
	kindAbsent  byte = 2

	hdrLen = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("nvcache: corrupt entry")
	magic4     = [...]byte{'N', 'V', 'C', 'E'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry is a cached lookup result tagged with the table version it was
// fetched under. Present=false is a negative cache entry.
type Entry struct {
	Version uint64
	Present bool
	Value   string
}

// Encode: magic(4) | ver(1) | kind(1) | tableVersion(u64 be) | vlen(u32 be) | value(vlen)
// Absent entries always carry vlen=0.
func Encode(e Entry) []byte {
	kind, value := kindAbsent, ""
	if e.Present {
		kind, value = kindPresent, e.Value
	}

	var buf bytes.Buffer
	buf.Grow(hdrLen + len(value))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], e.Version)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(value)))
	buf.Write(u4[:])

	buf.WriteString(value)
	return buf.Bytes()
}

// Decode parses an entry produced by Encode. Anything else, including
// trailing bytes, is ErrCorrupt.
func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return Entry{}, ErrCorrupt
	}
	kind := b[5]
	if kind != kindPresent && kind != kindAbsent {
		return Entry{}, ErrCorrupt
	}

	off := 6
	ver := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // exact framing
		return Entry{}, ErrCorrupt
	}
	if kind == kindAbsent {
		if vlen != 0 {
			return Entry{}, ErrCorrupt
		}
		return Entry{Version: ver}, nil
	}
	return Entry{Version: ver, Present: true, Value: string(b[off:])}, nil
}
