package envelope

import (
	"encoding/binary"
	"math"
)

// Reader decodes little-endian primitives from a byte slice.
//
// Errors are sticky: after the first failure every read returns a zero value
// and Err reports the failure. Reads never go past the current window, which
// is the whole buffer or, between BeginRecord and EndRecord, the record payload.
type Reader struct {
	buf   []byte
	off   int
	limit int
	err   error
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b, limit: len(b)}
}

// Err returns the first error encountered since the last record boundary.
func (r *Reader) Err() error { return r.err }

// Offset is the current read position within the underlying buffer.
func (r *Reader) Offset() int { return r.off }

// Remaining is the number of unread bytes in the current window.
func (r *Reader) Remaining() int { return r.limit - r.off }

func (r *Reader) fail(need int, reason string) {
	if r.err == nil {
		r.err = &MalformedError{Offset: r.off, Need: need, Available: r.limit - r.off, Reason: reason}
	}
}

func (r *Reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.limit-r.off { // overflow-safe bound check
		r.fail(n, "short "+what)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) ReadByte() (byte, error) {
	b := r.take(1, "byte")
	if b == nil {
		return 0, r.err
	}
	return b[0], nil
}

func (r *Reader) ReadBool() bool {
	b, _ := r.ReadByte()
	return b != 0
}

// Present reads a presence flag written by Writer.Present.
func (r *Reader) Present() bool { return r.ReadBool() }

func (r *Reader) ReadInt32() int32 {
	b := r.take(4, "int32")
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (r *Reader) ReadInt64() int64 {
	b := r.take(8, "int64")
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

func (r *Reader) ReadFloat32() float32 {
	b := r.take(4, "float32")
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (r *Reader) ReadFloat64() float64 {
	b := r.take(8, "float64")
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// ReadBytes reads a length-prefixed byte slice. The result is a copy; a
// length of -1 yields nil and 0 an empty, non-nil slice.
func (r *Reader) ReadBytes() []byte {
	n := r.ReadInt32()
	if r.err != nil || n == nilLength {
		return nil
	}
	if n < 0 {
		r.fail(0, "negative byte length")
		return nil
	}
	b := r.take(int(n), "bytes")
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (r *Reader) ReadString() string {
	n := r.ReadInt32()
	if r.err != nil {
		return ""
	}
	if n < 0 {
		r.fail(0, "negative string length")
		return ""
	}
	return string(r.take(int(n), "string"))
}

func (r *Reader) ReadOptionalString() *string {
	if !r.Present() {
		return nil
	}
	s := r.ReadString()
	if r.err != nil {
		return nil
	}
	return &s
}

// ReadStrings reads a list written by Writer.WriteStrings. A count of -1
// yields nil and 0 an empty, non-nil slice.
func (r *Reader) ReadStrings() []string {
	n := r.ReadInt32()
	if r.err != nil || n == nilLength {
		return nil
	}
	if n < 0 {
		r.fail(0, "negative list length")
		return nil
	}
	// every element costs at least 4 bytes; don't trust n for preallocation
	if int(n) > r.Remaining()/4 {
		r.fail(int(n)*4, "list length")
		return nil
	}
	out := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		s := r.ReadString()
		if r.err != nil {
			return nil
		}
		out = append(out, s)
	}
	return out
}

// RecordInfo is the header of a record opened by BeginRecord.
type RecordInfo struct {
	Version int32
	Length  int32

	start     int
	prevLimit int
}

// End is the offset of the first byte after the record.
func (i RecordInfo) End() int { return i.start + int(i.Length) }

// BeginRecord reads a record header and narrows the read window to the
// payload. A declared length that runs past the window is malformed; in that
// case the reader cannot find the next record and stays failed.
func (r *Reader) BeginRecord() (RecordInfo, error) {
	if r.err != nil {
		return RecordInfo{}, r.err
	}
	if r.Remaining() < HeaderSize {
		r.fail(HeaderSize, "short header")
		return RecordInfo{}, r.err
	}
	version := r.ReadInt32()
	length := r.ReadInt32()
	if length < 0 {
		r.off -= HeaderSize
		r.fail(0, "negative length")
		return RecordInfo{}, r.err
	}
	if int(length) > r.Remaining() {
		r.off -= HeaderSize
		r.err = &MalformedError{
			Offset:    r.off,
			Need:      int(length),
			Available: r.limit - r.off - HeaderSize,
			Reason:    "declared length exceeds buffer",
		}
		return RecordInfo{}, r.err
	}
	info := RecordInfo{Version: version, Length: length, start: r.off, prevLimit: r.limit}
	r.limit = info.End()
	return info, nil
}

// EndRecord moves the cursor to the declared end of the record regardless of
// how much of the payload was consumed and restores the outer window. It
// returns the error, if any, hit while reading the payload and clears it so
// the next record can be decoded.
func (r *Reader) EndRecord(info RecordInfo) error {
	err := r.err
	r.err = nil
	r.off = info.End()
	r.limit = info.prevLimit
	return err
}
