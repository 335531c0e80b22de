package envelope

import (
	"encoding/binary"
	"math"
)

// Writer is a growable little-endian buffer with a movable cursor.
// The zero value is ready to use.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter returns a Writer with capacity preallocated.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the written bytes. The slice aliases the Writer's buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len is the total number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Pos is the current write position.
func (w *Writer) Pos() int { return w.pos }

// Seek moves the cursor. Positions past the end are clamped to the end.
func (w *Writer) Seek(pos int) {
	switch {
	case pos < 0:
		pos = 0
	case pos > len(w.buf):
		pos = len(w.buf)
	}
	w.pos = pos
}

// Reset discards all bytes but keeps the allocation.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.pos = 0
}

// reserve makes room for n bytes at the cursor and returns the slice to fill.
// Writing in the middle overwrites; writing at the end appends.
func (w *Writer) reserve(n int) []byte {
	end := w.pos + n
	if end > len(w.buf) {
		if end > cap(w.buf) {
			grown := make([]byte, len(w.buf), 2*cap(w.buf)+n)
			copy(grown, w.buf)
			w.buf = grown
		}
		w.buf = w.buf[:end]
	}
	b := w.buf[w.pos:end]
	w.pos = end
	return b
}

func (w *Writer) WriteByte(v byte) error {
	w.reserve(1)[0] = v
	return nil
}

func (w *Writer) WriteBool(v bool) {
	if v {
		_ = w.WriteByte(1)
		return
	}
	_ = w.WriteByte(0)
}

// Present writes a presence flag and returns it, so optional fields read as
//
//	if w.Present(v != nil) { w.WriteString(*v) }
func (w *Writer) Present(ok bool) bool {
	w.WriteBool(ok)
	return ok
}

func (w *Writer) WriteInt32(v int32) {
	binary.LittleEndian.PutUint32(w.reserve(4), uint32(v))
}

func (w *Writer) WriteInt64(v int64) {
	binary.LittleEndian.PutUint64(w.reserve(8), uint64(v))
}

func (w *Writer) WriteFloat32(v float32) {
	binary.LittleEndian.PutUint32(w.reserve(4), math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) {
	binary.LittleEndian.PutUint64(w.reserve(8), math.Float64bits(v))
}

// WriteBytes writes an int32 length followed by b. A nil slice is written
// as length -1 so that it reads back as nil rather than empty.
func (w *Writer) WriteBytes(b []byte) {
	if b == nil {
		w.WriteInt32(nilLength)
		return
	}
	w.WriteInt32(int32(len(b)))
	copy(w.reserve(len(b)), b)
}

// WriteString writes an int32 byte length followed by the UTF-8 bytes of s.
func (w *Writer) WriteString(s string) {
	w.WriteInt32(int32(len(s)))
	copy(w.reserve(len(s)), s)
}

// WriteOptionalString writes a presence flag and, if s is non-nil, the string.
func (w *Writer) WriteOptionalString(s *string) {
	if w.Present(s != nil) {
		w.WriteString(*s)
	}
}

// WriteStrings writes an int32 count followed by each string. A nil slice
// is written as count -1.
func (w *Writer) WriteStrings(ss []string) {
	if ss == nil {
		w.WriteInt32(nilLength)
		return
	}
	w.WriteInt32(int32(len(ss)))
	for _, s := range ss {
		w.WriteString(s)
	}
}

// Frame marks an open record started by BeginRecord.
type Frame struct {
	sizeAt int
	start  int
}

// BeginRecord writes the format version and a length placeholder. The payload
// written after it belongs to the record until EndRecord is called.
func (w *Writer) BeginRecord(version int32) Frame {
	w.WriteInt32(version)
	sizeAt := w.pos
	w.WriteInt32(0)
	return Frame{sizeAt: sizeAt, start: w.pos}
}

// EndRecord patches the length placeholder and moves the cursor to the end of
// the record.
func (w *Writer) EndRecord(f Frame) {
	size := w.pos - f.start
	w.pos = f.sizeAt
	w.WriteInt32(int32(size))
	w.pos = f.start + size
}
