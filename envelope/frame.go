package envelope

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadFrame reads one complete record (header and payload) from a stream
// without interpreting the payload, so it can be handed to Schema.Decode.
// Frames larger than maxSize bytes of payload are rejected before allocating;
// maxSize <= 0 disables the limit.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	length := int32(binary.LittleEndian.Uint32(hdr[4:]))
	if length < 0 {
		return nil, &MalformedError{Reason: "negative length"}
	}
	if maxSize > 0 && int(length) > maxSize {
		return nil, fmt.Errorf("envelope: frame too large: %d > %d", length, maxSize)
	}
	out := make([]byte, HeaderSize+int(length))
	copy(out, hdr[:])
	if _, err := io.ReadFull(r, out[HeaderSize:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return out, nil
}

// WriteFrame encodes rec with s at version and writes it to w.
func WriteFrame[R any](w io.Writer, s *Schema[R], rec *R, version int32) error {
	b, err := s.Encode(rec, version)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
