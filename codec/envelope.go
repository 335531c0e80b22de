package codec

import "github.com/unkn0wn-root/nvcache/envelope"

// Envelope stores records in the versioned envelope format, so processes
// running older or newer record layouts can share one setting.
//
// Encode writes at Version. Decode accepts any encoded version and reads the
// field groups this binary knows about (those up to the schema's latest).
type Envelope[R any] struct {
	Schema  *envelope.Schema[R]
	Version int32
}

func NewEnvelope[R any](s *envelope.Schema[R], version int32) Envelope[R] {
	return Envelope[R]{Schema: s, Version: version}
}

func (c Envelope[R]) Encode(r R) ([]byte, error) {
	return c.Schema.Encode(&r, c.Version)
}

func (c Envelope[R]) Decode(b []byte) (R, error) {
	return c.Schema.Decode(b, c.Schema.Latest())
}
