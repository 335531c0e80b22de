// Package codec converts composite setting values to and from bytes. A
// Settings Store column holds a string, so nvcache base64-encodes whatever a
// Codec produces before writing it.
package codec

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
