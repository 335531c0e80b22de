package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack stores composite settings as MessagePack, with integers packed in
// their smallest form. The zero value is ready to use.
//
// JSONTags makes msgpack read `json` struct tags, so a settings struct
// already tagged for JSON keeps its field names when switched to Msgpack.
type Msgpack[V any] struct {
	JSONTags bool
}

func (c Msgpack[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if c.JSONTags {
		enc.SetCustomStructTag("json")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	if c.JSONTags {
		dec.SetCustomStructTag("json")
	}
	err := dec.Decode(&v)
	return v, err
}
