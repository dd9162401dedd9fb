// Package codec provides the canonical binary encoding used for hashing,
// storage, and size accounting of blockchain values.
package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// fallbackTag is the struct tag used when a field has no msgpack tag.
const fallbackTag = "json"

// Codec encodes values into their canonical msgpack form. Map keys are
// sorted and integers are written in their smallest representation, so two
// logically equal values always produce the same bytes. Struct fields use
// their msgpack tag and fall back to the json tag. A Codec holds no mutable
// state and is safe for concurrent use.
type Codec struct{}

// New constructs a codec for use.
func New() *Codec {
	return &Codec{}
}

// Marshal returns the canonical encoding of the value.
func (c *Codec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	enc.SetCustomStructTag(fallbackTag)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes data produced by Marshal into the value pointed to by v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag(fallbackTag)

	return dec.Decode(v)
}

// Size returns the number of bytes the canonical encoding of the value takes.
func (c *Codec) Size(v any) (int, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return 0, err
	}

	return len(data), nil
}
