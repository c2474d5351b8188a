// Package codec is the binary serialization used on the store wire.
//
// Values are encoded as CBOR (RFC 8949) with the core deterministic rules:
// map keys sorted, integers and floats in their shortest lossless form, no
// indefinite lengths. Equal values therefore always encode to equal bytes.
// Decoding is strict: unknown struct fields, duplicate map keys and trailing
// bytes are all rejected.
package codec

import (
	"fmt"

	"github.com/couchcryptid/wxstore-client/internal/wxerr"
	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: build encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: build decoder: %v", err))
	}
}

// Encode serializes v.
func Encode(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, wxerr.Serialization("encode", err)
	}
	return data, nil
}

// Decode deserializes data as a T. On failure the zero T is returned, never a
// partially populated value.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := decMode.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, wxerr.Serialization(fmt.Sprintf("decode %T", zero), err)
	}
	return v, nil
}

// Valid reports whether data holds exactly one well-formed item.
func Valid(data []byte) error {
	if err := decMode.Wellformed(data); err != nil {
		return wxerr.Serialization("wellformed", err)
	}
	return nil
}
