// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package maybebinary implements the OONI "maybe binary" value.

A probe cannot guarantee that HTTP bodies and header values are valid
UTF-8, so the data format allows two encodings for such fields:

1. a plain JSON string, when the bytes are valid UTF-8;

2. a tagged object `{"format":"base64","data":"..."}` otherwise.

The [Value] type models this as a two-variant sum type. Decoding accepts
exactly these two shapes and rejects everything else with [ErrInvalid].
*/
package maybebinary

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the variant held by a [Value].
type Kind int

const (
	// KindText is a plain UTF-8 string.
	KindText Kind = iota

	// KindBinary is a base64 tagged byte string.
	KindBinary
)

// String implements [fmt.Stringer].
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// ErrInvalid indicates that a JSON value is neither a string
// nor a well-formed base64 tagged object.
var ErrInvalid = errors.New("maybebinary: invalid value")

// formatBase64 is the only format tag we accept.
const formatBase64 = "base64"

// Value is a maybe-binary value.
//
// The zero value is the empty text string.
type Value struct {
	// kind is the variant.
	kind Kind

	// data contains the text or the decoded binary bytes.
	data []byte
}

// Text returns a text [Value].
func Text(s string) Value {
	return Value{kind: KindText, data: []byte(s)}
}

// Binary returns a binary [Value].
func Binary(b []byte) Value {
	return Value{kind: KindBinary, data: bytes.Clone(b)}
}

// Kind returns the variant held by the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Bytes returns the underlying bytes regardless of the variant.
func (v Value) Bytes() []byte {
	return v.data
}

// String returns the underlying bytes as a string.
func (v Value) String() string {
	return string(v.data)
}

// taggedValue is the wire representation of a binary value.
type taggedValue struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// MarshalJSON implements [json.Marshaler].
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindText {
		return json.Marshal(string(v.data))
	}
	return json.Marshal(taggedValue{
		Data:   base64.StdEncoding.EncodeToString(v.data),
		Format: formatBase64,
	})
}

// UnmarshalJSON implements [json.Unmarshaler].
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) <= 0 {
		return fmt.Errorf("%w: empty input", ErrInvalid)
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalid, err.Error())
		}
		*v = Text(s)
		return nil

	case '{':
		decoded, err := unmarshalTagged(data)
		if err != nil {
			return err
		}
		*v = Value{kind: KindBinary, data: decoded}
		return nil

	default:
		return fmt.Errorf("%w: expected string or object, got %s", ErrInvalid, data)
	}
}

// unmarshalTagged decodes the `{"format":"base64","data":"..."}` shape.
func unmarshalTagged(data []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: expected exactly the format and data keys", ErrInvalid)
	}

	var format, encoded string
	if err := unmarshalStringField(fields, "format", &format); err != nil {
		return nil, err
	}
	if format != formatBase64 {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalid, format)
	}
	if err := unmarshalStringField(fields, "data", &encoded); err != nil {
		return nil, err
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	return decoded, nil
}

// unmarshalStringField extracts a mandatory string field.
func unmarshalStringField(fields map[string]json.RawMessage, name string, out *string) error {
	raw, found := fields[name]
	if !found {
		return fmt.Errorf("%w: missing %q", ErrInvalid, name)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) <= 0 || raw[0] != '"' {
		return fmt.Errorf("%w: %q is not a string", ErrInvalid, name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	return nil
}
