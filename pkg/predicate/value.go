package predicate

import (
	"bytes"
	"strings"
)

// Value is an extracted, comparable value. It is either text or raw bytes.
type Value struct {
	data   []byte
	binary bool
}

// Text returns a text value.
func Text(s string) Value {
	return Value{data: []byte(s)}
}

// Bytes returns a binary value.
func Bytes(b []byte) Value {
	return Value{data: b, binary: true}
}

// String returns the value as a string.
func (v Value) String() string {
	return string(v.data)
}

// Bytes returns the raw bytes of the value.
func (v Value) Bytes() []byte {
	return v.data
}

// IsBinary reports whether the value holds raw bytes rather than text.
func (v Value) IsBinary() bool {
	return v.binary
}

// Equal reports whether both values hold the same bytes.
func (v Value) Equal(o Value) bool {
	if v.binary || o.binary {
		return bytes.Equal(v.data, o.data)
	}
	return string(v.data) == string(o.data)
}

func (v Value) contains(o Value) bool {
	if v.binary || o.binary {
		return bytes.Contains(v.data, o.data)
	}
	return strings.Contains(string(v.data), string(o.data))
}

func (v Value) hasPrefix(o Value) bool {
	return bytes.HasPrefix(v.data, o.data)
}

func (v Value) hasSuffix(o Value) bool {
	return bytes.HasSuffix(v.data, o.data)
}
