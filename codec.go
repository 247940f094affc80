// Package gencodec is a binary object-graph serializer that synthesizes, once per
// registered type, a specialized write and read procedure for that type's exact
// layout, and routes values of statically-unknown (interface) type through a dense
// dispatch table keyed by a small type identifier.
//
// Registration happens on a Builder. Build freezes the type set, analyzes every
// type, synthesizes all procedures and the dispatch table, and returns an
// immutable Registry that is safe for concurrent use without locking.
//
// Serializing a cyclic object graph is not guarded: it recurses without bound.
package gencodec

import (
	"encoding"
	"io"
	"reflect"
)

// WriteProc writes the occurrence of a single value to w. Errors are latched in w.
type WriteProc func(w *Writer, v reflect.Value)

// ReadProc reads the occurrence of a single value from r into the settable v.
// Errors are latched in r and v is left untouched on failure.
type ReadProc func(r *Reader, v reflect.Value)

// Procedure is the pair of synthesized procedures for one declared type.
type Procedure struct {
	Write WriteProc
	Read  ReadProc
}

// Sizer is an interface for types that can report their binary size.
// This is useful for pre-allocating buffers before encoding.
type Sizer interface {
	// Size returns the size of the type in bytes when binary encoded.
	Size() int
}

// Marshaler defines the core methods for encoding an object into a byte stream.
type Marshaler interface {
	encoding.BinaryMarshaler // Method: MarshalBinary() ([]byte, error)
	io.WriterTo              // Method: WriteTo(writer io.Writer) (int64, error)

	// MarshalTo encodes the object into a pre-allocated buffer, returning an error
	// (e.g., io.ErrShortWrite) if the buffer is too small.
	MarshalTo(buf []byte) (int, error)
}

// Unmarshaler defines the core methods for decoding a byte stream into an object.
type Unmarshaler interface {
	encoding.BinaryUnmarshaler // Method: UnmarshalBinary(data []byte) error
	io.ReaderFrom              // Method: ReadFrom(r io.Reader) (int64, error)
}

// Codec aggregates all binary serialization and deserialization interfaces.
type Codec interface {
	Sizer
	Marshaler
	Unmarshaler
}
