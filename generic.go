package gencodec

import (
	"bytes"
	"fmt"
	"io"
)

// sizedWriterTo is a value that can report its encoded size and stream itself.
// Size returns -1 when the size cannot be known without encoding, e.g. because
// encoding would fail.
type sizedWriterTo interface {
	Size() int
	io.WriterTo
}

// MarshalBinaryGeneric implements encoding.BinaryMarshaler on top of Size and WriteTo.
func MarshalBinaryGeneric[T sizedWriterTo](v T) ([]byte, error) {
	expectedSize := v.Size()
	if expectedSize < 0 {
		// let WriteTo report why the size is unknown.
		var buf bytes.Buffer
		if _, err := v.WriteTo(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	w := NewBytesWriter(make([]byte, expectedSize))
	n, err := v.WriteTo(w)
	if err != nil {
		return nil, err
	}
	if n < int64(expectedSize) {
		return nil, fmt.Errorf("%w: expected %d bytes, wrote %d", ErrTruncatedData, expectedSize, n)
	}
	return w.Bytes(), nil
}

// UnmarshalBinaryGeneric implements encoding.BinaryUnmarshaler on top of ReadFrom.
// Bytes left over after the value must be zero padding.
func UnmarshalBinaryGeneric[T interface {
	io.ReaderFrom
	Size() int
}](v T, data []byte) error {
	r := NewBytesReader(data)
	n, err := v.ReadFrom(r)
	if err != nil {
		return err
	}
	if expectedSize := v.Size(); n < int64(expectedSize) {
		return fmt.Errorf("%w: expected %d bytes, read %d", ErrTruncatedData, expectedSize, n)
	}
	if len(data) > int(n) {
		return CheckBufferNotZeros(data[n:])
	}
	return nil
}

// MarshalToGeneric encodes v into p, failing with io.ErrShortWrite when p is too small.
func MarshalToGeneric[T sizedWriterTo](v T, p []byte) (int, error) {
	size := v.Size()
	if len(p) < size {
		return 0, io.ErrShortWrite
	}
	w := NewBytesWriter(p)
	n, err := v.WriteTo(w)
	if err != nil {
		return int(n), err
	}
	if n < int64(size) {
		return int(n), io.ErrShortWrite
	}
	return int(n), nil
}
