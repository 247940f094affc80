package gencodec

import (
	"bytes"
	"io"
)

// bytesBufferWriterAdapter lets a *bytes.Buffer act as an unbuffered sink.
type bytesBufferWriterAdapter struct{ *bytes.Buffer }

func (w *bytesBufferWriterAdapter) Flush() error { return nil }
func (w *bytesBufferWriterAdapter) Size() int    { return w.Available() }

// exactSource gives a plain io.Reader a ReadByte without reading ahead, so the
// bytes after a decoded value stay in the stream.
type exactSource struct {
	r   io.Reader
	one [1]byte
}

func (s *exactSource) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *exactSource) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.one[:]); err != nil {
		return 0, err
	}
	return s.one[0], nil
}
