package gencodec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"
)

// source is the byte-source a Reader drives.
type source interface {
	io.Reader
	io.ByteReader
}

// Reader provides a reader that simplifies reading binary data.
// It tracks the first error; subsequent reads become no-ops.
//
// Sources that already implement io.ByteReader (*bytes.Reader, *bytes.Buffer,
// *bufio.Reader, *BytesReader, ...) are read directly, so a Reader never consumes
// bytes past the end of the value being decoded. Anything else is wrapped in bufio.
type Reader struct {
	r         source
	count     int64 // total bytes read
	err       error // first error encountered.
	order     binary.ByteOrder
	maxLength int // upper bound for decoded counts and string lengths, 0 means unbounded
	scratch   [8]byte
}

var _ source = (*Reader)(nil)

// NewReaderSize creates a new Reader. A positive size wraps a plain r in a
// bufio.Reader of that size, which reads ahead; the caller then owns the
// Reader for the rest of the stream. A size of 0 reads r exactly.
func NewReaderSize(r io.Reader, size int) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}

	switch reader := r.(type) {
	// Reuse the underlying source if it's already a Reader.
	case *Reader:
		return &Reader{r: reader.r, order: reader.order, maxLength: reader.maxLength}, nil

	// prevent unpredictable double-buffering.
	case *bufio.Reader:
		if reader.Size() >= size {
			return &Reader{r: reader, order: Order}, nil
		}
		return nil, ErrAlreadyBuffered

	// underlying is a buf so we don't need buffering
	case source:
		return &Reader{r: reader, order: Order}, nil
	}

	// Without an explicit size a plain source is read exactly. A bufio.Reader would
	// consume bytes of the next value and lose them when this Reader is dropped.
	if size == 0 {
		return &Reader{r: &exactSource{r: r}, order: Order}, nil
	}
	if size < 16 {
		return nil, ErrSizeTooSmall
	}

	return &Reader{r: bufio.NewReaderSize(r, size), order: Order}, nil
}

// NewReader creates a new Reader that never reads past the bytes it decodes.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderSize(r, 0)
}

// WithByteOrder sets the byte order used for multi-byte values and returns r.
func (r *Reader) WithByteOrder(order binary.ByteOrder) *Reader {
	if order != nil {
		r.order = order
	}
	return r
}

// WithMaxLength bounds every decoded element count and string length to n.
// A value of 0 or below removes the bound.
func (r *Reader) WithMaxLength(n int) *Reader {
	r.maxLength = max(n, 0)
	return r
}

// Read implements the io.Reader interface.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.r.Read(p)
	r.count += int64(n)
	r.setError(err)
	return n, r.err
}

func (r *Reader) Count() int64 { return r.count }
func (r *Reader) Err() error   { return r.err }
func (r *Reader) IsEOF() bool  { return r.err == io.EOF }

// Fail latches err as the reader's error unless an earlier error is already set.
func (r *Reader) Fail(err error) { r.setError(err) }

// setError records the first non-nil error.
func (r *Reader) setError(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// Result returns the total bytes read and the final error state.
func (r *Reader) Result() (int64, error) {
	return r.count, r.err
}

// readFull reads exactly len(buf) bytes. A stream that ends before the first byte
// latches io.EOF, one that ends midway latches io.ErrUnexpectedEOF.
func (r *Reader) readFull(buf []byte) bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.r, buf)
	r.count += int64(n)
	if err != nil {
		r.err = err
		return false
	}
	return true
}

// ReadBytes reads n bytes into a new slice.
func (r *Reader) ReadBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	if n <= readChunk {
		buf := make([]byte, n)
		if !r.readFull(buf) {
			return nil
		}
		return buf
	}
	// n comes off the wire; grow with the data instead of trusting it.
	buf := make([]byte, 0, readChunk)
	for len(buf) < n {
		filled := len(buf)
		next := min(n, max(2*filled, readChunk))
		buf = slices.Grow(buf, next-filled)[:next]
		if !r.readFull(buf[filled:]) {
			return nil
		}
	}
	return buf
}

// readChunk is the most ReadBytes allocates ahead of data that has arrived.
const readChunk = 64 << 10

// ReadBytesTo fills dest completely.
func (r *Reader) ReadBytesTo(dest []byte) {
	if len(dest) == 0 {
		return
	}
	r.readFull(dest)
}

// --- Primitive Read Operations ---

func (r *Reader) ReadBool(dest *bool) {
	var b uint8
	r.ReadUint8(&b)
	if r.err == nil {
		*dest = b != 0
	}
}

func (r *Reader) ReadByte() (byte, error) {
	if r.err != nil {
		return 0, r.err
	}
	b, err := r.r.ReadByte()
	if err == nil {
		r.count++
	} else {
		r.err = err
	}
	return b, err
}

func (r *Reader) ReadUint8(dest *uint8) {
	b, err := r.ReadByte()
	if err == nil {
		*dest = b
	}
}

func (r *Reader) ReadInt8(dest *int8) {
	b, err := r.ReadByte()
	if err == nil {
		*dest = int8(b)
	}
}

func (r *Reader) ReadUint16(dest *uint16) {
	if buf := r.scratch[:2]; r.readFull(buf) {
		*dest = r.order.Uint16(buf)
	}
}

func (r *Reader) ReadUint32(dest *uint32) {
	if buf := r.scratch[:4]; r.readFull(buf) {
		*dest = r.order.Uint32(buf)
	}
}

func (r *Reader) ReadUint64(dest *uint64) {
	if buf := r.scratch[:8]; r.readFull(buf) {
		*dest = r.order.Uint64(buf)
	}
}

func (r *Reader) ReadInt16(dest *int16) {
	if buf := r.scratch[:2]; r.readFull(buf) {
		*dest = int16(r.order.Uint16(buf))
	}
}

func (r *Reader) ReadInt32(dest *int32) {
	if buf := r.scratch[:4]; r.readFull(buf) {
		*dest = int32(r.order.Uint32(buf))
	}
}

func (r *Reader) ReadInt64(dest *int64) {
	if buf := r.scratch[:8]; r.readFull(buf) {
		*dest = int64(r.order.Uint64(buf))
	}
}

func (r *Reader) ReadFloat32(dest *float32) {
	if buf := r.scratch[:4]; r.readFull(buf) {
		*dest = math.Float32frombits(r.order.Uint32(buf))
	}
}

func (r *Reader) ReadFloat64(dest *float64) {
	if buf := r.scratch[:8]; r.readFull(buf) {
		*dest = math.Float64frombits(r.order.Uint64(buf))
	}
}

// ReadLength reads a uint32 element count or byte length and checks it against
// the reader's maximum.
func (r *Reader) ReadLength(dest *int) {
	var n uint32
	r.ReadUint32(&n)
	if r.err != nil {
		return
	}
	if uint64(n) > math.MaxInt || (r.maxLength > 0 && int(n) > r.maxLength) {
		r.err = fmt.Errorf("%w: %d exceeds limit %d", ErrTooLarge, n, r.maxLength)
		return
	}
	*dest = int(n)
}

// ReadPrefixedString reads a uint32 byte length followed by that many bytes.
func (r *Reader) ReadPrefixedString(dest *string) {
	var n int
	r.ReadLength(&n)
	if r.err != nil {
		return
	}
	if n == 0 {
		*dest = ""
		return
	}
	if buf := r.ReadBytes(n); r.err == nil {
		*dest = string(buf)
	}
}
