package gencodec

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/exp/constraints"
)

// PrimitiveCodec is the external writer/reader pair for one scalar type.
// Synthesized procedures only decide where a primitive call-site occurs; the
// byte encoding is entirely up to the codec.
type PrimitiveCodec struct {
	Write WriteProc
	Read  ReadProc
	// Size is the fixed encoded size in bytes, or 0 when the encoding is variable length.
	Size int

	bulk bool // single raw byte per value, so []T can be copied in one write
}

// Primitives is a set of primitive codecs keyed by exact type, falling back to kind.
// It is safe for concurrent use, so codecs can be installed from init functions.
type Primitives struct {
	byType *xsync.Map[reflect.Type, PrimitiveCodec]
	byKind *xsync.Map[reflect.Kind, PrimitiveCodec]
}

// NewPrimitives returns an empty primitive set.
func NewPrimitives() *Primitives {
	return &Primitives{
		byType: xsync.NewMap[reflect.Type, PrimitiveCodec](),
		byKind: xsync.NewMap[reflect.Kind, PrimitiveCodec](),
	}
}

// DefaultPrimitives returns a fresh set holding the built-in scalar codecs:
//
//	bool              1 byte, 0 or 1
//	int8 .. int64     fixed width, two's complement
//	uint8 .. uint64   fixed width
//	int, uint         8 bytes
//	float32, float64  IEEE-754 bits
//	string            uint32 byte length, then the bytes
func DefaultPrimitives() *Primitives {
	p := NewPrimitives()
	p.SetKind(reflect.Bool, boolCodec)
	p.SetKind(reflect.Int8, SignedCodec((*Writer).WriteInt8, (*Reader).ReadInt8, 1))
	p.SetKind(reflect.Int16, SignedCodec((*Writer).WriteInt16, (*Reader).ReadInt16, 2))
	p.SetKind(reflect.Int32, SignedCodec((*Writer).WriteInt32, (*Reader).ReadInt32, 4))
	p.SetKind(reflect.Int64, SignedCodec((*Writer).WriteInt64, (*Reader).ReadInt64, 8))
	p.SetKind(reflect.Int, SignedCodec((*Writer).WriteInt64, (*Reader).ReadInt64, 8))
	p.SetKind(reflect.Uint8, byteCodec)
	p.SetKind(reflect.Uint16, UnsignedCodec((*Writer).WriteUint16, (*Reader).ReadUint16, 2))
	p.SetKind(reflect.Uint32, UnsignedCodec((*Writer).WriteUint32, (*Reader).ReadUint32, 4))
	p.SetKind(reflect.Uint64, UnsignedCodec((*Writer).WriteUint64, (*Reader).ReadUint64, 8))
	p.SetKind(reflect.Uint, UnsignedCodec((*Writer).WriteUint64, (*Reader).ReadUint64, 8))
	p.SetKind(reflect.Uintptr, UnsignedCodec((*Writer).WriteUint64, (*Reader).ReadUint64, 8))
	p.SetKind(reflect.Float32, FloatCodec((*Writer).WriteFloat32, (*Reader).ReadFloat32, 4))
	p.SetKind(reflect.Float64, FloatCodec((*Writer).WriteFloat64, (*Reader).ReadFloat64, 8))
	p.SetKind(reflect.String, stringCodec)
	return p
}

// Set installs a codec for exactly t. It takes precedence over the kind codec.
func (p *Primitives) Set(t reflect.Type, c PrimitiveCodec) { p.byType.Store(t, c) }

// SetKind installs the codec used for every type of kind k without an exact codec.
func (p *Primitives) SetKind(k reflect.Kind, c PrimitiveCodec) { p.byKind.Store(k, c) }

// Lookup returns the codec for t, if any.
func (p *Primitives) Lookup(t reflect.Type) (PrimitiveCodec, bool) {
	if c, ok := p.byType.Load(t); ok {
		return c, true
	}
	switch t.Kind() {
	case reflect.Array, reflect.Slice, reflect.Struct, reflect.Pointer, reflect.Interface,
		reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		// composite kinds are shaped by the analyzer, never by a kind codec.
		return PrimitiveCodec{}, false
	}
	return p.byKind.Load(t.Kind())
}

// Clone returns an independent copy of the set.
func (p *Primitives) Clone() *Primitives {
	c := NewPrimitives()
	p.byType.Range(func(t reflect.Type, v PrimitiveCodec) bool { c.byType.Store(t, v); return true })
	p.byKind.Range(func(k reflect.Kind, v PrimitiveCodec) bool { c.byKind.Store(k, v); return true })
	return c
}

// SignedCodec adapts a fixed-width signed writer/reader pair to any signed kind.
func SignedCodec[T constraints.Signed](write func(*Writer, T), read func(*Reader, *T), size int) PrimitiveCodec {
	return PrimitiveCodec{
		Write: func(w *Writer, v reflect.Value) { write(w, T(v.Int())) },
		Read: func(r *Reader, v reflect.Value) {
			var x T
			read(r, &x)
			if r.err != nil {
				return
			}
			if v.OverflowInt(int64(x)) {
				r.Fail(fmt.Errorf("%w: %d overflows %s", ErrTooLarge, x, v.Type()))
				return
			}
			v.SetInt(int64(x))
		},
		Size: size,
	}
}

// UnsignedCodec adapts a fixed-width unsigned writer/reader pair to any unsigned kind.
func UnsignedCodec[T constraints.Unsigned](write func(*Writer, T), read func(*Reader, *T), size int) PrimitiveCodec {
	return PrimitiveCodec{
		Write: func(w *Writer, v reflect.Value) { write(w, T(v.Uint())) },
		Read: func(r *Reader, v reflect.Value) {
			var x T
			read(r, &x)
			if r.err != nil {
				return
			}
			if v.OverflowUint(uint64(x)) {
				r.Fail(fmt.Errorf("%w: %d overflows %s", ErrTooLarge, x, v.Type()))
				return
			}
			v.SetUint(uint64(x))
		},
		Size: size,
	}
}

// FloatCodec adapts a floating point writer/reader pair to any float kind.
func FloatCodec[T constraints.Float](write func(*Writer, T), read func(*Reader, *T), size int) PrimitiveCodec {
	return PrimitiveCodec{
		Write: func(w *Writer, v reflect.Value) { write(w, T(v.Float())) },
		Read: func(r *Reader, v reflect.Value) {
			var x T
			read(r, &x)
			if r.err == nil {
				v.SetFloat(float64(x))
			}
		},
		Size: size,
	}
}

var byteCodec = func() PrimitiveCodec {
	c := UnsignedCodec((*Writer).WriteUint8, (*Reader).ReadUint8, 1)
	c.bulk = true
	return c
}()

var boolCodec = PrimitiveCodec{
	Write: func(w *Writer, v reflect.Value) { w.WriteBool(v.Bool()) },
	Read: func(r *Reader, v reflect.Value) {
		var b bool
		r.ReadBool(&b)
		if r.err == nil {
			v.SetBool(b)
		}
	},
	Size: 1,
}

var stringCodec = PrimitiveCodec{
	Write: func(w *Writer, v reflect.Value) { w.WritePrefixedString(v.String()) },
	Read: func(r *Reader, v reflect.Value) {
		var s string
		r.ReadPrefixedString(&s)
		if r.err == nil {
			v.SetString(s)
		}
	},
}
