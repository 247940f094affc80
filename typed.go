package gencodec

import (
	"io"
	"reflect"
)

// Typed binds a value of declared type T to a registry and encodes it with T's
// direct procedure: no type tag is written for T itself, exactly as if the value
// were a field declared as T. If T is an interface the value still goes through
// the dispatch table.
type Typed[T any] struct {
	Value T

	reg  *Registry
	desc *TypeDescriptor
}

var _ Codec = (*Typed[struct{}])(nil)

// Bind returns a Typed handle for v. T must be registered.
func Bind[T any](reg *Registry, v T) (*Typed[T], error) {
	d, err := reg.Lookup(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return &Typed[T]{Value: v, reg: reg, desc: d}, nil
}

func (t *Typed[T]) value() reflect.Value { return reflect.ValueOf(&t.Value).Elem() }

// Size returns the encoded size of the current value. Fixed layouts are answered
// from the descriptor; anything else is measured with a counting pass. Size is -1
// when the value cannot be encoded, e.g. it holds an unregistered runtime type.
func (t *Typed[T]) Size() int {
	if n, ok := t.desc.FixedSize(); ok {
		return n
	}
	cw := &countWriter{}
	w := &Writer{w: cw, order: t.reg.opts.ByteOrder}
	t.desc.Write(w, t.value())
	if w.err != nil {
		return -1
	}
	return cw.n
}

// WriteTo implements `io.WriterTo`.
func (t *Typed[T]) WriteTo(w io.Writer) (int64, error) {
	cw, err := t.reg.newWriter(w)
	if err != nil {
		return 0, err
	}
	t.desc.Write(cw, t.value())
	return cw.Result()
}

// ReadFrom implements `io.ReaderFrom`. On error Value is left unchanged.
func (t *Typed[T]) ReadFrom(r io.Reader) (int64, error) {
	cr, err := t.reg.newReader(r)
	if err != nil {
		return 0, err
	}
	t.desc.Read(cr, t.value())
	return cr.Count(), truncation(cr)
}

func (t *Typed[T]) MarshalBinary() ([]byte, error) {
	return MarshalBinaryGeneric(t)
}

func (t *Typed[T]) UnmarshalBinary(data []byte) error {
	return UnmarshalBinaryGeneric(t, data)
}

func (t *Typed[T]) MarshalTo(buf []byte) (int, error) {
	return MarshalToGeneric(t, buf)
}
