package gencodec

import (
	"fmt"
	"math"
	"reflect"

	"go.uber.org/zap"
)

// synthesizer turns analyzed descriptors into write/read procedures. Each
// call-site is resolved once here; at serialize time a procedure only walks
// pre-built closures.
type synthesizer struct {
	dispatch *DispatchTable
	log      *zap.Logger
	sizes    map[*TypeDescriptor]int
}

// fieldProc is one "extract field, then call-site" step of a structural procedure.
type fieldProc struct {
	index int
	write WriteProc
	read  ReadProc
}

func (s *synthesizer) synthesize(d *TypeDescriptor) {
	switch d.Class {
	case Value:
		if d.prim != nil {
			d.writeBody, d.readBody = d.prim.Write, d.prim.Read
		} else {
			s.structural(d)
		}
		d.write, d.read = d.writeBody, d.readBody

	case SealedReference:
		s.reference(d)
		s.nullable(d)

	case OpenReference:
		if d.Elem != nil {
			// a pointer registered as open is still a concrete dispatch target.
			s.reference(d)
		}
		d.write, d.read = s.dispatch.Write, s.dispatch.Read

	case Array:
		s.array(d)
		d.write, d.read = d.writeBody, d.readBody
	}

	if d.Elem != nil && d.Class != Array {
		d.Fields = d.Elem.Fields
	}
	s.log.Debug("synthesized procedure",
		zap.Stringer("type", d.Type),
		zap.Uint16("id", d.ID),
		zap.Stringer("class", d.Class),
		zap.Int("fields", len(d.Fields)))
}

// callSite returns the procedures for one field or element according to its site.
func (s *synthesizer) callSite(site Site, d *TypeDescriptor, prim PrimitiveCodec) (WriteProc, ReadProc) {
	switch site {
	case SitePrimitive:
		return prim.Write, prim.Read
	case SiteDispatch:
		return s.dispatch.Write, s.dispatch.Read
	}
	// d may still be under construction when types are recursive, so its
	// procedures are loaded at call time.
	return func(w *Writer, v reflect.Value) { d.write(w, v) },
		func(r *Reader, v reflect.Value) { d.read(r, v) }
}

func (s *synthesizer) structural(d *TypeDescriptor) {
	procs := make([]fieldProc, len(d.Fields))
	for i, f := range d.Fields {
		write, read := s.callSite(f.Site, f.desc, f.prim)
		procs[i] = fieldProc{index: f.Index, write: write, read: read}
	}

	d.writeBody = func(w *Writer, v reflect.Value) {
		for _, p := range procs {
			if w.err != nil {
				return
			}
			p.write(w, v.Field(p.index))
		}
	}
	d.readBody = func(r *Reader, v reflect.Value) {
		// decode into a scratch value so v is untouched when a field fails.
		tmp := reflect.New(d.Type).Elem()
		for _, p := range procs {
			if r.err != nil {
				return
			}
			p.read(r, tmp.Field(p.index))
		}
		if r.err == nil {
			v.Set(tmp)
		}
	}
}

// reference builds the body of a pointer type: the pointee's fields, with no
// null handling. It is what the dispatch table calls for a non-nil value.
func (s *synthesizer) reference(d *TypeDescriptor) {
	elem := d.Elem
	d.writeBody = func(w *Writer, v reflect.Value) { elem.writeBody(w, v.Elem()) }
	d.readBody = func(r *Reader, v reflect.Value) {
		p := reflect.New(elem.Type)
		elem.readBody(r, p.Elem())
		if r.err == nil {
			v.Set(p)
		}
	}
}

// nullable wraps a sealed body with the presence byte owned by its direct call-sites.
func (s *synthesizer) nullable(d *TypeDescriptor) {
	d.write = func(w *Writer, v reflect.Value) {
		if v.IsNil() {
			w.WriteUint8(0)
			return
		}
		w.WriteUint8(1)
		d.writeBody(w, v)
	}
	d.read = func(r *Reader, v reflect.Value) {
		var present uint8
		r.ReadUint8(&present)
		if r.err != nil {
			return
		}
		switch present {
		case 0:
			v.SetZero()
		case 1:
			d.readBody(r, v)
		default:
			r.Fail(fmt.Errorf("%w: 0x%02x for %s", ErrInvalidPresence, present, d.Type))
		}
	}
}

// array emits a uint32 count followed by a counted loop over the elements.
func (s *synthesizer) array(d *TypeDescriptor) {
	t := d.Type
	elemWrite, elemRead := s.callSite(d.ElemSite, d.Elem, d.elemPrim)
	bulk := d.ElemSite == SitePrimitive && d.elemPrim.bulk && t.Kind() == reflect.Slice

	d.writeBody = func(w *Writer, v reflect.Value) {
		n := v.Len()
		w.WriteLength(n)
		if bulk {
			w.WriteBytes(v.Bytes())
			return
		}
		for i := 0; i < n; i++ {
			if w.err != nil {
				return
			}
			elemWrite(w, v.Index(i))
		}
	}

	if t.Kind() == reflect.Array {
		d.readBody = func(r *Reader, v reflect.Value) {
			var n int
			r.ReadLength(&n)
			if r.err != nil {
				return
			}
			if n != t.Len() {
				r.Fail(fmt.Errorf("%w: %s holds %d elements, got %d", ErrLengthMismatch, t, t.Len(), n))
				return
			}
			tmp := reflect.New(t).Elem()
			for i := 0; i < n; i++ {
				if r.err != nil {
					return
				}
				elemRead(r, tmp.Index(i))
			}
			if r.err == nil {
				v.Set(tmp)
			}
		}
		return
	}

	chunk := sliceChunk(t)
	d.readBody = func(r *Reader, v reflect.Value) {
		var n int
		r.ReadLength(&n)
		if r.err != nil {
			return
		}
		// the count is untrusted: storage grows with the elements that actually arrive.
		slice := reflect.New(t).Elem()
		slice.Set(reflect.MakeSlice(t, 0, min(n, chunk)))
		for filled := 0; filled < n; {
			if r.err != nil {
				return
			}
			next := min(n, max(2*filled, chunk))
			slice.Grow(next - filled)
			slice.SetLen(next)
			if bulk {
				r.ReadBytesTo(slice.Bytes()[filled:next])
				filled = next
				continue
			}
			for ; filled < next; filled++ {
				if r.err != nil {
					return
				}
				elemRead(r, slice.Index(filled))
			}
		}
		if r.err == nil {
			v.Set(slice)
		}
	}
}

// preallocLimit bounds the bytes reserved for a decoded slice before its
// elements have been read.
const preallocLimit = 64 << 10

// sliceChunk returns how many elements of t may be reserved up front.
func sliceChunk(t reflect.Type) int {
	size := int(t.Elem().Size())
	if size == 0 {
		return math.MaxInt
	}
	return max(preallocLimit/size, 1)
}

// fixedSize computes the exact encoded size of d, or -1 when any part of its
// layout is variable. Value cycles cannot exist, and references stop the walk.
func (s *synthesizer) fixedSize(d *TypeDescriptor) int {
	if n, ok := s.sizes[d]; ok {
		return n
	}
	n := -1
	switch d.Class {
	case Value:
		if d.prim != nil {
			n = primSize(*d.prim)
			break
		}
		n = 0
		for _, f := range d.Fields {
			var fn int
			switch f.Site {
			case SitePrimitive:
				fn = primSize(f.prim)
			case SiteDirect:
				fn = s.fixedSize(f.desc)
			default:
				fn = -1
			}
			if fn < 0 {
				n = -1
				break
			}
			n += fn
		}
	case Array:
		if d.Type.Kind() != reflect.Array {
			break
		}
		var en int
		switch d.ElemSite {
		case SitePrimitive:
			en = primSize(d.elemPrim)
		case SiteDirect:
			en = s.fixedSize(d.Elem)
		default:
			en = -1
		}
		if en >= 0 {
			n = 4 + d.Type.Len()*en
		}
	}
	s.sizes[d] = n
	d.fixedSize = n
	return n
}

func primSize(c PrimitiveCodec) int {
	if c.Size > 0 {
		return c.Size
	}
	return -1
}
