package gencodec

import (
	"fmt"
	"reflect"
	"strings"
)

// Classification decides how a type's occurrences are written.
type Classification uint8

const (
	// Value types are copied by value; their concrete layout is known at every call-site.
	Value Classification = iota + 1
	// SealedReference is a pointer whose runtime type always equals its declared type.
	SealedReference
	// OpenReference is a declared type whose runtime type is only known at execution.
	OpenReference
	// Array is a single-dimension slice or fixed array.
	Array
)

func (c Classification) String() string {
	switch c {
	case Value:
		return "value"
	case SealedReference:
		return "sealed"
	case OpenReference:
		return "open"
	case Array:
		return "array"
	}
	return fmt.Sprintf("Classification(%d)", uint8(c))
}

// Site is the call-site strategy chosen for a field or array element.
type Site uint8

const (
	// SitePrimitive calls the primitive codec for the declared type.
	SitePrimitive Site = iota + 1
	// SiteDirect calls the declared type's own procedure without a type tag.
	SiteDirect
	// SiteDispatch writes a type tag and branches through the dispatch table.
	SiteDispatch
)

func (s Site) String() string {
	switch s {
	case SitePrimitive:
		return "primitive"
	case SiteDirect:
		return "direct"
	case SiteDispatch:
		return "dispatch"
	}
	return fmt.Sprintf("Site(%d)", uint8(s))
}

// Field is one serializable field of a structural type, in wire order.
type Field struct {
	Name  string
	Type  reflect.Type
	Index int
	Site  Site

	desc *TypeDescriptor // nil for primitive sites
	prim PrimitiveCodec
}

// TypeDescriptor is the analyzed shape of one type together with its synthesized
// procedures. Descriptors are owned by a Registry and immutable once it is built.
type TypeDescriptor struct {
	Type  reflect.Type
	Class Classification
	// ID is the dense dispatch identifier. It is 0 for shapes that were derived
	// during analysis (e.g. an unregistered []T) and are not dispatch targets.
	ID uint16
	// Fields lists the serialized fields of a struct, or of the pointee for a sealed reference.
	Fields []Field
	// Elem is the element (Array) or pointee (SealedReference) descriptor.
	Elem *TypeDescriptor
	// ElemSite is the call-site used for array elements.
	ElemSite Site

	registered bool
	prim       *PrimitiveCodec // set for registered named primitives
	elemPrim   PrimitiveCodec

	// write/read are the call-site procedures for the declared type, including null
	// handling for sealed references. writeBody/readBody are what the dispatch table
	// invokes once the concrete type is established.
	write     WriteProc
	read      ReadProc
	writeBody WriteProc
	readBody  ReadProc

	fixedSize int // -1 when the layout is variable
}

// Registered reports whether the type was registered explicitly, as opposed to derived.
func (d *TypeDescriptor) Registered() bool { return d.registered }

// Procedure returns the direct procedures for the declared type. For OpenReference
// types these route through the dispatch table.
func (d *TypeDescriptor) Procedure() Procedure { return Procedure{Write: d.write, Read: d.read} }

// Write writes one occurrence of v, whose type must be d.Type.
func (d *TypeDescriptor) Write(w *Writer, v reflect.Value) { d.write(w, v) }

// Read reads one occurrence into the settable v, whose type must be d.Type.
func (d *TypeDescriptor) Read(r *Reader, v reflect.Value) { d.read(r, v) }

// FixedSize reports the exact encoded size of every occurrence when the layout
// contains no variable-length part.
func (d *TypeDescriptor) FixedSize() (int, bool) { return d.fixedSize, d.fixedSize >= 0 }

func (d *TypeDescriptor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s %s", d.ID, d.Class, d.Type)
	switch d.Class {
	case Array:
		fmt.Fprintf(&b, " [%s]", d.ElemSite)
	case Value, SealedReference:
		for _, f := range d.Fields {
			fmt.Fprintf(&b, " %s:%s", f.Name, f.Site)
		}
	}
	return b.String()
}
