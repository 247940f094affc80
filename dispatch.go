package gencodec

import (
	"fmt"
	"reflect"
)

// dispatchCase is one branch of the dispatch table.
type dispatchCase struct {
	typ   reflect.Type // nil for the null case
	write WriteProc
	read  ReadProc
}

// DispatchTable is the single dispatcher behind every OpenReference call-site.
// It is a dense slice indexed by type identifier with exactly one slot per
// registered type plus slot 0 for the null case, so a branch costs one map lookup
// for the runtime type and one bounds-checked index, independent of how many
// types are registered.
type DispatchTable struct {
	cases []dispatchCase
	ids   map[reflect.Type]uint16
}

// Len returns the number of branches, registered types plus the null case.
func (t *DispatchTable) Len() int { return len(t.cases) }

// TypeAt returns the concrete type behind identifier id, or nil for the null case
// and identifiers outside the table.
func (t *DispatchTable) TypeAt(id uint16) reflect.Type {
	if int(id) >= len(t.cases) {
		return nil
	}
	return t.cases[id].typ
}

// resolve returns the runtime identifier of v. Absent values (invalid, nil
// interface, nil pointer) resolve to 0.
func (t *DispatchTable) resolve(v reflect.Value) (reflect.Value, uint16, bool) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v, 0, true
		}
		v = v.Elem()
	}
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return v, 0, true
	}
	id, ok := t.ids[v.Type()]
	return v, id, ok
}

// Write writes the uint16 type tag of v's runtime type followed by that type's payload.
// The tag is written for the null case too. A runtime type that was never registered
// writes nothing and latches ErrUnknownRuntimeType.
func (t *DispatchTable) Write(w *Writer, v reflect.Value) {
	if w.err != nil {
		return
	}
	cv, id, ok := t.resolve(v)
	if !ok {
		w.Fail(fmt.Errorf("%w: %s", ErrUnknownRuntimeType, cv.Type()))
		return
	}

	w.WriteUint16(id)

	switch {
	case id == 0:
		return
	case int(id) < len(t.cases) && t.cases[id].write != nil && t.cases[id].typ == cv.Type():
		t.cases[id].write(w, cv)
	default:
		w.Fail(fmt.Errorf("%w: identifier %d for %s has no branch", ErrUnknownRuntimeType, id, cv.Type()))
	}
}

// Read reads a type tag and the payload that follows it into the settable v.
// Tag 0 stores the zero value of v's type.
func (t *DispatchTable) Read(r *Reader, v reflect.Value) {
	var id uint16
	r.ReadUint16(&id)
	if r.err != nil {
		return
	}
	if id == 0 {
		v.SetZero()
		return
	}
	if int(id) >= len(t.cases) || t.cases[id].read == nil {
		r.Fail(fmt.Errorf("%w: %d", ErrUnknownTypeID, id))
		return
	}
	c := t.cases[id]
	if !c.typ.AssignableTo(v.Type()) {
		r.Fail(fmt.Errorf("%w: %s into %s", ErrTypeMismatch, c.typ, v.Type()))
		return
	}
	cv := reflect.New(c.typ).Elem()
	c.read(r, cv)
	if r.err == nil {
		v.Set(cv)
	}
}

// buildDispatch emits the table for the registered descriptors, which must be
// given in identifier order starting at 1. Interface slots keep their identifier
// for density but have no branch: no runtime value has an interface as its type.
func buildDispatch(table *DispatchTable, registered []*TypeDescriptor) {
	table.cases = make([]dispatchCase, len(registered)+1)
	table.ids = make(map[reflect.Type]uint16, len(registered))
	for _, d := range registered {
		c := dispatchCase{typ: d.Type}
		if d.Type.Kind() != reflect.Interface {
			c.write, c.read = d.writeBody, d.readBody
			table.ids[d.Type] = d.ID
		}
		table.cases[d.ID] = c
	}
}
