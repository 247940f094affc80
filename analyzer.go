package gencodec

import (
	"fmt"
	"reflect"
)

// analyzer extracts the shape of every registered type and of every composite
// shape reachable from it. It never synthesizes code; it only records declared
// types and the call-site strategy each one implies.
type analyzer struct {
	prims      *Primitives
	registered map[reflect.Type]typeOptions
	descs      map[reflect.Type]*TypeDescriptor
	all        []*TypeDescriptor // discovery order
}

func newAnalyzer(prims *Primitives, registered map[reflect.Type]typeOptions) *analyzer {
	return &analyzer{
		prims:      prims,
		registered: registered,
		descs:      make(map[reflect.Type]*TypeDescriptor, len(registered)),
	}
}

func unsupported(t reflect.Type, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrUnsupportedType, t, reason)
}

// describe returns the descriptor for t, analyzing it on first use. Descriptors are
// memoized before their fields are resolved, so recursive types terminate.
func (a *analyzer) describe(t reflect.Type) (*TypeDescriptor, error) {
	if d, ok := a.descs[t]; ok {
		return d, nil
	}
	opts, reg := a.registered[t]

	d := &TypeDescriptor{Type: t, registered: reg}
	switch t.Kind() {
	case reflect.Struct:
		if !reg && !a.isRegistered(reflect.PointerTo(t)) {
			return nil, unsupported(t, "struct type is not registered")
		}
		if opts.open {
			return nil, unsupported(t, "value types cannot be registered as open")
		}
		d.Class = Value
		a.remember(d)
		if err := a.fields(d); err != nil {
			return nil, err
		}

	case reflect.Pointer:
		elem := t.Elem()
		if elem.Kind() != reflect.Struct {
			return nil, unsupported(t, "only pointers to structs are supported")
		}
		if !reg && !a.isRegistered(elem) {
			return nil, unsupported(t, "pointee is not registered")
		}
		d.Class = SealedReference
		if opts.open {
			d.Class = OpenReference
		}
		a.remember(d)
		ed, err := a.describe(elem)
		if err != nil {
			return nil, err
		}
		d.Elem = ed

	case reflect.Slice, reflect.Array:
		if opts.open {
			return nil, unsupported(t, "array types cannot be registered as open")
		}
		d.Class = Array
		a.remember(d)
		site, ed, prim, err := a.site(t.Elem())
		if err != nil {
			return nil, fmt.Errorf("element of %s: %w", t, err)
		}
		d.ElemSite, d.Elem, d.elemPrim = site, ed, prim

	case reflect.Interface:
		if !reg {
			return nil, unsupported(t, "interface type is not registered")
		}
		d.Class = OpenReference
		a.remember(d)

	default:
		prim, ok := a.prims.Lookup(t)
		if !ok {
			return nil, unsupported(t, "no primitive codec")
		}
		if !reg {
			return nil, unsupported(t, "primitive is not registered")
		}
		if opts.open {
			return nil, unsupported(t, "value types cannot be registered as open")
		}
		d.Class = Value
		d.prim = &prim
		a.remember(d)
	}
	return d, nil
}

func (a *analyzer) remember(d *TypeDescriptor) {
	a.descs[d.Type] = d
	a.all = append(a.all, d)
}

func (a *analyzer) isRegistered(t reflect.Type) bool {
	_, ok := a.registered[t]
	return ok
}

// fields gathers the exported, untagged fields of a struct in declaration order.
// This order is the wire layout.
func (a *analyzer) fields(d *TypeDescriptor) error {
	t := d.Type
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("codec") == "-" {
			continue
		}
		site, fd, prim, err := a.site(sf.Type)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", t, sf.Name, err)
		}
		d.Fields = append(d.Fields, Field{
			Name:  sf.Name,
			Type:  sf.Type,
			Index: i,
			Site:  site,
			desc:  fd,
			prim:  prim,
		})
	}
	return nil
}

// site selects the call-site strategy for a declared type. Registered types and
// composite shapes go through their descriptor, and only OpenReference descriptors
// are reached through the dispatch table.
func (a *analyzer) site(t reflect.Type) (Site, *TypeDescriptor, PrimitiveCodec, error) {
	if !a.isRegistered(t) {
		if prim, ok := a.prims.Lookup(t); ok {
			return SitePrimitive, nil, prim, nil
		}
	}
	d, err := a.describe(t)
	if err != nil {
		return 0, nil, PrimitiveCodec{}, err
	}
	if d.Class == OpenReference {
		return SiteDispatch, d, PrimitiveCodec{}, nil
	}
	return SiteDirect, d, PrimitiveCodec{}, nil
}
