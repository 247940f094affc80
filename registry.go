package gencodec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Builder is the open phase of a registry: it accepts registrations until Build
// closes it. A Builder is safe for concurrent use; Register after Build fails fast.
type Builder struct {
	mu      sync.Mutex
	opts    Options
	order   []reflect.Type
	options map[reflect.Type]typeOptions
	built   bool
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{
		opts:    newOptions(opts),
		options: make(map[reflect.Type]typeOptions),
	}
}

// Register adds t to the registered set. Identifiers are assigned in registration order.
func (b *Builder) Register(t reflect.Type, opts ...TypeOption) error {
	if t == nil {
		return fmt.Errorf("%w: nil type", ErrUnsupportedType)
	}
	var o typeOptions
	for _, opt := range opts {
		opt(&o)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return fmt.Errorf("%w: cannot register %s", ErrAlreadyBuilt, t)
	}
	if _, exists := b.options[t]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, t)
	}
	b.options[t] = o
	b.order = append(b.order, t)
	return nil
}

// Register registers the type argument T on b.
func Register[T any](b *Builder, opts ...TypeOption) error {
	return b.Register(reflect.TypeFor[T](), opts...)
}

// Build closes the builder and produces the immutable Registry: it analyzes every
// registered type, assigns identifiers 1..N in registration order, synthesizes all
// procedures and finally the dispatch table. Build can succeed at most once; any
// later call, and any call after a failed build, returns ErrAlreadyBuilt.
func (b *Builder) Build() (*Registry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true

	if len(b.order) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d registered, at most %d identifiers", ErrTooManyTypes, len(b.order), math.MaxUint16)
	}
	log := b.opts.Logger

	// 1. Shape analysis over the closed set, in registration order.
	a := newAnalyzer(b.opts.Primitives, b.options)
	registered := make([]*TypeDescriptor, len(b.order))
	for i, t := range b.order {
		d, err := a.describe(t)
		if err != nil {
			return nil, err
		}
		d.ID = uint16(i + 1)
		registered[i] = d
	}

	// 2. Procedures for every registered and derived shape. Open call-sites bind to
	// the table now and it is filled in once every body exists.
	table := &DispatchTable{}
	s := &synthesizer{dispatch: table, log: log, sizes: make(map[*TypeDescriptor]int, len(a.all))}
	for _, d := range a.all {
		s.synthesize(d)
	}
	for _, d := range a.all {
		s.fixedSize(d)
	}

	// 3. The dispatcher.
	buildDispatch(table, registered)

	reg := &Registry{
		opts:       b.opts,
		table:      table,
		registered: registered,
		byType:     make(map[reflect.Type]*TypeDescriptor, len(registered)),
		derived:    len(a.all) - len(registered),
	}
	for _, d := range registered {
		reg.byType[d.Type] = d
	}
	reg.warnOrphanInterfaces()

	log.Info("type registry built",
		zap.Int("registered", len(registered)),
		zap.Int("derived", reg.derived),
		zap.Int("dispatch_branches", table.Len()))
	return reg, nil
}

// Build registers types in order on a fresh Builder and builds it.
func Build(types []reflect.Type, opts ...Option) (*Registry, error) {
	b := NewBuilder(opts...)
	for _, t := range types {
		if err := b.Register(t); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Registry is the built, read-only type set. All methods are safe for concurrent
// use without locking.
type Registry struct {
	opts       Options
	table      *DispatchTable
	registered []*TypeDescriptor // identifier order, registered[i].ID == i+1
	byType     map[reflect.Type]*TypeDescriptor
	derived    int
}

// Count returns the number of registered types.
func (r *Registry) Count() int { return len(r.registered) }

// Descriptors returns the registered descriptors in identifier order.
func (r *Registry) Descriptors() []*TypeDescriptor {
	out := make([]*TypeDescriptor, len(r.registered))
	copy(out, r.registered)
	return out
}

// DispatchTable returns the registry's dispatcher.
func (r *Registry) DispatchTable() *DispatchTable { return r.table }

// Lookup returns the descriptor of a registered type.
func (r *Registry) Lookup(t reflect.Type) (*TypeDescriptor, error) {
	if d, ok := r.byType[t]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnregisteredType, t)
}

// ProcedureFor returns the root procedures for a value declared as t.
func (r *Registry) ProcedureFor(t reflect.Type) (Procedure, error) {
	d, err := r.Lookup(t)
	if err != nil {
		return Procedure{}, err
	}
	return d.Procedure(), nil
}

// TypeID returns the dispatch identifier of a registered type.
func (r *Registry) TypeID(t reflect.Type) (uint16, error) {
	d, err := r.Lookup(t)
	if err != nil {
		return 0, err
	}
	return d.ID, nil
}

func (r *Registry) newWriter(w io.Writer) (*Writer, error) {
	cw, err := NewWriter(w)
	if err != nil {
		return nil, err
	}
	return cw.WithByteOrder(r.opts.ByteOrder), nil
}

func (r *Registry) newReader(rd io.Reader) (*Reader, error) {
	cr, err := NewReader(rd)
	if err != nil {
		return nil, err
	}
	return cr.WithByteOrder(r.opts.ByteOrder).WithMaxLength(r.opts.MaxLength), nil
}

// Encode writes v as a tagged occurrence: the uint16 identifier of its runtime
// type, then its payload. A nil v writes identifier 0 only.
func (r *Registry) Encode(w io.Writer, v any) error {
	cw, err := r.newWriter(w)
	if err != nil {
		return err
	}
	r.table.Write(cw, reflect.ValueOf(v))
	_, err = cw.Result()
	return err
}

// Decode reads one tagged occurrence written by Encode.
func (r *Registry) Decode(rd io.Reader) (any, error) {
	cr, err := r.newReader(rd)
	if err != nil {
		return nil, err
	}
	return r.decode(cr)
}

func (r *Registry) decode(cr *Reader) (any, error) {
	var out any
	r.table.Read(cr, reflect.ValueOf(&out).Elem())
	if err := truncation(cr); err != nil {
		return nil, err
	}
	return out, nil
}

// truncation returns the reader's error, reporting ErrTruncatedData when the stream
// ended inside a value. A clean end between values stays io.EOF.
func truncation(cr *Reader) error {
	err := cr.Err()
	if errors.Is(err, io.ErrUnexpectedEOF) || (errors.Is(err, io.EOF) && cr.Count() > 0) {
		return fmt.Errorf("%w: %w", ErrTruncatedData, io.ErrUnexpectedEOF)
	}
	return err
}

// Marshal returns the tagged encoding of v.
func (r *Registry) Marshal(v any) ([]byte, error) {
	buf := bytesBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bytesBufPool.Put(buf)

	if err := r.Encode(buf, v); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Unmarshal decodes exactly one tagged value from data. Anything after the value
// must be zero padding.
func (r *Registry) Unmarshal(data []byte) (any, error) {
	br := NewBytesReader(data)
	cr, err := r.newReader(br)
	if err != nil {
		return nil, err
	}
	v, err := r.decode(cr)
	if err != nil {
		return nil, err
	}
	if err := CheckBufferNotZeros(br.Rest()); err != nil {
		return nil, err
	}
	return v, nil
}

// warnOrphanInterfaces reports registered interfaces that no registered concrete
// type implements. Such call-sites can only ever carry nil.
func (r *Registry) warnOrphanInterfaces() {
	for _, d := range r.registered {
		if d.Type.Kind() != reflect.Interface {
			continue
		}
		implemented := false
		for _, c := range r.registered {
			if c.Type.Kind() != reflect.Interface && c.Type.Implements(d.Type) {
				implemented = true
				break
			}
		}
		if !implemented {
			r.opts.Logger.Warn("registered interface has no registered implementation",
				zap.Stringer("type", d.Type))
		}
	}
}
