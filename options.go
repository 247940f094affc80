package gencodec

import (
	"encoding/binary"

	"go.uber.org/zap"
)

// DefaultMaxLength bounds decoded counts and string lengths unless overridden.
const DefaultMaxLength = 1 << 26

// Options configures a Builder and the Registry it produces.
type Options struct {
	// ByteOrder is used by Encode/Decode/Marshal/Unmarshal and Typed handles.
	ByteOrder binary.ByteOrder
	// Primitives supplies the codecs for built-in scalar kinds.
	Primitives *Primitives
	// Logger receives build-phase diagnostics.
	Logger *zap.Logger
	// MaxLength bounds every decoded element count and string length. 0 disables the check.
	MaxLength int
}

// Option mutates Options.
type Option func(*Options)

func WithByteOrder(order binary.ByteOrder) Option { return func(o *Options) { o.ByteOrder = order } }
func WithPrimitives(p *Primitives) Option         { return func(o *Options) { o.Primitives = p } }
func WithLogger(l *zap.Logger) Option             { return func(o *Options) { o.Logger = l } }
func WithMaxLength(n int) Option                  { return func(o *Options) { o.MaxLength = n } }

func newOptions(opts []Option) Options {
	o := Options{
		ByteOrder:  Order,
		Primitives: DefaultPrimitives(),
		Logger:     Logger(),
		MaxLength:  DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ByteOrder == nil {
		o.ByteOrder = Order
	}
	if o.Primitives == nil {
		o.Primitives = DefaultPrimitives()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// TypeOption configures a single registration.
type TypeOption func(*typeOptions)

type typeOptions struct {
	open bool
}

// AsOpen registers a pointer type as a dispatch target: every call-site declared
// with that type writes a type tag and goes through the dispatch table instead of
// calling the type's procedure directly.
func AsOpen() TypeOption { return func(o *typeOptions) { o.open = true } }
