package gencodec

import (
	"sync"
	"sync/atomic"
)

// LazyRegistry builds a registry on first use. The first caller runs the build
// while holding the lock; concurrent callers block until it completes, and every
// later call is a single atomic load.
type LazyRegistry struct {
	mu    sync.Mutex
	reg   atomic.Pointer[Registry]
	err   error
	setup func(*Builder) error
	opts  []Option
}

// NewLazyRegistry returns a LazyRegistry whose builder is populated by setup.
func NewLazyRegistry(setup func(*Builder) error, opts ...Option) *LazyRegistry {
	return &LazyRegistry{setup: setup, opts: opts}
}

// Get returns the built registry, building it if necessary. A failed build is
// not retried; its error is returned to every caller.
func (l *LazyRegistry) Get() (*Registry, error) {
	if reg := l.reg.Load(); reg != nil {
		return reg, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if reg := l.reg.Load(); reg != nil {
		return reg, nil
	}
	if l.err != nil {
		return nil, l.err
	}

	b := NewBuilder(l.opts...)
	if l.setup != nil {
		if err := l.setup(b); err != nil {
			l.err = err
			return nil, err
		}
	}
	reg, err := b.Build()
	if err != nil {
		l.err = err
		return nil, err
	}
	l.reg.Store(reg)
	return reg, nil
}

// MustGet is like Get but panics if the build fails. It suits package-level
// registries whose type set is fixed at compile time.
func (l *LazyRegistry) MustGet() *Registry {
	reg, err := l.Get()
	if err != nil {
		panic(err)
	}
	return reg
}
