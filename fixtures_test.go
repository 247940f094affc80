package gencodec

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// --- Shared test types ---

type Base interface{ base() }

type DerivedA struct{ X int32 }

func (*DerivedA) base() {}

type DerivedB struct{ Y string }

func (*DerivedB) base() {}

// Orphan implements Base but is never registered.
type Orphan struct{ Z int32 }

func (*Orphan) base() {}

// Celsius is a registered named primitive that can travel through Base.
type Celsius float64

func (Celsius) base() {}

type Point struct{ X, Y int16 }

type Shape struct {
	Name    string
	Origin  Point
	Tags    []string
	Parts   []Base
	Anchor  *DerivedA
	Primary Base
	Grid    [2]Point
	Raw     []byte
	hidden  int
	Skip    int `codec:"-"`
}

type Node struct {
	Value int64
	Next  *Node
}

// newShapeRegistry registers, in order:
//
//	1 Base  2 *DerivedA  3 *DerivedB  4 []Base  5 Point  6 *Shape  7 *Node  8 Celsius
func newShapeRegistry(t testing.TB, opts ...Option) *Registry {
	t.Helper()
	b := NewBuilder(opts...)
	require.NoError(t, Register[Base](b))
	require.NoError(t, Register[*DerivedA](b))
	require.NoError(t, Register[*DerivedB](b))
	require.NoError(t, Register[[]Base](b))
	require.NoError(t, Register[Point](b))
	require.NoError(t, Register[*Shape](b))
	require.NoError(t, Register[*Node](b))
	require.NoError(t, Register[Celsius](b))
	reg, err := b.Build()
	require.NoError(t, err)
	return reg
}

func sampleShape() *Shape {
	return &Shape{
		Name:    "hexagon",
		Origin:  Point{X: -3, Y: 9},
		Tags:    []string{"a", "", "long tag"},
		Parts:   []Base{&DerivedA{X: 1}, nil, &DerivedB{Y: "hi"}, Celsius(21.5)},
		Anchor:  &DerivedA{X: 42},
		Primary: &DerivedB{Y: "primary"},
		Grid:    [2]Point{{1, 2}, {3, 4}},
		Raw:     []byte{0xDE, 0xAD, 0xBE, 0xEF},
	}
}

// allocatedBytes reports how many bytes the heap handed out while f ran.
func allocatedBytes(f func()) uint64 {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	f()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}
