package gencodec

import (
	"io"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type WithMap struct{ M map[string]int }

type Loose struct{ A int }

type HasLoose struct{ L Loose }

type HasReader struct{ R io.Reader }

type HasChan struct{ C chan int }

func TestAnalyzerShapeFields(t *testing.T) {
	reg := newShapeRegistry(t)

	d, err := reg.Lookup(reflect.TypeFor[*Shape]())
	require.NoError(t, err)
	assert.Equal(t, SealedReference, d.Class)
	require.NotNil(t, d.Elem)
	assert.Equal(t, reflect.TypeFor[Shape](), d.Elem.Type)
	assert.False(t, d.Elem.Registered())
	assert.Zero(t, d.Elem.ID, "derived shapes carry no identifier")

	type fieldSite struct {
		Name string
		Site Site
	}
	var got []fieldSite
	for _, f := range d.Fields {
		got = append(got, fieldSite{f.Name, f.Site})
	}
	assert.Equal(t, []fieldSite{
		{"Name", SitePrimitive},
		{"Origin", SiteDirect},
		{"Tags", SiteDirect},
		{"Parts", SiteDirect},
		{"Anchor", SiteDirect},
		{"Primary", SiteDispatch},
		{"Grid", SiteDirect},
		{"Raw", SiteDirect},
	}, got, "hidden and codec:\"-\" fields are skipped, the rest keep declaration order")

	assert.Equal(t, "6 sealed *gencodec.Shape Name:primitive Origin:direct Tags:direct Parts:direct"+
		" Anchor:direct Primary:dispatch Grid:direct Raw:direct", d.String())
}

func TestAnalyzerClassification(t *testing.T) {
	reg := newShapeRegistry(t)

	tests := []struct {
		typ   reflect.Type
		class Classification
	}{
		{reflect.TypeFor[Base](), OpenReference},
		{reflect.TypeFor[*DerivedA](), SealedReference},
		{reflect.TypeFor[*DerivedB](), SealedReference},
		{reflect.TypeFor[[]Base](), Array},
		{reflect.TypeFor[Point](), Value},
		{reflect.TypeFor[*Shape](), SealedReference},
		{reflect.TypeFor[*Node](), SealedReference},
		{reflect.TypeFor[Celsius](), Value},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			d, err := reg.Lookup(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.class, d.Class)
			assert.True(t, d.Registered())
		})
	}

	arr, err := reg.Lookup(reflect.TypeFor[[]Base]())
	require.NoError(t, err)
	assert.Equal(t, SiteDispatch, arr.ElemSite)
	assert.Equal(t, OpenReference, arr.Elem.Class)
}

func TestAnalyzerOpenFieldsAlwaysDispatch(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, Register[Base](b))
	require.NoError(t, Register[*DerivedA](b, AsOpen()))
	require.NoError(t, Register[*Shape](b))
	require.NoError(t, Register[Point](b))
	reg, err := b.Build()
	require.NoError(t, err)

	d, err := reg.Lookup(reflect.TypeFor[*Shape]())
	require.NoError(t, err)
	for _, f := range d.Fields {
		if f.desc != nil && f.desc.Class == OpenReference {
			assert.Equal(t, SiteDispatch, f.Site, f.Name)
		} else {
			assert.NotEqual(t, SiteDispatch, f.Site, f.Name)
		}
	}
	assert.Equal(t, SiteDispatch, d.Fields[4].Site, "Anchor is declared with an open pointer type")
}

func TestAnalyzerFixedSize(t *testing.T) {
	reg := newShapeRegistry(t)

	size := func(typ reflect.Type) (int, bool) {
		d, err := reg.Lookup(typ)
		require.NoError(t, err)
		return d.FixedSize()
	}

	n, ok := size(reflect.TypeFor[Point]())
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	n, ok = size(reflect.TypeFor[Celsius]())
	assert.True(t, ok)
	assert.Equal(t, 8, n)

	for _, typ := range []reflect.Type{
		reflect.TypeFor[Base](),
		reflect.TypeFor[*DerivedA](),
		reflect.TypeFor[[]Base](),
		reflect.TypeFor[*Node](),
	} {
		_, ok := size(typ)
		assert.False(t, ok, typ.String())
	}

	shape, err := reg.Lookup(reflect.TypeFor[*Shape]())
	require.NoError(t, err)
	grid := shape.Fields[6]
	require.Equal(t, "Grid", grid.Name)
	n, ok = grid.desc.FixedSize()
	assert.True(t, ok)
	assert.Equal(t, 4+2*4, n)
}

func TestAnalyzerUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		types []reflect.Type
		want  string
	}{
		{"MapField", []reflect.Type{reflect.TypeFor[*WithMap]()}, "WithMap.M"},
		{"UnregisteredStructField", []reflect.Type{reflect.TypeFor[*HasLoose]()}, "HasLoose.L"},
		{"UnregisteredInterfaceField", []reflect.Type{reflect.TypeFor[*HasReader]()}, "HasReader.R"},
		{"ChanField", []reflect.Type{reflect.TypeFor[*HasChan]()}, "HasChan.C"},
		{"PointerToScalar", []reflect.Type{reflect.TypeFor[*int]()}, "*int"},
		{"Func", []reflect.Type{reflect.TypeFor[func()]()}, "func()"},
		{"SliceOfMaps", []reflect.Type{reflect.TypeFor[[]map[int]int]()}, "element of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.types)
			require.ErrorIs(t, err, ErrUnsupportedType)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("OpenValueTypes", func(t *testing.T) {
		for _, typ := range []reflect.Type{
			reflect.TypeFor[Point](),
			reflect.TypeFor[[]int32](),
			reflect.TypeFor[Celsius](),
		} {
			b := NewBuilder()
			require.NoError(t, b.Register(typ, AsOpen()))
			_, err := b.Build()
			assert.ErrorIs(t, err, ErrUnsupportedType, typ.String())
		}
	})

	t.Run("RegisteringThePointeeMakesItReachable", func(t *testing.T) {
		_, err := Build([]reflect.Type{reflect.TypeFor[*HasLoose](), reflect.TypeFor[Loose]()})
		assert.NoError(t, err)
	})
}

func TestAnalyzerRegisteredPrimitiveUsesDirectSite(t *testing.T) {
	type Reading struct {
		Temp  Celsius
		Other float64
	}
	reg, err := Build([]reflect.Type{reflect.TypeFor[Celsius](), reflect.TypeFor[*Reading]()})
	require.NoError(t, err)

	d, err := reg.Lookup(reflect.TypeFor[*Reading]())
	require.NoError(t, err)
	assert.Equal(t, SiteDirect, d.Fields[0].Site)
	assert.Equal(t, SitePrimitive, d.Fields[1].Site)

	data, err := reg.Marshal(&Reading{Temp: 2, Other: 2})
	require.NoError(t, err)
	assert.Equal(t, data[2:10], data[10:], "both encode as float64 bits")
}
