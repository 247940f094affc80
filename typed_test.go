package gencodec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TypedTestSuite struct {
	suite.Suite
	reg *Registry
}

func (s *TypedTestSuite) SetupSuite() {
	s.reg = newShapeRegistry(s.T())
}

func (s *TypedTestSuite) TestFixedValue() {
	c, err := Bind(s.reg, Point{X: 1, Y: 2})
	s.Require().NoError(err)
	s.Assert().Equal(4, c.Size())

	data, err := c.MarshalBinary()
	s.Require().NoError(err)
	s.Assert().Equal([]byte{0x00, 0x01, 0x00, 0x02}, data, "a value type carries no tag")

	s.T().Run("MarshalTo", func(t *testing.T) {
		buf := make([]byte, 6)
		n, err := c.MarshalTo(buf)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, data, buf[:n])

		_, err = c.MarshalTo(make([]byte, 3))
		assert.ErrorIs(t, err, io.ErrShortWrite)
	})

	s.T().Run("Unmarshal", func(t *testing.T) {
		back, err := Bind(s.reg, Point{})
		require.NoError(t, err)
		require.NoError(t, back.UnmarshalBinary(data))
		assert.Equal(t, Point{X: 1, Y: 2}, back.Value)

		require.NoError(t, back.UnmarshalBinary(append(data, 0, 0)), "zero padding is allowed")
		assert.ErrorIs(t, back.UnmarshalBinary(append(data, 7)), ErrTrailingData)
	})

	s.T().Run("Truncated", func(t *testing.T) {
		back, err := Bind(s.reg, Point{X: 9, Y: 9})
		require.NoError(t, err)
		err = back.UnmarshalBinary([]byte{0x00, 0x01})
		assert.ErrorIs(t, err, ErrTruncatedData)
		assert.Equal(t, Point{X: 9, Y: 9}, back.Value)
	})
}

func (s *TypedTestSuite) TestSealedReference() {
	c, err := Bind(s.reg, &DerivedA{X: 3})
	s.Require().NoError(err)

	data, err := c.MarshalBinary()
	s.Require().NoError(err)
	s.Assert().Equal([]byte{0x01, 0x00, 0x00, 0x00, 0x03}, data, "presence byte, then the payload")
	s.Assert().Equal(len(data), c.Size())

	c.Value = nil
	data, err = c.MarshalBinary()
	s.Require().NoError(err)
	s.Assert().Equal([]byte{0x00}, data)
	s.Require().NoError(c.UnmarshalBinary([]byte{0x01, 0x00, 0x00, 0x00, 0x04}))
	s.Assert().Equal(&DerivedA{X: 4}, c.Value)
}

func (s *TypedTestSuite) TestOpenReference() {
	c, err := Bind[Base](s.reg, &DerivedB{Y: "z"})
	s.Require().NoError(err)
	s.Assert().Equal(2+4+1, c.Size())

	data, err := c.MarshalBinary()
	s.Require().NoError(err)
	s.Assert().Equal([]byte{0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 'z'}, data)

	back, err := Bind[Base](s.reg, nil)
	s.Require().NoError(err)
	s.Require().NoError(back.UnmarshalBinary(data))
	s.Assert().Equal(&DerivedB{Y: "z"}, back.Value)
}

func (s *TypedTestSuite) TestUnencodableValue() {
	c, err := Bind(s.reg, []Base{&DerivedA{X: 1}, &Orphan{Z: 2}})
	s.Require().NoError(err)
	s.Assert().Equal(-1, c.Size(), "a value that cannot be encoded has no size")

	_, err = c.MarshalBinary()
	s.Assert().ErrorIs(err, ErrUnknownRuntimeType)
	_, err = c.MarshalTo(make([]byte, 64))
	s.Assert().ErrorIs(err, ErrUnknownRuntimeType)
}

func (s *TypedTestSuite) TestRecursiveSize() {
	c, err := Bind(s.reg, &Node{Value: 1, Next: &Node{Value: 2}})
	s.Require().NoError(err)

	data, err := c.MarshalBinary()
	s.Require().NoError(err)
	s.Assert().Equal(len(data), c.Size())
	// presence + value, presence + value, nil presence
	s.Assert().Len(data, 1+8+1+8+1)
}

func (s *TypedTestSuite) TestStreaming() {
	c, err := Bind(s.reg, sampleShape())
	s.Require().NoError(err)

	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	s.Require().NoError(err)
	s.Assert().EqualValues(c.Size(), n)

	back, err := Bind[*Shape](s.reg, nil)
	s.Require().NoError(err)
	m, err := back.ReadFrom(&buf)
	s.Require().NoError(err)
	s.Assert().Equal(n, m)
	s.Assert().Equal(sampleShape(), back.Value)
}

func TestTyped(t *testing.T) {
	suite.Run(t, new(TypedTestSuite))
}
