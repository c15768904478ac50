package eval

import (
	"github.com/coldtable/coldtable/carray"
	"github.com/coldtable/coldtable/internal/dtype"
)

// Operand is a named value participating in an expression (spec §4.3): a
// scalar contributes no length constraint, while a length-bearing operand
// must agree in length with every other length-bearing operand.
type Operand interface {
	DType() dtype.DType
	// Len returns the element count, or -1 for a scalar operand.
	Len() int
}

// Ranger is implemented by length-bearing operands that can stream a
// window of raw element bytes into the block loop without materializing
// their whole extent (spec §4.3's get_range primitive).
type Ranger interface {
	Operand
	// GetRange returns the raw bytes of elements [start, start+n), exactly
	// n*ItemSize bytes. buf is the slice returned by the previous call for
	// the same operand; Dense and FromCArray do not reuse it (Dense returns
	// a view of its buffer, FromCArray a freshly allocated slice).
	GetRange(start, n int, buf []byte) ([]byte, error)
}

// Scalar wraps a single value with no length, e.g. a literal or a Go
// constant passed in through an explicit env map.
type Scalar struct {
	Type  dtype.DType
	Bytes []byte // ItemSize() bytes
}

func (s Scalar) DType() dtype.DType { return s.Type }
func (s Scalar) Len() int           { return -1 }

// Dense wraps an already-materialized contiguous buffer, e.g. the output
// of a prior eval with out_flavor=dense, or caller-owned data.
type Dense struct {
	Type dtype.DType
	Buf  []byte
}

func (d Dense) DType() dtype.DType { return d.Type }
func (d Dense) Len() int           { return len(d.Buf) / d.Type.ItemSize() }

func (d Dense) GetRange(start, n int, buf []byte) ([]byte, error) {
	itemSize := d.Type.ItemSize()
	return d.Buf[start*itemSize : (start+n)*itemSize], nil
}

// FromCArray wraps a carray.CArray as a length-bearing Operand, streaming
// windows via its SliceBytes.
type FromCArray struct {
	A *carray.CArray
}

func (c FromCArray) DType() dtype.DType { return c.A.DType() }
func (c FromCArray) Len() int           { return c.A.Len() }

func (c FromCArray) GetRange(start, n int, buf []byte) ([]byte, error) {
	return c.A.SliceBytes(start, start+n, 1)
}
