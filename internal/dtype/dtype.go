// Package dtype implements the fixed-width numeric element type descriptor
// from spec §3: every CArray has one scalar DType for its lifetime, and
// every CTable row is addressed through a record DType built from its
// columns' DTypes.
package dtype

import "fmt"

// Kind is a fixed-width numeric descriptor.
type Kind uint8

const (
	Int8 Kind = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	// Bool is a one-byte boolean element, used for mask CArrays produced
	// by the evaluator and consumed by WhereTrue/Where.
	Bool
)

var kindNames = map[Kind]string{
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	Uint8: "uint8", Uint16: "uint16", Uint32: "uint32", Uint64: "uint64",
	Float32: "float32", Float64: "float64", Bool: "bool",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

var kindSize = map[Kind]int{
	Int8: 1, Int16: 2, Int32: 4, Int64: 8,
	Uint8: 1, Uint16: 2, Uint32: 4, Uint64: 8,
	Float32: 4, Float64: 8, Bool: 1,
}

// IsFloat reports whether k is one of the IEEE float kinds.
func (k Kind) IsFloat() bool {
	return k == Float32 || k == Float64
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool {
	switch k {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool {
	switch k {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

// Field is one (name, type) pair of a record DType.
type Field struct {
	Name string
	Type DType
}

// DType is either a scalar numeric kind or an ordered list of named fields
// (a record dtype). Record dtypes are only legal as a CTable row view
// (spec §3); constructing a CArray with a record DType is a programmer
// error.
type DType struct {
	Kind   Kind
	Record []Field
}

// Scalar builds a scalar DType of the given kind.
func Scalar(k Kind) DType {
	return DType{Kind: k}
}

// NewRecord builds a record DType from an ordered list of fields.
func NewRecord(fields []Field) DType {
	return DType{Record: fields}
}

// IsRecord reports whether d is a record dtype.
func (d DType) IsRecord() bool {
	return d.Record != nil
}

// ItemSize returns the fixed byte width of one element: the scalar kind's
// width, or the sum of a record dtype's field widths.
func (d DType) ItemSize() int {
	if d.IsRecord() {
		total := 0
		for _, f := range d.Record {
			total += f.Type.ItemSize()
		}
		return total
	}
	return kindSize[d.Kind]
}

// Equal reports whether d and other describe the same element layout.
func (d DType) Equal(other DType) bool {
	if d.IsRecord() != other.IsRecord() {
		return false
	}
	if !d.IsRecord() {
		return d.Kind == other.Kind
	}
	if len(d.Record) != len(other.Record) {
		return false
	}
	for i, f := range d.Record {
		g := other.Record[i]
		if f.Name != g.Name || !f.Type.Equal(g.Type) {
			return false
		}
	}
	return true
}

func (d DType) String() string {
	if !d.IsRecord() {
		return d.Kind.String()
	}
	s := "record{"
	for i, f := range d.Record {
		if i > 0 {
			s += ", "
		}
		s += f.Name + " " + f.Type.String()
	}
	return s + "}"
}
