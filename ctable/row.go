package ctable

import (
	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/internal/dtype"
	"github.com/coldtable/coldtable/internal/xerrors"
)

// Row is a packed, heterogeneous record built from one element per
// column (spec §9's Design Note: a packed record buffer rather than a
// generated per-shape type). It is addressable positionally via At or by
// name via Field.
type Row struct {
	names  []string
	nameAt map[string]int
	types  []dtype.DType
	vals   [][]byte
}

func newRow(names []string, types []dtype.DType, vals [][]byte) Row {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return Row{names: names, nameAt: idx, types: types, vals: vals}
}

// Len returns the number of fields in the row.
func (r Row) Len() int { return len(r.vals) }

// Names returns the row's field names in column order.
func (r Row) Names() []string { return r.names }

// At returns the raw bytes of the i'th field.
func (r Row) At(i int) ([]byte, error) {
	if i < 0 || i >= len(r.vals) {
		return nil, errors.WithStack(&xerrors.OutOfRangeError{Op: "Row.At", Index: i, Len: len(r.vals)})
	}
	return r.vals[i], nil
}

// Field returns the raw bytes of the named field.
func (r Row) Field(name string) ([]byte, error) {
	i, ok := r.nameAt[name]
	if !ok {
		return nil, errors.WithStack(&xerrors.UnknownColumnError{Name: name})
	}
	return r.vals[i], nil
}

// DType returns the dtype of the i'th field.
func (r Row) DType(i int) dtype.DType { return r.types[i] }

// RowSet is the dense record buffer spec §4.2 returns from slice/
// int-array/bool-mask/expression indexing: one dense byte column per
// table column, all of the same row count.
type RowSet struct {
	names []string
	types []dtype.DType
	n     int
	cols  [][]byte
}

// N returns the number of rows held.
func (rs RowSet) N() int { return rs.n }

// Names returns the RowSet's field names in column order.
func (rs RowSet) Names() []string { return rs.names }

// Column returns the dense buffer for the named field.
func (rs RowSet) Column(name string) ([]byte, dtype.DType, error) {
	for i, n := range rs.names {
		if n == name {
			return rs.cols[i], rs.types[i], nil
		}
	}
	return nil, dtype.DType{}, errors.WithStack(&xerrors.UnknownColumnError{Name: name})
}

// Row materializes the i'th row of the set as a Row.
func (rs RowSet) Row(i int) (Row, error) {
	if i < 0 || i >= rs.n {
		return Row{}, errors.WithStack(&xerrors.OutOfRangeError{Op: "RowSet.Row", Index: i, Len: rs.n})
	}
	vals := make([][]byte, len(rs.cols))
	for c, buf := range rs.cols {
		sz := rs.types[c].ItemSize()
		vals[c] = buf[i*sz : (i+1)*sz]
	}
	return newRow(rs.names, rs.types, vals), nil
}
