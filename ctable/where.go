package ctable

import (
	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/carray"
	"github.com/coldtable/coldtable/internal/dtype"
	"github.com/coldtable/coldtable/internal/xerrors"
)

// nrowColumn is the reserved pseudo-column name exposing the row index
// during Where iteration (spec §6).
const nrowColumn = "nrow__"

// RowIter zips one per-column where/wheretrue iterator in lockstep, all
// driven by the same boolean mask, skip and limit (spec §4.2's
// CTable.where).
type RowIter struct {
	t     *Table
	names []string
	iters []carray.Iter
	err   error
}

// Where yields row views over the selected outcols where mask (a boolean
// CArray or an expression string) holds true, honoring skip/limit as
// WhereTrue does.
func (t *Table) Where(exprOrMask interface{}, outcols []string, skip, limit int) (*RowIter, error) {
	mask, err := t.resolveMask(exprOrMask)
	if err != nil {
		return nil, err
	}
	if mask.Len() != t.Len() {
		return nil, errors.WithStack(&xerrors.LengthMismatchError{Op: "Where", Name: "mask", Want: t.Len(), Got: mask.Len()})
	}

	iters := make([]carray.Iter, len(outcols))
	for i, name := range outcols {
		if name == nrowColumn {
			iters[i] = carray.WhereTrue(mask, skip, limit)
			continue
		}
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		iters[i] = carray.WhereSkipLimit(col, mask, skip, limit)
	}
	return &RowIter{t: t, names: outcols, iters: iters}, nil
}

func (t *Table) resolveMask(exprOrMask interface{}) (*carray.CArray, error) {
	switch v := exprOrMask.(type) {
	case *carray.CArray:
		return v, nil
	case string:
		return t.evalMask(v)
	default:
		return nil, errors.Errorf("ctable: where: unsupported mask type %T", exprOrMask)
	}
}

// Next advances every per-column iterator in lockstep, returning false
// once any (equivalently, all, since they share skip/limit/mask) is
// exhausted.
func (it *RowIter) Next() bool {
	if it.err != nil {
		return false
	}
	for _, sub := range it.iters {
		if !sub.Next() {
			if rr, ok := sub.(interface{ Err() error }); ok {
				it.err = rr.Err()
			}
			return false
		}
	}
	return true
}

// Row returns the current row as a named record. The nrow__ field, if
// requested, carries an Int64 row index rather than a column dtype.
func (it *RowIter) Row() Row {
	vals := make([][]byte, len(it.names))
	types := make([]dtype.DType, len(it.names))
	for i, sub := range it.iters {
		if it.names[i] == nrowColumn {
			idx := int64(sub.Index())
			b := make([]byte, 8)
			for k := 0; k < 8; k++ {
				b[k] = byte(idx >> (8 * k))
			}
			vals[i] = b
			types[i] = dtype.Scalar(dtype.Int64)
			continue
		}
		vals[i] = sub.Bytes()
		if col, err := it.t.Column(it.names[i]); err == nil {
			types[i] = col.DType()
		}
	}
	return newRow(it.names, types, vals)
}

// Err returns the first error encountered while iterating, if any.
func (it *RowIter) Err() error { return it.err }
