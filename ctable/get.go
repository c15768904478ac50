package ctable

import (
	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/carray"
	"github.com/coldtable/coldtable/config"
	"github.com/coldtable/coldtable/eval"
	"github.com/coldtable/coldtable/internal/dtype"
	"github.com/coldtable/coldtable/internal/xerrors"
)

// GetRow returns row i as a named record (spec §4.2's integer-key
// branch).
func (t *Table) GetRow(i int) (Row, error) {
	vals := make([][]byte, len(t.cols))
	types := make([]dtype.DType, len(t.cols))
	for c, col := range t.cols {
		b, err := col.GetBytes(i)
		if err != nil {
			return Row{}, errors.Wrapf(err, "ctable: get row %d, column %q", i, t.names[c])
		}
		vals[c] = b
		types[c] = col.DType()
	}
	return newRow(t.names, types, vals), nil
}

// GetSlice returns a dense RowSet for rows [start, stop) across every
// column (spec §4.2's slice-key branch).
func (t *Table) GetSlice(start, stop int) (RowSet, error) {
	rs := RowSet{names: t.names, n: stop - start}
	rs.types = make([]dtype.DType, len(t.cols))
	rs.cols = make([][]byte, len(t.cols))
	for i, c := range t.cols {
		buf, err := c.SliceBytes(start, stop, 1)
		if err != nil {
			return RowSet{}, errors.Wrapf(err, "ctable: slice column %q", t.names[i])
		}
		rs.cols[i] = buf
		rs.types[i] = c.DType()
	}
	return rs, nil
}

// GetNames returns a new Table sharing the named columns, in the order
// requested (spec §4.2's name-list-key branch).
func (t *Table) GetNames(names []string) (*Table, error) {
	cols := make([]*carray.CArray, len(names))
	for i, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return New(cols, names, Options{Params: t.cparams})
}

// GetIntArray returns the dense RowSet gathered row-wise at the given
// positions (spec §4.2's integer-array-key branch).
func (t *Table) GetIntArray(indices []int) (RowSet, error) {
	rs := RowSet{names: t.names, n: len(indices)}
	rs.types = make([]dtype.DType, len(t.cols))
	rs.cols = make([][]byte, len(t.cols))
	for i, c := range t.cols {
		itemSize := c.ItemSize()
		buf := make([]byte, 0, len(indices)*itemSize)
		for _, idx := range indices {
			b, err := c.GetBytes(idx)
			if err != nil {
				return RowSet{}, errors.Wrapf(err, "ctable: gather column %q", t.names[i])
			}
			buf = append(buf, b...)
		}
		rs.cols[i] = buf
		rs.types[i] = c.DType()
	}
	return rs, nil
}

// GetBoolMask returns the dense RowSet of rows where mask is true (spec
// §4.2's boolean-array-key branch).
func (t *Table) GetBoolMask(mask *carray.CArray) (RowSet, error) {
	if mask.Len() != t.Len() {
		return RowSet{}, errors.WithStack(&xerrors.LengthMismatchError{Op: "Get", Name: "mask", Want: t.Len(), Got: mask.Len()})
	}
	var indices []int
	it := carray.WhereTrue(mask, 0, -1)
	for it.Next() {
		indices = append(indices, it.Index())
	}
	if err := it.Err(); err != nil {
		return RowSet{}, err
	}
	return t.GetIntArray(indices)
}

// GetExpr evaluates key as an expression against the table's columns; if
// the result is boolean it returns the masked RowSet, otherwise it fails
// with InvalidKey (spec §4.2's expression-string-key branch).
func (t *Table) GetExpr(key string) (RowSet, error) {
	res, err := t.Eval(key, eval.Options{OutFlavor: config.CArrayFlavor})
	if err != nil {
		return RowSet{}, err
	}
	if res.Scalar || res.Kind != dtype.Bool || res.CArray == nil {
		return RowSet{}, errors.WithStack(&xerrors.InvalidKeyError{Key: key})
	}
	return t.GetBoolMask(res.CArray)
}
