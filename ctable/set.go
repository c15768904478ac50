package ctable

import (
	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/carray"
	"github.com/coldtable/coldtable/config"
	"github.com/coldtable/coldtable/eval"
	"github.com/coldtable/coldtable/internal/dtype"
	"github.com/coldtable/coldtable/internal/xerrors"
)

// SetRow overwrites row i across every column (spec §4.2's "any other
// key" branch, forwarded per-column).
func (t *Table) SetRow(i int, row Row) error {
	for c, col := range t.cols {
		b, err := row.At(c)
		if err != nil {
			return err
		}
		if err := col.SetBytes(i, b); err != nil {
			return errors.Wrapf(err, "ctable: set row %d, column %q", i, t.names[c])
		}
	}
	return nil
}

// SetIndices overwrites the rows at the given positions across every
// column, gathering each column's values from rows.
func (t *Table) SetIndices(indices []int, rows RowSet) error {
	if rows.n != len(indices) {
		return errors.WithStack(&xerrors.LengthMismatchError{Op: "SetIndices", Name: "rows", Want: len(indices), Got: rows.n})
	}
	for c, col := range t.cols {
		itemSize := col.ItemSize()
		vals := make([][]byte, len(indices))
		for i := range indices {
			vals[i] = rows.cols[c][i*itemSize : (i+1)*itemSize]
		}
		if err := col.SetIndicesBytes(indices, vals); err != nil {
			return errors.Wrapf(err, "ctable: set indices, column %q", t.names[c])
		}
	}
	return nil
}

// SetMaskBroadcast assigns the same row to every position where mask is
// true, across every column (spec §4.2's boolean-expression set branch
// with a scalar value).
func (t *Table) SetMaskBroadcast(mask *carray.CArray, row Row) error {
	indices, err := trueIndices(mask)
	if err != nil {
		return err
	}
	for c, col := range t.cols {
		b, err := row.At(c)
		if err != nil {
			return err
		}
		vals := make([][]byte, len(indices))
		for i := range indices {
			vals[i] = b
		}
		if err := col.SetIndicesBytes(indices, vals); err != nil {
			return errors.Wrapf(err, "ctable: set masked broadcast, column %q", t.names[c])
		}
	}
	return nil
}

// SetMaskRows assigns one row per true position of mask, in order, across
// every column (spec §4.2's boolean-expression set branch with a
// one-row-per-true record buffer).
func (t *Table) SetMaskRows(mask *carray.CArray, rows RowSet) error {
	indices, err := trueIndices(mask)
	if err != nil {
		return err
	}
	return t.SetIndices(indices, rows)
}

// SetExprBroadcast evaluates expr (which must produce a boolean result)
// and assigns row to every row where it is true. The mask is evaluated
// and fully materialized before any mutation begins (spec §9's Open
// Question decision: snapshot the boolean mask before mutation, since
// reading and writing the same columns within one set call is otherwise
// undefined).
func (t *Table) SetExprBroadcast(expr string, row Row) error {
	mask, err := t.evalMask(expr)
	if err != nil {
		return err
	}
	return t.SetMaskBroadcast(mask, row)
}

// SetExprRows is SetExprBroadcast's one-row-per-true-match counterpart.
func (t *Table) SetExprRows(expr string, rows RowSet) error {
	mask, err := t.evalMask(expr)
	if err != nil {
		return err
	}
	return t.SetMaskRows(mask, rows)
}

func (t *Table) evalMask(expr string) (*carray.CArray, error) {
	res, err := t.Eval(expr, eval.Options{OutFlavor: config.CArrayFlavor})
	if err != nil {
		return nil, err
	}
	if res.Scalar || res.Kind != dtype.Bool || res.CArray == nil {
		return nil, errors.WithStack(&xerrors.InvalidKeyError{Key: expr})
	}
	return res.CArray, nil
}

func trueIndices(mask *carray.CArray) ([]int, error) {
	var indices []int
	it := carray.WhereTrue(mask, 0, -1)
	for it.Next() {
		indices = append(indices, it.Index())
	}
	return indices, it.Err()
}
