package ctable

import (
	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/internal/xerrors"
)

// Append grows every column by the same row count atomically: cols holds
// one raw byte buffer per table column, in column order, each a multiple
// of its column's item size and all agreeing on row count. On any
// column's failure, every column appended so far in this call is trimmed
// back to its original length before the error is returned (spec §5's
// all-or-nothing guarantee).
func (t *Table) Append(cols [][]byte) error {
	if len(cols) != len(t.cols) {
		return errors.WithStack(&xerrors.ShapeMismatchError{Op: "Append", Expected: len(t.cols), Got: len(cols)})
	}

	rowCount := -1
	for i, buf := range cols {
		itemSize := t.cols[i].ItemSize()
		if itemSize == 0 || len(buf)%itemSize != 0 {
			return errors.WithStack(&xerrors.ShapeMismatchError{Op: "Append", Expected: itemSize, Got: len(buf) % itemSize})
		}
		n := len(buf) / itemSize
		if rowCount == -1 {
			rowCount = n
		} else if n != rowCount {
			return errors.WithStack(&xerrors.LengthMismatchError{Op: "Append", Name: t.names[i], Want: rowCount, Got: n})
		}
	}

	origLens := make([]int, len(t.cols))
	for i, c := range t.cols {
		origLens[i] = c.Len()
	}

	for i, buf := range cols {
		if err := t.cols[i].AppendBytes(buf); err != nil {
			t.rollback(origLens, i)
			return errors.Wrapf(err, "ctable: append column %q", t.names[i])
		}
	}
	return nil
}

// rollback trims every column in [0, upTo] back to its original length,
// undoing a partial Append.
func (t *Table) rollback(origLens []int, upTo int) {
	for i := 0; i <= upTo && i < len(t.cols); i++ {
		c := t.cols[i]
		if c.Len() > origLens[i] {
			_ = c.Trim(c.Len() - origLens[i])
		}
	}
}
