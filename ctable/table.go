// Package ctable implements the named, ordered collection of equal-length
// CArrays from spec §4.2: column management, row/slice/mask/expression
// indexing, atomic multi-column append, and expression-driven iteration.
package ctable

import (
	"go/token"
	"regexp"

	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/carray"
	"github.com/coldtable/coldtable/internal/codec"
	"github.com/coldtable/coldtable/internal/debug"
	"github.com/coldtable/coldtable/internal/dtype"
	"github.com/coldtable/coldtable/internal/xerrors"
)

// Table is an ordered, name-addressed collection of equal-length CArrays.
type Table struct {
	cols    []*carray.CArray
	names   []string
	nameIdx map[string]int
	cparams codec.Params
}

// Options configures a new Table.
type Options struct {
	// Params is the table's compression setting: Eval uses it for CArray
	// results when the caller sets none, and GetNames passes it on. New,
	// AddCol and Append do not convert dense buffers into CArrays: New and
	// AddCol take existing CArrays, and Append writes into existing columns.
	Params codec.Params
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdent(name string) bool {
	if !identPattern.MatchString(name) {
		return false
	}
	return !token.IsKeyword(name)
}

// New builds a Table from an ordered list of columns and optional names
// (nil or a shorter slice synthesizes f0, f1, ... for the remainder).
// All columns must already share the same length.
func New(columns []*carray.CArray, names []string, opts Options) (*Table, error) {
	t := &Table{cparams: opts.Params, nameIdx: make(map[string]int, len(columns))}

	if len(columns) > 0 {
		want := columns[0].Len()
		for i, c := range columns {
			if c.Len() != want {
				return nil, errors.WithStack(&xerrors.LengthMismatchError{Op: "New", Name: colName(names, i), Want: want, Got: c.Len()})
			}
		}
	}

	for i, c := range columns {
		name := colName(names, i)
		if !validIdent(name) {
			return nil, errors.WithStack(&xerrors.InvalidConfigError{Field: "name", Value: name})
		}
		if _, dup := t.nameIdx[name]; dup {
			return nil, errors.WithStack(&xerrors.DuplicateColumnError{Name: name})
		}
		t.nameIdx[name] = len(t.cols)
		t.cols = append(t.cols, c)
		t.names = append(t.names, name)
	}
	debug.Log("ctable: New with %d columns", len(t.cols))
	return t, nil
}

func colName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return synthName(i)
}

func synthName(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "f" + string(digits[i])
	}
	// f10, f11, ... — rare in practice but handled for completeness.
	buf := []byte{'f'}
	s := []byte{}
	for i > 0 {
		s = append([]byte{digits[i%10]}, s...)
		i /= 10
	}
	return string(append(buf, s...))
}

// Len returns the table's row count (the shared column length), or 0 for
// a column-less table.
func (t *Table) Len() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// Names returns the table's column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Column returns the named column by shared reference (spec §4.2: "by
// shared reference, not a copy").
func (t *Table) Column(name string) (*carray.CArray, error) {
	i, ok := t.nameIdx[name]
	if !ok {
		return nil, errors.WithStack(&xerrors.UnknownColumnError{Name: name})
	}
	return t.cols[i], nil
}

// AddCol inserts column at position pos (pos < 0 means append at the
// end). Fails if name already exists or column's length disagrees with
// the table's current length.
func (t *Table) AddCol(column *carray.CArray, name string, pos int) error {
	if !validIdent(name) {
		return errors.WithStack(&xerrors.InvalidConfigError{Field: "name", Value: name})
	}
	if _, dup := t.nameIdx[name]; dup {
		return errors.WithStack(&xerrors.DuplicateColumnError{Name: name})
	}
	if len(t.cols) > 0 && column.Len() != t.Len() {
		return errors.WithStack(&xerrors.LengthMismatchError{Op: "AddCol", Name: name, Want: t.Len(), Got: column.Len()})
	}
	if pos < 0 || pos > len(t.cols) {
		pos = len(t.cols)
	}

	t.cols = append(t.cols, nil)
	copy(t.cols[pos+1:], t.cols[pos:])
	t.cols[pos] = column

	t.names = append(t.names, "")
	copy(t.names[pos+1:], t.names[pos:])
	t.names[pos] = name

	t.reindex()
	debug.Log("ctable: AddCol %q at %d", name, pos)
	return nil
}

// DelColByName removes the named column.
func (t *Table) DelColByName(name string) error {
	i, ok := t.nameIdx[name]
	if !ok {
		return errors.WithStack(&xerrors.UnknownColumnError{Name: name})
	}
	return t.DelColByPos(i)
}

// DelColByPos removes the column at position pos.
func (t *Table) DelColByPos(pos int) error {
	if pos < 0 || pos >= len(t.cols) {
		return errors.WithStack(&xerrors.OutOfRangeError{Op: "DelCol", Index: pos, Len: len(t.cols)})
	}
	name := t.names[pos]
	t.cols = append(t.cols[:pos], t.cols[pos+1:]...)
	t.names = append(t.names[:pos], t.names[pos+1:]...)
	t.reindex()
	debug.Log("ctable: DelCol %q at %d", name, pos)
	return nil
}

func (t *Table) reindex() {
	t.nameIdx = make(map[string]int, len(t.names))
	for i, n := range t.names {
		t.nameIdx[n] = i
	}
}

// Trim delegates to every column (spec §4.2).
func (t *Table) Trim(n int) error {
	for i, c := range t.cols {
		if err := c.Trim(n); err != nil {
			return errors.Wrapf(err, "ctable: trim column %q", t.names[i])
		}
	}
	return nil
}

// Resize delegates to every column (spec §4.2).
func (t *Table) Resize(n int) error {
	for i, c := range t.cols {
		if err := c.Resize(n); err != nil {
			return errors.Wrapf(err, "ctable: resize column %q", t.names[i])
		}
	}
	return nil
}

// ColumnDType returns a record dtype.DType describing the table's current
// columns, in order, used to label row/dense results.
func (t *Table) ColumnDType() dtype.DType {
	fields := make([]dtype.Field, len(t.cols))
	for i, c := range t.cols {
		fields[i] = dtype.Field{Name: t.names[i], Type: c.DType()}
	}
	return dtype.NewRecord(fields)
}
