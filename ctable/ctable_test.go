package ctable

import (
	"testing"

	"github.com/coldtable/coldtable/carray"
	"github.com/coldtable/coldtable/config"
	"github.com/coldtable/coldtable/eval"
	"github.com/coldtable/coldtable/internal/codec"
)

func seqCol(t *testing.T, n int) *carray.CArray {
	t.Helper()
	a, err := carray.NewTyped[int64](carray.Options{Params: codec.Params{Level: 1}, ExpectedLen: n})
	if err != nil {
		t.Fatalf("NewTyped: %v", err)
	}
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = int64(i)
	}
	if err := carray.Append(a, vals); err != nil {
		t.Fatalf("Append: %v", err)
	}
	return a
}

func newXYZTable(t *testing.T, n int) *Table {
	t.Helper()
	x, y, z := seqCol(t, n), seqCol(t, n), seqCol(t, n)
	tab, err := New([]*carray.CArray{x, y, z}, []string{"x", "y", "z"}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tab
}

func TestSynthesizedNames(t *testing.T) {
	a, b := seqCol(t, 5), seqCol(t, 5)
	tab, err := New([]*carray.CArray{a, b}, nil, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := []string{"f0", "f1"}
	got := tab.Names()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
}

func TestAddDelCol(t *testing.T) {
	tab := newXYZTable(t, 10)
	w := seqCol(t, 10)
	if err := tab.AddCol(w, "w", 1); err != nil {
		t.Fatalf("AddCol: %v", err)
	}
	if tab.Names()[1] != "w" {
		t.Fatalf("AddCol did not insert at position 1: %v", tab.Names())
	}
	if err := tab.DelColByName("w"); err != nil {
		t.Fatalf("DelColByName: %v", err)
	}
	if _, err := tab.Column("w"); err == nil {
		t.Fatalf("expected column w to be gone")
	}
}

// Atomic append across columns: a row-count mismatch between the column
// buffers fails the call and leaves the table length unchanged.
func TestAppendAtomicRollback(t *testing.T) {
	tab := newXYZTable(t, 5)
	lenBefore := tab.Len()

	good := make([]byte, 3*8)
	bad := make([]byte, 2*8) // wrong row count: triggers LengthMismatch

	err := tab.Append([][]byte{good, good, bad})
	if err == nil {
		t.Fatalf("expected error from mismatched column lengths")
	}
	if tab.Len() != lenBefore {
		t.Fatalf("Append left table length at %d after failure, want unchanged %d", tab.Len(), lenBefore)
	}
}

// Where scenario from spec §8.3.
func TestWhereNrowAndColumn(t *testing.T) {
	n := 20
	tab := newXYZTable(t, n)

	it, err := tab.Where("x > 5", []string{nrowColumn, "y"}, 0, -1)
	if err != nil {
		t.Fatalf("Where: %v", err)
	}

	want := 6
	count := 0
	for it.Next() {
		row := it.Row()
		nrow, err := row.Field(nrowColumn)
		if err != nil {
			t.Fatalf("Field(nrow__): %v", err)
		}
		y, err := row.Field("y")
		if err != nil {
			t.Fatalf("Field(y): %v", err)
		}
		gotN := int64FromBytesLE(nrow)
		gotY := int64FromBytesLE(y)
		if gotN != int64(want) || gotY != int64(want) {
			t.Fatalf("row %d: nrow=%d y=%d, want both %d", count, gotN, gotY, want)
		}
		want++
		count++
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}
	if count != n-6 {
		t.Fatalf("yielded %d rows, want %d", count, n-6)
	}
}

func TestGetExprMask(t *testing.T) {
	tab := newXYZTable(t, 50)
	rs, err := tab.GetExpr("x >= 45")
	if err != nil {
		t.Fatalf("GetExpr: %v", err)
	}
	if rs.N() != 5 {
		t.Fatalf("GetExpr rows = %d, want 5", rs.N())
	}
}

func TestEvalUsesColumnsAsEnv(t *testing.T) {
	tab := newXYZTable(t, 100)
	res, err := tab.Eval("x + y", eval.Options{VM: config.Host, OutFlavor: config.DenseFlavor})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	got := int64FromBytesLE(res.Dense[10*8 : 11*8])
	if got != 20 {
		t.Fatalf("(x+y)[10] = %d, want 20", got)
	}
}

func int64FromBytesLE(b []byte) int64 {
	var v int64
	for i := 0; i < 8; i++ {
		v |= int64(b[i]) << (8 * i)
	}
	return v
}
