package carray

import (
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"

	"github.com/coldtable/coldtable/internal/codec"
	"github.com/coldtable/coldtable/internal/dtype"
)

func newTestArray(t *testing.T, expectedLen int) *CArray {
	t.Helper()
	a, err := NewTyped[int32](Options{
		Params:      codec.Params{Level: 3, Shuffle: true},
		ExpectedLen: expectedLen,
		CacheChunks: 2,
	})
	if err != nil {
		t.Fatalf("NewTyped: %v", err)
	}
	return a
}

func fillSeq(t *testing.T, a *CArray, n int) []int32 {
	t.Helper()
	vals := make([]int32, n)
	for i := range vals {
		vals[i] = int32(i)
	}
	if err := Append(a, vals); err != nil {
		t.Fatalf("Append: %v", err)
	}
	return vals
}

// Round-trip: Slice(Append(xs)) == xs, across a chunk boundary.
func TestAppendSliceRoundTrip(t *testing.T) {
	a := newTestArray(t, 1000)
	want := fillSeq(t, a, 2500)

	got, err := Slice[int32](a, 0, a.Len(), 1)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// Length additivity: after N appends totaling k elements, Len() == k.
func TestLengthAdditivity(t *testing.T) {
	a := newTestArray(t, 100)
	total := 0
	for _, n := range []int{7, 130, 1, 512, 9} {
		vals := make([]int32, n)
		if err := Append(a, vals); err != nil {
			t.Fatalf("Append: %v", err)
		}
		total += n
		if a.Len() != total {
			t.Fatalf("Len() = %d, want %d", a.Len(), total)
		}
	}
}

// Chunking well-formedness: every sealed chunk holds exactly ChunkLen
// elements; only the hot buffer may be short.
func TestChunkingWellFormed(t *testing.T) {
	a := newTestArray(t, 64)
	fillSeq(t, a, 64*5+17)

	for i := 0; i < a.NumChunks(); i++ {
		if got := a.chunks[i].Count(); got != a.chunkLen {
			t.Fatalf("chunk %d has %d elements, want ChunkLen=%d", i, got, a.chunkLen)
		}
	}
	if a.hotCount() != 17 {
		t.Fatalf("hot buffer holds %d elements, want 17", a.hotCount())
	}
}

// Slice equivalence: Slice(i, j) matches element-by-element Get over the
// same range, including ranges crossing chunk boundaries.
func TestSliceMatchesElementGet(t *testing.T) {
	a := newTestArray(t, 50)
	fillSeq(t, a, 50*3+12)

	start, stop := 40, 140
	got, err := Slice[int32](a, start, stop, 1)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	for i, v := range got {
		want, err := Get[int32](a, start+i)
		if err != nil {
			t.Fatalf("Get(%d): %v", start+i, err)
		}
		if v != want {
			t.Fatalf("Slice[%d] = %d, want %d (Get)", i, v, want)
		}
	}
}

// Slice equivalence (spec §8): Slice(start, stop, step) for step > 1
// matches reading every index in that strided range via Get, and its
// length is ⌈(stop-start)/step⌉.
func TestSliceWithStepMatchesElementGet(t *testing.T) {
	a := newTestArray(t, 50)
	fillSeq(t, a, 50*3+12)

	start, stop, step := 5, 151, 7
	got, err := Slice[int32](a, start, stop, step)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	wantLen := (stop - start + step - 1) / step
	if len(got) != wantLen {
		t.Fatalf("len(got) = %d, want %d", len(got), wantLen)
	}
	for i, v := range got {
		want, err := Get[int32](a, start+i*step)
		if err != nil {
			t.Fatalf("Get(%d): %v", start+i*step, err)
		}
		if v != want {
			t.Fatalf("Slice[%d] = %d, want %d (Get)", i, v, want)
		}
	}
}

func TestSliceRejectsNonPositiveStep(t *testing.T) {
	a := newTestArray(t, 10)
	fillSeq(t, a, 10)
	if _, err := a.SliceBytes(0, 5, 0); err == nil {
		t.Fatalf("expected error for step=0")
	}
	if _, err := a.SliceBytes(0, 5, -1); err == nil {
		t.Fatalf("expected error for step=-1")
	}
}

func TestTrimAndResize(t *testing.T) {
	a := newTestArray(t, 32)
	fillSeq(t, a, 32*2+5)

	if err := a.Trim(10); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if a.Len() != 59 {
		t.Fatalf("Len() = %d, want 59", a.Len())
	}

	if err := a.Resize(70); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if a.Len() != 70 {
		t.Fatalf("Len() = %d, want 70", a.Len())
	}
	for i := 59; i < 70; i++ {
		v, err := Get[int32](a, i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if v != 0 {
			t.Fatalf("Get(%d) = %d, want default 0", i, v)
		}
	}
}

func TestSetIndicesAcrossChunks(t *testing.T) {
	a := newTestArray(t, 16)
	fillSeq(t, a, 16*3)

	idxs := []int{0, 15, 16, 33, 47}
	vals := []int32{-1, -2, -3, -4, -5}
	if err := SetIndices(a, idxs, vals); err != nil {
		t.Fatalf("SetIndices: %v", err)
	}
	for i, idx := range idxs {
		got, err := Get[int32](a, idx)
		if err != nil {
			t.Fatalf("Get(%d): %v", idx, err)
		}
		if got != vals[i] {
			t.Fatalf("Get(%d) = %d, want %d", idx, got, vals[i])
		}
	}
}

func TestWhereTrueSkipMinusOneFindsLast(t *testing.T) {
	mask, err := New(dtype.Scalar(dtype.Bool), Options{ExpectedLen: 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	vals := make([]byte, 20)
	vals[3] = 1
	vals[11] = 1
	vals[12] = 1
	if err := mask.AppendBytes(vals); err != nil {
		t.Fatalf("AppendBytes: %v", err)
	}

	it := WhereTrue(mask, -1, -1)
	if !it.Next() {
		t.Fatalf("expected a match")
	}
	if it.Index() != 12 {
		t.Fatalf("Index() = %d, want 12 (last true position)", it.Index())
	}
	if it.Next() {
		t.Fatalf("skip=-1 must yield exactly one position")
	}
}

// WhereTrue's skip/limit must persist across the whole iteration, not
// reset per Next() call: skip=1 drops only the first match, and limit=2
// caps the total matches yielded across the entire pass.
func TestWhereTrueSkipAndLimitPersistAcrossCalls(t *testing.T) {
	mask, err := New(dtype.Scalar(dtype.Bool), Options{ExpectedLen: 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	vals := make([]byte, 10)
	for _, i := range []int{1, 3, 5, 7, 9} {
		vals[i] = 1
	}
	if err := mask.AppendBytes(vals); err != nil {
		t.Fatalf("AppendBytes: %v", err)
	}

	it := WhereTrue(mask, 1, 2)
	var got []int
	for it.Next() {
		got = append(got, it.Index())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}
	want := []int{3, 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("skip/limit mismatch (-want +got):\n%s", diff)
	}
}

func TestRangeIterRejectsNonPositiveStep(t *testing.T) {
	a := newTestArray(t, 10)
	fillSeq(t, a, 10)
	if _, err := a.RangeIter(0, 5, 0); err == nil {
		t.Fatalf("expected error for step=0")
	}
	if _, err := a.RangeIter(0, 5, -2); err == nil {
		t.Fatalf("expected error for step=-2")
	}
}

func TestWhereMatchesData(t *testing.T) {
	a := newTestArray(t, 10)
	fillSeq(t, a, 10)

	mask, err := New(dtype.Scalar(dtype.Bool), Options{ExpectedLen: 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	maskVals := make([]byte, 10)
	for i := range maskVals {
		if i%2 == 0 {
			maskVals[i] = 1
		}
	}
	if err := mask.AppendBytes(maskVals); err != nil {
		t.Fatalf("AppendBytes: %v", err)
	}

	it := Where(a, mask)
	var got []int32
	for it.Next() {
		b := it.Bytes()
		got = append(got, *(*int32)(unsafe.Pointer(&b[0])))
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Where iteration: %v", err)
	}
	want := []int32{0, 2, 4, 6, 8}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Where mismatch (-want +got):\n%s", diff)
	}
}
