package eval

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coldtable/coldtable/carray"
	"github.com/coldtable/coldtable/config"
	"github.com/coldtable/coldtable/internal/codec"
	"github.com/coldtable/coldtable/internal/dtype"
)

func newIntCol(t *testing.T, n int) *carray.CArray {
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

func denseResultAsBool(t *testing.T, r Result) []bool {
	t.Helper()
	out := make([]bool, r.N)
	for i := 0; i < r.N; i++ {
		out[i] = r.Dense[i] != 0
	}
	return out
}

// Evaluator consistency: native and host agree element-wise.
func TestNativeHostAgree(t *testing.T) {
	x := newIntCol(t, 5000)
	env := map[string]Operand{"x": FromCArray{A: x}}
	expr := "(((x*1 + 3) - 2) * 2) > 100"

	native, err := Eval(expr, Options{VM: config.Native, OutFlavor: config.DenseFlavor, Env: env})
	if err != nil {
		t.Fatalf("native eval: %v", err)
	}
	host, err := Eval(expr, Options{VM: config.Host, OutFlavor: config.DenseFlavor, Env: env})
	if err != nil {
		t.Fatalf("host eval: %v", err)
	}

	nb := denseResultAsBool(t, native)
	hb := denseResultAsBool(t, host)
	if diff := cmp.Diff(hb, nb); diff != "" {
		t.Fatalf("native/host mismatch (-host +native):\n%s", diff)
	}
}

// Block-size invariance: forcing different block sizes must not change
// the result.
func TestBlockSizeInvariance(t *testing.T) {
	x := newIntCol(t, 10007)
	env := map[string]Operand{"x": FromCArray{A: x}}
	expr := "x % 7 == 0"

	var prev []bool
	for _, bs := range []int{1, 3, 64, 4096, 100000} {
		r, err := Eval(expr, Options{VM: config.Host, OutFlavor: config.DenseFlavor, Env: env, BlockSize: bs})
		if err != nil {
			t.Fatalf("eval blockSize=%d: %v", bs, err)
		}
		got := denseResultAsBool(t, r)
		if prev != nil {
			if diff := cmp.Diff(prev, got); diff != "" {
				t.Fatalf("blockSize=%d diverges from previous block size (-prev +got):\n%s", bs, diff)
			}
		}
		prev = got
	}
}

func TestNativeRejectsUint64(t *testing.T) {
	a, err := carray.NewTyped[uint64](carray.Options{})
	if err != nil {
		t.Fatalf("NewTyped: %v", err)
	}
	if err := carray.Append(a, []uint64{1, 2, 3}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	env := map[string]Operand{"x": FromCArray{A: a}}

	_, err = Eval("x + 1", Options{VM: config.Native, Env: env})
	if err == nil {
		t.Fatalf("expected UnsupportedType error for uint64 operand")
	}
}

func TestAllScalarFastPath(t *testing.T) {
	env := map[string]Operand{
		"a": Scalar{Type: dtype.Scalar(dtype.Int64), Bytes: int64Bytes(3)},
		"b": Scalar{Type: dtype.Scalar(dtype.Int64), Bytes: int64Bytes(4)},
	}
	r, err := Eval("a + b", Options{VM: config.Host, Env: env})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !r.Scalar {
		t.Fatalf("expected scalar result")
	}
	got := int64FromBytes(r.ScalarBytes)
	if got != 7 {
		t.Fatalf("a+b = %d, want 7", got)
	}
}

func int64Bytes(v int64) []byte {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return buf
}

func int64FromBytes(b []byte) int64 {
	var v int64
	for i := 0; i < 8; i++ {
		v |= int64(b[i]) << (8 * i)
	}
	return v
}
