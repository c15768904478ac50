package carray

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/internal/dtype"
	"github.com/coldtable/coldtable/internal/xerrors"
)

// Numeric is the set of Go types a CArray can hold one-to-one with a
// dtype.Kind, reinterpreting its byte-oriented storage via unsafe rather
// than duplicating the chunk/compress machinery per type (grounded on
// parquet-go's internal/memory chunk buffer in the examples pack).
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

func kindOf[T Numeric]() dtype.Kind {
	var z T
	switch any(z).(type) {
	case int8:
		return dtype.Int8
	case int16:
		return dtype.Int16
	case int32:
		return dtype.Int32
	case int64:
		return dtype.Int64
	case uint8:
		return dtype.Uint8
	case uint16:
		return dtype.Uint16
	case uint32:
		return dtype.Uint32
	case uint64:
		return dtype.Uint64
	case float32:
		return dtype.Float32
	case float64:
		return dtype.Float64
	default:
		panic("carray: unsupported numeric type")
	}
}

// NewTyped creates an empty CArray whose element kind is derived from T.
func NewTyped[T Numeric](opts Options) (*CArray, error) {
	return New(dtype.Scalar(kindOf[T]()), opts)
}

func checkKind[T Numeric](a *CArray) error {
	want := kindOf[T]()
	if a.dtype.Kind != want {
		return errors.WithStack(&xerrors.TypeMismatchError{Op: "typed access", Expected: want.String(), Got: a.dtype.Kind.String()})
	}
	return nil
}

// bytesOf reinterprets a single T value as its itemSize raw bytes.
func bytesOf[T Numeric](v T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
}

// sliceBytesOf reinterprets a []T as its raw byte representation without
// copying.
func sliceBytesOf[T Numeric](vs []T) []byte {
	if len(vs) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&vs[0])), len(vs)*int(unsafe.Sizeof(zero)))
}

// bytesToSlice reinterprets a raw byte buffer (length a multiple of
// sizeof(T)) as a []T without copying. The caller must not retain buf
// after this call if it plans to mutate it independently.
func bytesToSlice[T Numeric](buf []byte) []T {
	var zero T
	sz := int(unsafe.Sizeof(zero))
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), len(buf)/sz)
}

// Append appends vs to a, which must hold elements of kind T.
func Append[T Numeric](a *CArray, vs []T) error {
	if err := checkKind[T](a); err != nil {
		return err
	}
	return a.AppendBytes(sliceBytesOf(vs))
}

// Get returns the element at idx as a T, which must match a's dtype.
func Get[T Numeric](a *CArray, idx int) (T, error) {
	var zero T
	if err := checkKind[T](a); err != nil {
		return zero, err
	}
	b, err := a.GetBytes(idx)
	if err != nil {
		return zero, err
	}
	return *(*T)(unsafe.Pointer(&b[0])), nil
}

// Set overwrites the element at idx with v.
func Set[T Numeric](a *CArray, idx int, v T) error {
	if err := checkKind[T](a); err != nil {
		return err
	}
	return a.SetBytes(idx, bytesOf(v))
}

// Slice returns a freshly allocated []T copy of elements [start, stop)
// stepping by step (step must be >= 1).
func Slice[T Numeric](a *CArray, start, stop, step int) ([]T, error) {
	if err := checkKind[T](a); err != nil {
		return nil, err
	}
	buf, err := a.SliceBytes(start, stop, step)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(buf)/int(unsafe.Sizeof(*new(T))))
	copy(out, bytesToSlice[T](buf))
	return out, nil
}

// SetIndices overwrites the elements at the given positions with vs,
// grouping writes by chunk internally.
func SetIndices[T Numeric](a *CArray, indices []int, vs []T) error {
	if err := checkKind[T](a); err != nil {
		return err
	}
	vals := make([][]byte, len(vs))
	for i, v := range vs {
		b := make([]byte, unsafe.Sizeof(v))
		copy(b, bytesOf(v))
		vals[i] = b
	}
	return a.SetIndicesBytes(indices, vals)
}
