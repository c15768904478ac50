// Package eval implements the block expression evaluator from spec §4.3:
// a streaming evaluator that resolves free identifiers against an
// explicit environment, classifies operands as scalar or length-bearing,
// and drives either backend (native or host) across cache-sized windows
// so no operand's full extent is ever materialized at once.
package eval

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/carray"
	"github.com/coldtable/coldtable/config"
	"github.com/coldtable/coldtable/internal/codec"
	"github.com/coldtable/coldtable/internal/debug"
	"github.com/coldtable/coldtable/internal/dtype"
	"github.com/coldtable/coldtable/internal/xerrors"
)

// Options configures one call to Eval. There is no frame_depth/caller-
// scope lookup (spec §9's Design Note on caller-scope introspection):
// every free identifier must resolve through Env.
type Options struct {
	VM        config.VM
	OutFlavor config.OutFlavor
	Env       map[string]Operand
	// Params controls compression for an OutFlavor=CArrayFlavor result.
	Params codec.Params
	// BlockSize overrides the computed block size; 0 selects it
	// automatically (spec §8's block-size-invariance test hook).
	BlockSize int
	Native    Backend
	Host      Backend
}

// Result is the outcome of one Eval call: exactly one of CArray or Dense
// is set, selected by the Options' OutFlavor (a scalar result sets
// neither and carries its value in ScalarBytes).
type Result struct {
	Kind        dtype.Kind
	N           int
	CArray      *carray.CArray
	Dense       []byte
	Scalar      bool
	ScalarBytes []byte
}

const (
	nativeBlockBytes = 1 << 20 // ~1MiB
	hostBlockBytes   = 1 << 18 // ~256KiB
)

// Eval implements spec §4.3's public contract.
func Eval(expression string, opts Options) (Result, error) {
	backend, vm := pickBackend(opts)

	names, err := freeIdentifiers(expression, backend.Functions())
	if err != nil {
		return Result{}, err
	}

	scalarEnv := make(map[string]Block)
	type resolved = struct {
		name string
		op   Operand
	}
	var lengthBearing []resolved
	typesize := 0
	commonLen := -1

	for name := range names {
		op, ok := opts.Env[name]
		if !ok {
			if vm == config.Native {
				return Result{}, errors.WithStack(&xerrors.UnknownNameError{Name: name})
			}
			// Host backend: leave unresolved; evaluation will fail
			// naturally when the AST evaluator looks the name up.
			continue
		}

		if vm == config.Native && op.DType().Kind == dtype.Uint64 {
			return Result{}, errors.WithStack(&xerrors.UnsupportedTypeError{Name: name, Kind: op.DType().Kind.String()})
		}

		if op.Len() < 0 {
			b, err := scalarBlock(op)
			if err != nil {
				return Result{}, err
			}
			scalarEnv[name] = b
			continue
		}

		if _, ok := op.(Ranger); !ok {
			return Result{}, errors.WithStack(&xerrors.UnsupportedOperandError{Name: name})
		}
		if commonLen == -1 {
			commonLen = op.Len()
		} else if commonLen != op.Len() {
			return Result{}, errors.WithStack(&xerrors.LengthMismatchError{Op: "eval", Name: name, Want: commonLen, Got: op.Len()})
		}
		typesize += op.DType().ItemSize()
		lengthBearing = append(lengthBearing, resolved{name, op})
	}

	// All-scalar fast path (spec §4.3).
	if len(lengthBearing) == 0 {
		b, err := backend.Evaluate(expression, scalarEnv)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: b.Kind, Scalar: true, ScalarBytes: b.Buf}, nil
	}

	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = computeBlockSize(vm, typesize, commonLen)
	}
	debug.Log("eval: expr=%q vm=%s commonLen=%d typesize=%d blockSize=%d", expression, vm, commonLen, typesize, blockSize)

	return runBlocks(expression, backend, opts, scalarEnv, lengthBearing, commonLen, blockSize)
}

// defaultNativeInst is the process-wide native backend used when
// Options.Native is nil; it is registered with config.Default() so
// config's SetNumThreads reaches it.
var (
	defaultNativeOnce sync.Once
	defaultNativeInst *NativeBackend
)

func pickBackend(opts Options) (Backend, config.VM) {
	vm := opts.VM
	if vm == "" {
		vm = config.Default().EvalVM
	}
	if vm == config.Native {
		if opts.Native != nil {
			return opts.Native, vm
		}
		defaultNativeOnce.Do(func() {
			defaultNativeInst = NewNativeBackend()
			config.Default().RegisterThreadTarget(defaultNativeInst)
		})
		return defaultNativeInst, vm
	}
	if opts.Host != nil {
		return opts.Host, vm
	}
	return NewHostBackend(), vm
}

func scalarBlock(op Operand) (Block, error) {
	s, ok := op.(Scalar)
	if !ok {
		return Block{}, errors.Errorf("eval: scalar operand must be eval.Scalar, got %T", op)
	}
	return Block{Kind: s.Type.Kind, Buf: s.Bytes, N: 1, Scalar: true}, nil
}

// computeBlockSize implements spec §4.3's block-size selection ladder.
func computeBlockSize(vm config.VM, typesize, vlen int) int {
	target := hostBlockBytes
	if vm == config.Native {
		target = nativeBlockBytes
	}
	if typesize < 1 {
		typesize = 1
	}
	n := target / typesize
	n = prevPow2(n)

	switch {
	case vlen < 100_000:
		n /= 8
	case vlen < 1_000_000:
		n /= 4
	case vlen < 10_000_000:
		n /= 2
	}
	if n < 1 {
		n = 1
	}
	return n
}

func prevPow2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

func runBlocks(expression string, backend Backend, opts Options, scalarEnv map[string]Block, operands []struct {
	name string
	op   Operand
}, n, blockSize int) (Result, error) {
	bufs := make(map[string][]byte, len(operands))

	var out Result
	var denseOffset int

	for i := 0; i < n; i += blockSize {
		stop := i + blockSize
		if stop > n {
			stop = n
		}
		width := stop - i

		env := make(map[string]Block, len(operands)+len(scalarEnv))
		for name, b := range scalarEnv {
			env[name] = b
		}
		for _, ro := range operands {
			ranger := ro.op.(Ranger)
			buf, err := ranger.GetRange(i, width, bufs[ro.name])
			if err != nil {
				return Result{}, err
			}
			bufs[ro.name] = buf
			env[ro.name] = Block{Kind: ro.op.DType().Kind, Buf: buf, N: width}
		}

		block, err := backend.Evaluate(expression, env)
		if err != nil {
			return Result{}, err
		}

		if i == 0 {
			if !block.Scalar && block.N != width {
				return Result{}, errors.WithStack(&xerrors.ReductionNotSupportedError{Expression: expression})
			}
			out.Kind = block.Kind
			flavor := opts.OutFlavor
			if flavor == "" {
				flavor = config.Default().EvalOutFlavor
			}
			if flavor == config.DenseFlavor {
				out.Dense = make([]byte, n*dtype.Scalar(block.Kind).ItemSize())
			} else {
				a, err := carray.New(dtype.Scalar(block.Kind), carray.Options{Params: opts.Params, ExpectedLen: n})
				if err != nil {
					return Result{}, err
				}
				out.CArray = a
			}
		}

		if out.Dense != nil {
			copy(out.Dense[denseOffset:], block.Buf)
			denseOffset += len(block.Buf)
		} else {
			if err := out.CArray.AppendBytes(block.Buf); err != nil {
				return Result{}, err
			}
		}
	}

	out.N = n
	return out, nil
}
