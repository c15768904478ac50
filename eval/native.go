package eval

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/coldtable/coldtable/internal/dtype"
	"github.com/coldtable/coldtable/internal/xerrors"
)

// NativeBackend stands in for the external SIMD/multithreaded evaluator
// spec §6 treats as a consumed collaborator: it rejects 64-bit unsigned
// operands (spec §4.3) and fans the block out across its own worker pool
// via errgroup, the same pattern the original carray used to forward
// set_nthreads to Numexpr.
type NativeBackend struct {
	nthreads int32
}

// NewNativeBackend returns a NativeBackend with a single worker by
// default; callers register it with config.Default().RegisterThreadTarget
// to pick up the process-wide thread count.
func NewNativeBackend() *NativeBackend {
	return &NativeBackend{nthreads: 1}
}

func (nb *NativeBackend) Evaluate(expr string, env map[string]Block) (Block, error) {
	for name, b := range env {
		if b.Kind == dtype.Uint64 {
			return Block{}, &xerrors.UnsupportedTypeError{Name: name, Kind: b.Kind.String()}
		}
	}

	n := blockWidth(env)
	workers := int(atomic.LoadInt32(&nb.nthreads))
	if workers < 1 {
		workers = 1
	}
	if n == 0 || workers == 1 {
		h := HostBackend{}
		return h.Evaluate(expr, env)
	}

	chunk := (n + workers - 1) / workers
	results := make([]Block, (n+chunk-1)/chunk)
	var g errgroup.Group
	for idx, start := 0, 0; start < n; idx, start = idx+1, start+chunk {
		idx, start := idx, start
		stop := start + chunk
		if stop > n {
			stop = n
		}
		g.Go(func() error {
			sub := windowEnv(env, start, stop)
			h := HostBackend{}
			b, err := h.Evaluate(expr, sub)
			if err != nil {
				return err
			}
			results[idx] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Block{}, err
	}
	return concatBlocks(results), nil
}

func blockWidth(env map[string]Block) int {
	for _, b := range env {
		if !b.Scalar {
			return b.N
		}
	}
	return 1
}

// windowEnv slices every non-scalar entry of env to [start, stop),
// leaving scalars untouched.
func windowEnv(env map[string]Block, start, stop int) map[string]Block {
	out := make(map[string]Block, len(env))
	for name, b := range env {
		if b.Scalar {
			out[name] = b
			continue
		}
		itemSize := len(b.Buf) / b.N
		out[name] = Block{Kind: b.Kind, N: stop - start, Buf: b.Buf[start*itemSize : stop*itemSize]}
	}
	return out
}

func concatBlocks(parts []Block) Block {
	if len(parts) == 0 {
		return Block{}
	}
	total := 0
	for _, p := range parts {
		total += p.N
	}
	out := Block{Kind: parts[0].Kind, N: total, Buf: make([]byte, 0, total*8)}
	for _, p := range parts {
		out.Buf = append(out.Buf, p.Buf...)
	}
	return out
}

// Functions reports no recognized built-ins, matching HostBackend (spec
// §9; see DESIGN.md).
func (nb *NativeBackend) Functions() map[string]bool { return nil }

func (nb *NativeBackend) SetNumThreads(n int) int {
	if n < 1 {
		n = 1
	}
	prev := atomic.SwapInt32(&nb.nthreads, int32(n))
	return int(prev)
}
