package eval

import "github.com/coldtable/coldtable/internal/dtype"

// Block is one value flowing through a block evaluation: either a dense
// buffer of N elements of the given kind, or (Scalar=true) a single value
// broadcast across the block.
type Block struct {
	Kind   dtype.Kind
	Buf    []byte
	N      int
	Scalar bool
}

// Backend is the block evaluator's external collaborator (spec §6): given
// an expression and a materialized, length-aligned environment, it
// produces one dense result block.
type Backend interface {
	// Evaluate computes expr over env, where every entry is either a
	// scalar or a dense buffer of exactly the block's width.
	Evaluate(expr string, env map[string]Block) (Block, error)
	// Functions returns the set of recognized built-in names, pruned from
	// free-identifier resolution before env lookup.
	Functions() map[string]bool
	// SetNumThreads adjusts the backend's worker pool, if any, and returns
	// the previous value.
	SetNumThreads(n int) int
}

func blockToValue(b Block) (value, error) {
	v, err := decode(b.Kind, b.N, b.Buf)
	if err != nil {
		return value{}, err
	}
	v.scalar = b.Scalar
	return v, nil
}

func valueToBlock(v value) Block {
	k, buf := v.seal()
	return Block{Kind: k, Buf: buf, N: v.n, Scalar: v.scalar}
}

func envToValues(env map[string]Block) (map[string]value, error) {
	out := make(map[string]value, len(env))
	for name, b := range env {
		v, err := blockToValue(b)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
