package ctable

import (
	"github.com/coldtable/coldtable/eval"
	"github.com/coldtable/coldtable/internal/codec"
)

// Eval calls the block evaluator (spec §4.3) with the table's columns as
// the name environment; any names in opts.Env override same-named
// columns.
func (t *Table) Eval(expression string, opts eval.Options) (eval.Result, error) {
	env := make(map[string]eval.Operand, len(t.cols)+len(opts.Env))
	for i, c := range t.cols {
		env[t.names[i]] = eval.FromCArray{A: c}
	}
	for name, op := range opts.Env {
		env[name] = op
	}
	opts.Env = env
	if opts.Params == (codec.Params{}) {
		opts.Params = t.cparams
	}
	return eval.Eval(expression, opts)
}
