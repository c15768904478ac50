package eval

// HostBackend is the permissive reference evaluator used when the native
// backend is absent or the caller selects vm=host (spec §6): it leaves
// unresolved names to fail naturally during evaluation rather than during
// name resolution, runs single-threaded, and imposes no dtype
// restrictions.
type HostBackend struct{}

// NewHostBackend returns the host evaluator.
func NewHostBackend() *HostBackend { return &HostBackend{} }

func (h *HostBackend) Evaluate(expr string, env map[string]Block) (Block, error) {
	values, err := envToValues(env)
	if err != nil {
		return Block{}, err
	}
	v, err := evalAST(expr, values)
	if err != nil {
		return Block{}, err
	}
	return valueToBlock(v), nil
}

// Functions reports no recognized built-ins: the host evaluator only
// implements arithmetic, comparison and logical operators (spec §9
// intentionally leaves function libraries out of scope for this system;
// see DESIGN.md).
func (h *HostBackend) Functions() map[string]bool { return nil }

func (h *HostBackend) SetNumThreads(n int) int { return 1 }
