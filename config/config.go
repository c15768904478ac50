// Package config holds the process-wide singleton configuration from
// spec §6/§9: the default evaluator backend and output flavor, plus the
// single thread-count knob that forwards to both the compression codec and
// the native expression backend (mirroring the original carray's
// set_nthreads, which forwarded to Blosc and Numexpr together).
package config

import (
	"runtime"
	"sync"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/coldtable/coldtable/internal/debug"
)

// VM selects the expression evaluator backend.
type VM string

const (
	Native VM = "native"
	Host   VM = "host"
)

// OutFlavor selects the result container an eval produces.
type OutFlavor string

const (
	CArrayFlavor OutFlavor = "carray"
	DenseFlavor  OutFlavor = "dense"
)

// ThreadSetter is anything whose worker pool size can be adjusted, such as
// a codec.Codec or the native eval backend.
type ThreadSetter interface {
	SetNumThreads(n int) int
}

// Config is the process-wide defaults record.
type Config struct {
	mu            sync.Mutex
	EvalVM        VM
	EvalOutFlavor OutFlavor
	nthreads      int
	targets       []ThreadSetter
}

var (
	once    sync.Once
	current = &Config{
		EvalVM:        Native,
		EvalOutFlavor: CArrayFlavor,
		nthreads:      1,
	}
)

// Init detects the usable CPU share via automaxprocs (honoring container
// CPU quotas / GOMAXPROCS) and sets the process thread count accordingly.
// Safe to call more than once; only the first call has an effect.
func Init() {
	once.Do(func() {
		if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {})); err != nil {
			debug.Log("config: maxprocs.Set failed: %v", err)
		}
		n := runtime.GOMAXPROCS(0)
		if n <= 0 {
			n = 1
		}
		current.nthreads = n
		debug.Log("config: Init detected %d usable threads", n)
	})
}

// Default returns the process-wide Config singleton.
func Default() *Config {
	return current
}

// RegisterThreadTarget adds t to the set of subsystems SetNumThreads
// forwards to, and immediately applies the current thread count to it.
func (c *Config) RegisterThreadTarget(t ThreadSetter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets = append(c.targets, t)
	t.SetNumThreads(c.nthreads)
}

// SetNumThreads sets the process-wide thread count, forwards it to every
// registered target (the codec, the native backend, ...), and returns the
// previous value.
func (c *Config) SetNumThreads(n int) int {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.nthreads
	c.nthreads = n
	for _, t := range c.targets {
		t.SetNumThreads(n)
	}
	debug.Log("config: SetNumThreads %d -> %d", prev, n)
	return prev
}

// NumThreads returns the current process-wide thread count.
func (c *Config) NumThreads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nthreads
}
