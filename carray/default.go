package carray

import (
	"sync"

	"github.com/coldtable/coldtable/internal/codec"
	"github.com/coldtable/coldtable/config"
)

var (
	defaultCodecOnce sync.Once
	defaultCodecInst codec.Codec
)

// defaultCodec lazily builds the process-wide default codec and registers
// it with config.Default() so config.SetNumThreads reaches it, mirroring
// how the original carray's set_nthreads forwarded to Blosc globally.
func defaultCodec() codec.Codec {
	defaultCodecOnce.Do(func() {
		defaultCodecInst = codec.New()
		config.Default().RegisterThreadTarget(defaultCodecInst)
	})
	return defaultCodecInst
}
