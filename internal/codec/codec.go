// Package codec defines the block compression codec spec §6 treats as an
// external collaborator ("assumed given"): compress/decompress a contiguous
// typed buffer of up to one chunk's elements, parameterized by a
// compression level and a byte-shuffle pre-filter.
package codec

// Params is the cparams record from spec §3/§6.
type Params struct {
	// Level is the compression level, 0..9. 0 disables compression.
	Level int
	// Shuffle enables the byte-shuffle pre-filter.
	Shuffle bool
}

// Codec compresses and decompresses contiguous typed buffers.
type Codec interface {
	// Compress compresses buf, whose elements are itemSize bytes wide, per
	// the given Params.
	Compress(buf []byte, itemSize int, p Params) ([]byte, error)
	// Decompress decompresses compressed into out. out must be exactly the
	// uncompressed size recorded for the chunk being read. itemSize and
	// shuffle must match the Params given to the Compress call that
	// produced compressed.
	Decompress(compressed []byte, itemSize int, shuffle bool, out []byte) error
	// SetNumThreads configures the codec's worker pool and returns the
	// previous setting.
	SetNumThreads(n int) int
}
