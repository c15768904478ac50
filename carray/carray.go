// Package carray implements the chunked, compressed, column-oriented
// numeric array from spec §4.1: append-only growth, random access,
// slicing, in-place update and streaming iteration over transparently
// compressed storage, without ever materializing a full uncompressed copy
// of the array.
package carray

import (
	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/internal/chunk"
	"github.com/coldtable/coldtable/internal/chunkcache"
	"github.com/coldtable/coldtable/internal/codec"
	"github.com/coldtable/coldtable/internal/debug"
	"github.com/coldtable/coldtable/internal/dtype"
	"github.com/coldtable/coldtable/internal/xerrors"
)

const targetBlockBytes = 1 << 16 // ~64KiB, the original carray's chunk sizing target

// CArray is an ordered sequence of compressed Chunks plus a trailing hot
// buffer holding the unflushed tail (spec §3).
type CArray struct {
	dtype    dtype.DType
	itemSize int
	cparams  codec.Params
	dflt     []byte // itemSize bytes

	codec codec.Codec
	cache *chunkcache.Cache

	chunkLen int
	chunks   []*chunk.Chunk
	hot      []byte
	length   int
}

// Options configures a new CArray.
type Options struct {
	// Params controls compression level and the shuffle pre-filter.
	Params codec.Params
	// Default is the fill value used when Resize grows the array; it must
	// be itemSize bytes, or nil for a zero-valued default.
	Default []byte
	// ExpectedLen hints at the eventual length, used to size ChunkLen.
	ExpectedLen int
	// Codec overrides the compression codec; nil uses the package default.
	Codec codec.Codec
	// CacheChunks bounds how many decompressed chunks are kept warm; 0
	// disables caching.
	CacheChunks int
}

// New creates an empty CArray of the given element dtype (which must be a
// scalar dtype, never a record dtype; see spec §3).
func New(dt dtype.DType, opts Options) (*CArray, error) {
	if dt.IsRecord() {
		panic("carray: element dtype must be scalar, not a record dtype")
	}

	itemSize := dt.ItemSize()
	dflt := make([]byte, itemSize)
	if opts.Default != nil {
		if len(opts.Default) != itemSize {
			return nil, errors.WithStack(&xerrors.ShapeMismatchError{Op: "New", Expected: itemSize, Got: len(opts.Default)})
		}
		copy(dflt, opts.Default)
	}

	c := opts.Codec
	if c == nil {
		c = defaultCodec()
	}

	a := &CArray{
		dtype:    dt,
		itemSize: itemSize,
		cparams:  opts.Params,
		dflt:     dflt,
		codec:    c,
		cache:    chunkcache.New(opts.CacheChunks),
		chunkLen: computeChunkLen(itemSize, opts.ExpectedLen),
	}
	debug.Log("carray: New dtype=%s itemSize=%d chunkLen=%d", dt, itemSize, a.chunkLen)
	return a, nil
}

// computeChunkLen derives ChunkLen from the element size and an expected
// length hint (spec §4.1): start from a ~64KiB target block, round down to
// a power of two, clamp to at least one element, then shrink further if
// the expected length is small so tiny arrays get tiny chunks.
func computeChunkLen(itemSize, expectedLen int) int {
	if itemSize < 1 {
		itemSize = 1
	}
	n := targetBlockBytes / itemSize
	n = prevPow2(n)
	if n < 1 {
		n = 1
	}
	if expectedLen > 0 {
		small := nextPow2(expectedLen)
		if small < n {
			n = small
		}
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

func nextPow2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// DType returns the array's element dtype.
func (a *CArray) DType() dtype.DType { return a.dtype }

// ItemSize returns the fixed byte width of one element.
func (a *CArray) ItemSize() int { return a.itemSize }

// Len returns the logical length: the sum of sealed chunk element counts
// plus the hot buffer's element count.
func (a *CArray) Len() int { return a.length }

// ChunkLen returns the fixed per-chunk element count, immutable for the
// array's lifetime.
func (a *CArray) ChunkLen() int { return a.chunkLen }

// NumChunks returns the number of sealed chunks (excludes the hot buffer).
func (a *CArray) NumChunks() int { return len(a.chunks) }

// Params returns the compression parameters used for this array's chunks.
func (a *CArray) Params() codec.Params { return a.cparams }

func (a *CArray) hotCount() int { return len(a.hot) / a.itemSize }

// AppendBytes appends a contiguous buffer of raw element bytes. len(buf)
// must be a multiple of ItemSize(), else ShapeMismatchError.
func (a *CArray) AppendBytes(buf []byte) error {
	if len(buf)%a.itemSize != 0 {
		return errors.WithStack(&xerrors.ShapeMismatchError{Op: "Append", Expected: a.itemSize, Got: len(buf) % a.itemSize})
	}

	for len(buf) > 0 {
		room := (a.chunkLen - a.hotCount()) * a.itemSize
		take := len(buf)
		if take > room {
			take = room
		}
		a.hot = append(a.hot, buf[:take]...)
		buf = buf[take:]
		a.length += take / a.itemSize

		if a.hotCount() == a.chunkLen {
			if err := a.sealHot(); err != nil {
				return err
			}
		}
	}
	return nil
}

// sealHot compresses a full hot buffer into a sealed Chunk and resets the
// hot buffer to empty. The chunk list and logical length are already
// consistent at every call boundary, so readers never observe a partially
// appended chunk (spec §5).
func (a *CArray) sealHot() error {
	c, err := chunk.Seal(a.codec, a.hot, a.hotCount(), a.itemSize, a.cparams)
	if err != nil {
		return err
	}
	a.chunks = append(a.chunks, c)
	a.hot = a.hot[:0]
	debug.Log("carray: sealed chunk %d (%d elements, %d -> %d bytes)", len(a.chunks)-1, c.Count(), c.UncompressedSize(), c.CompressedSize())
	return nil
}

// AppendDefault appends n copies of the array's default value, used by
// Resize to grow an array.
func (a *CArray) AppendDefault(n int) error {
	if n <= 0 {
		return nil
	}
	batch := a.chunkLen
	buf := make([]byte, 0, batch*a.itemSize)
	for n > 0 {
		b := batch
		if b > n {
			b = n
		}
		buf = buf[:0]
		for i := 0; i < b; i++ {
			buf = append(buf, a.dflt...)
		}
		if err := a.AppendBytes(buf); err != nil {
			return err
		}
		n -= b
	}
	return nil
}

// Trim removes the last n elements (spec §4.1).
func (a *CArray) Trim(n int) error {
	if n < 0 || n > a.length {
		return errors.WithStack(&xerrors.OutOfRangeError{Op: "Trim", Index: n, Len: a.length})
	}
	remaining := n
	for remaining >= a.hotCount() {
		remaining -= a.hotCount()
		a.hot = a.hot[:0]
		if remaining == 0 {
			break
		}
		if len(a.chunks) == 0 {
			return errors.WithStack(&xerrors.OutOfRangeError{Op: "Trim", Index: n, Len: a.length})
		}
		last := a.chunks[len(a.chunks)-1]
		a.chunks = a.chunks[:len(a.chunks)-1]
		a.cache.InvalidateFrom(len(a.chunks))

		buf := make([]byte, last.UncompressedSize())
		if err := last.Decompress(a.codec, a.cparams.Shuffle, buf); err != nil {
			return err
		}
		a.hot = buf
	}
	a.hot = a.hot[:len(a.hot)-remaining*a.itemSize]
	a.length -= n
	debug.Log("carray: trimmed %d elements, length now %d", n, a.length)
	return nil
}

// Resize grows or shrinks the array to exactly m elements, filling new
// elements with the default value when growing (spec §4.1).
func (a *CArray) Resize(m int) error {
	if m < 0 {
		return errors.WithStack(&xerrors.OutOfRangeError{Op: "Resize", Index: m, Len: a.length})
	}
	if m < a.length {
		return a.Trim(a.length - m)
	}
	if m > a.length {
		return a.AppendDefault(m - a.length)
	}
	return nil
}
