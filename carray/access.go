package carray

import (
	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/internal/chunk"
	"github.com/coldtable/coldtable/internal/xerrors"
)

// locate maps a global element index to (chunk index, offset within that
// chunk's decompressed buffer), or (-1, offset-into-hot) if idx falls in
// the hot buffer.
func (a *CArray) locate(idx int) (chunkIdx, elemOffset int) {
	sealedLen := a.length - a.hotCount()
	if idx >= sealedLen {
		return -1, idx - sealedLen
	}
	return idx / a.chunkLen, idx % a.chunkLen
}

// decompressChunk returns the decompressed buffer for chunk i, consulting
// (and populating) the chunk cache so a chunk touched more than once in a
// call is decompressed at most once.
func (a *CArray) decompressChunk(i int) ([]byte, error) {
	if buf, ok := a.cache.Get(i); ok {
		return buf, nil
	}
	c := a.chunks[i]
	buf := make([]byte, c.UncompressedSize())
	if err := c.Decompress(a.codec, a.cparams.Shuffle, buf); err != nil {
		return nil, err
	}
	a.cache.Add(i, buf)
	return buf, nil
}

// GetBytes returns a copy of the itemSize bytes at idx.
func (a *CArray) GetBytes(idx int) ([]byte, error) {
	if idx < 0 || idx >= a.length {
		return nil, errors.WithStack(&xerrors.OutOfRangeError{Op: "Get", Index: idx, Len: a.length})
	}
	ci, off := a.locate(idx)
	out := make([]byte, a.itemSize)
	if ci < 0 {
		copy(out, a.hot[off*a.itemSize:(off+1)*a.itemSize])
		return out, nil
	}
	buf, err := a.decompressChunk(ci)
	if err != nil {
		return nil, err
	}
	copy(out, buf[off*a.itemSize:(off+1)*a.itemSize])
	return out, nil
}

// SliceBytes returns a freshly allocated buffer holding the raw bytes of
// elements [start, stop) stepping by step (step must be >= 1), decompressing
// each touched chunk at most once. The output holds ⌈(stop−start)/step⌉
// elements (spec §4.1).
func (a *CArray) SliceBytes(start, stop, step int) ([]byte, error) {
	if start < 0 || stop > a.length || start > stop {
		return nil, errors.WithStack(&xerrors.OutOfRangeError{Op: "Slice", Index: stop, Len: a.length})
	}
	if step <= 0 {
		return nil, errors.WithStack(&xerrors.InvalidConfigError{Field: "step", Value: step})
	}
	if step == 1 {
		return a.sliceContiguous(start, stop)
	}

	n := (stop - start + step - 1) / step
	out := make([]byte, 0, n*a.itemSize)
	lastCI := -1
	var lastBuf []byte
	for i := start; i < stop; i += step {
		ci, off := a.locate(i)
		src := a.hot
		if ci >= 0 {
			if ci != lastCI {
				buf, err := a.decompressChunk(ci)
				if err != nil {
					return nil, err
				}
				lastCI, lastBuf = ci, buf
			}
			src = lastBuf
		}
		out = append(out, src[off*a.itemSize:(off+1)*a.itemSize]...)
	}
	return out, nil
}

// sliceContiguous is SliceBytes' step=1 fast path, gathering runs of
// consecutive elements per touched chunk instead of one element at a time.
func (a *CArray) sliceContiguous(start, stop int) ([]byte, error) {
	out := make([]byte, 0, (stop-start)*a.itemSize)
	for i := start; i < stop; {
		ci, off := a.locate(i)
		if ci < 0 {
			out = append(out, a.hot[off*a.itemSize:(off+stop-i)*a.itemSize]...)
			i = stop
			continue
		}
		buf, err := a.decompressChunk(ci)
		if err != nil {
			return nil, err
		}
		// How many consecutive elements in this call remain inside chunk ci.
		chunkRemaining := a.chunks[ci].Count() - off
		want := stop - i
		if want > chunkRemaining {
			want = chunkRemaining
		}
		out = append(out, buf[off*a.itemSize:(off+want)*a.itemSize]...)
		i += want
	}
	return out, nil
}

// SetBytes overwrites the itemSize bytes at idx in place.
func (a *CArray) SetBytes(idx int, val []byte) error {
	if idx < 0 || idx >= a.length {
		return errors.WithStack(&xerrors.OutOfRangeError{Op: "Set", Index: idx, Len: a.length})
	}
	if len(val) != a.itemSize {
		return errors.WithStack(&xerrors.ShapeMismatchError{Op: "Set", Expected: a.itemSize, Got: len(val)})
	}
	ci, off := a.locate(idx)
	if ci < 0 {
		copy(a.hot[off*a.itemSize:(off+1)*a.itemSize], val)
		return nil
	}
	buf, err := a.decompressChunk(ci)
	if err != nil {
		return err
	}
	copy(buf[off*a.itemSize:(off+1)*a.itemSize], val)
	return a.recompressChunk(ci, buf)
}

// SetIndicesBytes overwrites the elements at the given positions, grouping
// writes by chunk so each touched chunk is recompressed at most once
// (spec §4.1).
func (a *CArray) SetIndicesBytes(indices []int, vals [][]byte) error {
	if len(indices) != len(vals) {
		return errors.WithStack(&xerrors.ShapeMismatchError{Op: "Set", Expected: len(indices), Got: len(vals)})
	}

	type write struct {
		off int
		val []byte
	}
	byChunk := make(map[int][]write)
	var hotWrites []write

	for i, idx := range indices {
		if idx < 0 || idx >= a.length {
			return errors.WithStack(&xerrors.OutOfRangeError{Op: "Set", Index: idx, Len: a.length})
		}
		if len(vals[i]) != a.itemSize {
			return errors.WithStack(&xerrors.ShapeMismatchError{Op: "Set", Expected: a.itemSize, Got: len(vals[i])})
		}
		ci, off := a.locate(idx)
		if ci < 0 {
			hotWrites = append(hotWrites, write{off, vals[i]})
			continue
		}
		byChunk[ci] = append(byChunk[ci], write{off, vals[i]})
	}

	for _, w := range hotWrites {
		copy(a.hot[w.off*a.itemSize:(w.off+1)*a.itemSize], w.val)
	}

	for ci, writes := range byChunk {
		buf, err := a.decompressChunk(ci)
		if err != nil {
			return err
		}
		for _, w := range writes {
			copy(buf[w.off*a.itemSize:(w.off+1)*a.itemSize], w.val)
		}
		if err := a.recompressChunk(ci, buf); err != nil {
			return err
		}
	}
	return nil
}

// recompressChunk reseals chunk ci from its (now-mutated) decompressed
// buffer and stores that buffer as the chunk's cache entry.
func (a *CArray) recompressChunk(ci int, buf []byte) error {
	c, err := chunk.Seal(a.codec, buf, a.chunks[ci].Count(), a.itemSize, a.cparams)
	if err != nil {
		return err
	}
	a.chunks[ci] = c
	a.cache.Add(ci, buf)
	return nil
}
