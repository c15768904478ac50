package carray

import (
	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/internal/xerrors"
)

// Iter is a single-pass cursor over a contiguous run of positions. It is
// not safe for concurrent use, and cannot be rewound; call the producing
// method again for a fresh pass (spec §4.4).
type Iter interface {
	// Next advances to the next element, returning false once exhausted.
	Next() bool
	// Index returns the position of the current element.
	Index() int
	// Bytes returns the current element's raw bytes; valid until Next is
	// called again.
	Bytes() []byte
}

// RangeIter walks [start, stop) with the given step, streaming through
// chunks without materializing the whole range.
type RangeIter struct {
	a    *CArray
	stop int
	step int
	cur  int
	err  error
}

// RangeIter returns an iterator over [start, stop) stepping by step. step
// <= 0 is rejected with InvalidConfigError (spec §9's Open Question on
// negative/zero step).
func (a *CArray) RangeIter(start, stop, step int) (*RangeIter, error) {
	if step <= 0 {
		return nil, errors.WithStack(&xerrors.InvalidConfigError{Field: "step", Value: step})
	}
	if stop > a.length {
		stop = a.length
	}
	return &RangeIter{a: a, stop: stop, step: step, cur: start - step}, nil
}

func (r *RangeIter) Next() bool {
	if r.err != nil {
		return false
	}
	next := r.cur + r.step
	if next >= r.stop || next < 0 {
		return false
	}
	r.cur = next
	return true
}

func (r *RangeIter) Index() int { return r.cur }

func (r *RangeIter) Bytes() []byte {
	b, err := r.a.GetBytes(r.cur)
	if err != nil {
		r.err = err
		return nil
	}
	return b
}

// Err returns the first error encountered while iterating, if any.
func (r *RangeIter) Err() error { return r.err }

// WhereTrueIter yields the positions where a boolean mask CArray is true.
// If skip is -1, only the LAST matching position is ever yielded (spec
// §4.4's shortcut for "find the last true"), found by scanning backward
// so the forward cost bound doesn't apply to the common "latest match"
// query.
type WhereTrueIter struct {
	mask  *CArray
	skip  int
	limit int // -1 means unlimited

	lastIdx int
	done    bool
	reverse bool
	cur     int
	err     error

	// skipped and yielded persist across Next() calls: skip applies once
	// across the whole pass, and limit caps the total matches yielded, not
	// the count within a single call.
	skipped int
	yielded int
}

// WhereTrue returns an iterator over positions where mask (a Bool CArray)
// holds true. skip=-1 yields only the last true position; skip>=0 skips
// that many matches from the front before yielding (limit<0 means no
// limit on matches yielded after the skip).
func WhereTrue(mask *CArray, skip, limit int) *WhereTrueIter {
	w := &WhereTrueIter{mask: mask, skip: skip, limit: limit}
	if skip == -1 {
		w.reverse = true
		w.cur = mask.Len()
	}
	return w
}

func (w *WhereTrueIter) Next() bool {
	if w.err != nil || w.done {
		return false
	}
	if w.reverse {
		for w.cur > 0 {
			w.cur--
			v, err := w.mask.GetBytes(w.cur)
			if err != nil {
				w.err = err
				return false
			}
			if v[0] != 0 {
				w.done = true // only ever one match in reverse mode
				w.lastIdx = w.cur
				return true
			}
		}
		return false
	}

	for w.cur < w.mask.Len() {
		idx := w.cur
		w.cur++
		v, err := w.mask.GetBytes(idx)
		if err != nil {
			w.err = err
			return false
		}
		if v[0] == 0 {
			continue
		}
		if w.skipped < w.skip {
			w.skipped++
			continue
		}
		if w.limit >= 0 && w.yielded >= w.limit {
			w.done = true
			return false
		}
		w.yielded++
		w.lastIdx = idx
		return true
	}
	return false
}

func (w *WhereTrueIter) Index() int { return w.lastIdx }
func (w *WhereTrueIter) Err() error { return w.err }

// Bytes returns the mask element at the current position.
func (w *WhereTrueIter) Bytes() []byte {
	b, err := w.mask.GetBytes(w.lastIdx)
	if err != nil {
		w.err = err
		return nil
	}
	return b
}

// WhereIter yields the raw element bytes of data at each position where
// mask is true, without materializing the full filtered result.
type WhereIter struct {
	data *CArray
	mask *WhereTrueIter
	err  error
}

// Where returns an iterator over the elements of data at positions where
// mask holds true. len(mask) must equal len(data).
func Where(data, mask *CArray) *WhereIter {
	return WhereSkipLimit(data, mask, 0, -1)
}

// WhereSkipLimit is Where with the skip/limit semantics of WhereTrue
// (spec §4.2's CTable.where composition zips one such iterator per
// output column against the same mask/skip/limit).
func WhereSkipLimit(data, mask *CArray, skip, limit int) *WhereIter {
	return &WhereIter{data: data, mask: WhereTrue(mask, skip, limit)}
}

func (w *WhereIter) Next() bool {
	if w.err != nil {
		return false
	}
	ok := w.mask.Next()
	if !ok {
		w.err = w.mask.Err()
		return false
	}
	return true
}

func (w *WhereIter) Index() int { return w.mask.Index() }

func (w *WhereIter) Bytes() []byte {
	b, err := w.data.GetBytes(w.mask.Index())
	if err != nil {
		w.err = err
		return nil
	}
	return b
}

func (w *WhereIter) Err() error { return w.err }
