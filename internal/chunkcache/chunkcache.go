// Package chunkcache is a bounded LRU of decompressed chunk buffers, one
// per CArray, ported from restic's internal/bloblru.Cache. CArray.Get,
// Slice, Iter and Where decompress one chunk at a time into a scratch
// buffer (spec §4.1); this cache lets a chunk touched twice within a call
// (or by nearby calls on the same CArray) skip the second decompression.
package chunkcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/coldtable/coldtable/internal/debug"
)

// Cache is a fixed-capacity LRU cache of decompressed chunk buffers, keyed
// by chunk index. It is safe for concurrent access.
type Cache struct {
	c *lru.Cache[int, []byte]
}

// New returns a Cache holding at most maxChunks decompressed buffers.
// maxChunks <= 0 disables caching: Get always misses and Add is a no-op.
func New(maxChunks int) *Cache {
	if maxChunks <= 0 {
		return &Cache{}
	}
	c, err := lru.New[int, []byte](maxChunks)
	if err != nil {
		// Only fails for size <= 0, already guarded above.
		panic(err)
	}
	return &Cache{c: c}
}

// Get returns the cached buffer for chunkIndex, if present.
func (ch *Cache) Get(chunkIndex int) ([]byte, bool) {
	if ch.c == nil {
		return nil, false
	}
	buf, ok := ch.c.Get(chunkIndex)
	debug.Log("chunkcache: get %d, hit %v", chunkIndex, ok)
	return buf, ok
}

// Add stores buf as the decompressed contents of chunkIndex. buf is kept by
// reference, not copied: later writes to it change the cached contents.
func (ch *Cache) Add(chunkIndex int, buf []byte) {
	if ch.c == nil {
		return
	}
	ch.c.Add(chunkIndex, buf)
}

// Invalidate drops any cached entry for chunkIndex.
func (ch *Cache) Invalidate(chunkIndex int) {
	if ch.c == nil {
		return
	}
	ch.c.Remove(chunkIndex)
}

// InvalidateFrom drops every cached entry with index >= from, used when
// trim/resize shrinks the chunk list.
func (ch *Cache) InvalidateFrom(from int) {
	if ch.c == nil {
		return
	}
	for _, k := range ch.c.Keys() {
		if k >= from {
			ch.c.Remove(k)
		}
	}
}
