// Package chunk implements the sealed, immutable compressed blob described
// in spec §3/§4.1: a Chunk holds exactly ChunkLen elements (except possibly
// a CArray's last chunk), plus the metadata needed to decompress it without
// consulting anything else.
package chunk

import (
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/internal/codec"
)

// Chunk is an immutable, sealed compressed blob plus its metadata.
type Chunk struct {
	compressed   []byte
	count        int // element count, <= ChunkLen
	itemSize     int
	uncompressed int // uncompressed byte size = count * itemSize
	checksum     uint64
}

// Seal compresses buf (count*itemSize bytes, count elements of itemSize
// bytes each) into a sealed Chunk using c with the given Params.
func Seal(c codec.Codec, buf []byte, count, itemSize int, p codec.Params) (*Chunk, error) {
	compressed, err := c.Compress(buf, itemSize, p)
	if err != nil {
		return nil, errors.Wrap(err, "chunk: seal")
	}
	return &Chunk{
		compressed:   compressed,
		count:        count,
		itemSize:     itemSize,
		uncompressed: count * itemSize,
		checksum:     xxhash.Sum64(compressed),
	}, nil
}

// Count returns the number of elements held by the chunk.
func (k *Chunk) Count() int { return k.count }

// ItemSize returns the fixed byte width of one element.
func (k *Chunk) ItemSize() int { return k.itemSize }

// UncompressedSize returns the decompressed byte size of the chunk.
func (k *Chunk) UncompressedSize() int { return k.uncompressed }

// CompressedSize returns the on-the-wire byte size of the chunk.
func (k *Chunk) CompressedSize() int { return len(k.compressed) }

// Decompress decompresses the chunk into out, a caller-owned buffer of
// exactly UncompressedSize() bytes, using c with the given shuffle setting
// (shuffle must match the Params the chunk was sealed with).
func (k *Chunk) Decompress(c codec.Codec, shuffle bool, out []byte) error {
	if len(out) != k.uncompressed {
		return errors.Errorf("chunk: decompress: out buffer is %d bytes, want %d", len(out), k.uncompressed)
	}
	if xxhash.Sum64(k.compressed) != k.checksum {
		return errors.New("chunk: checksum mismatch, compressed bytes are corrupt")
	}
	return c.Decompress(k.compressed, k.itemSize, shuffle, out)
}
