package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

const (
	tagStored byte = 0
	tagZstd   byte = 1
)

// zstdCodec is the concrete stand-in for the block codec spec §6 treats as
// an external collaborator. clevel 0 stores the buffer as-is (after an
// optional shuffle); clevel 1-9 is mapped onto zstd's four encoder speed
// tiers.
type zstdCodec struct {
	mu       sync.Mutex
	nthreads int
	encoders map[zstd.EncoderLevel]*zstd.Encoder
	decoder  *zstd.Decoder
}

// New returns the default Codec implementation.
func New() Codec {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		// Only fails on bad options; we pass none.
		panic(err)
	}
	return &zstdCodec{
		nthreads: 1,
		encoders: make(map[zstd.EncoderLevel]*zstd.Encoder),
		decoder:  dec,
	}
}

func levelTier(level int) zstd.EncoderLevel {
	switch {
	case level <= 0:
		return zstd.SpeedFastest
	case level <= 3:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 8:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func (c *zstdCodec) encoderFor(tier zstd.EncoderLevel) (*zstd.Encoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encoders[tier]; ok {
		return enc, nil
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(tier),
		zstd.WithEncoderConcurrency(c.nthreads))
	if err != nil {
		return nil, errors.Wrap(err, "zstd.NewWriter")
	}
	c.encoders[tier] = enc
	return enc, nil
}

func (c *zstdCodec) Compress(buf []byte, itemSize int, p Params) ([]byte, error) {
	payload := buf
	if p.Shuffle {
		payload = shuffle(buf, itemSize)
	}

	if p.Level <= 0 {
		out := make([]byte, 1+len(payload))
		out[0] = tagStored
		copy(out[1:], payload)
		return out, nil
	}

	enc, err := c.encoderFor(levelTier(p.Level))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 1, 1+len(payload)/2)
	out[0] = tagZstd
	out = enc.EncodeAll(payload, out)
	return out, nil
}

func (c *zstdCodec) Decompress(compressed []byte, itemSize int, shuffled bool, out []byte) error {
	if len(compressed) == 0 {
		return errors.New("zstd: empty compressed buffer")
	}

	tag, payload := compressed[0], compressed[1:]

	var plain []byte
	switch tag {
	case tagStored:
		plain = payload
	case tagZstd:
		decoded, err := c.decoder.DecodeAll(payload, make([]byte, 0, len(out)))
		if err != nil {
			return errors.Wrap(err, "zstd: decode")
		}
		plain = decoded
	default:
		return errors.Errorf("zstd: unknown chunk tag %d", tag)
	}

	if shuffled {
		plain = unshuffle(plain, itemSize)
	}

	if len(plain) != len(out) {
		return errors.Errorf("zstd: decompressed size %d does not match expected %d", len(plain), len(out))
	}
	copy(out, plain)
	return nil
}

func (c *zstdCodec) SetNumThreads(n int) int {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	prev := c.nthreads
	c.nthreads = n
	// Drop cached encoders so the next use picks up the new concurrency.
	c.encoders = make(map[zstd.EncoderLevel]*zstd.Encoder)
	c.mu.Unlock()
	return prev
}
