package codec

// shuffle transposes buf, whose elements are itemSize bytes wide, so that
// byte-plane k of every element (the k-th byte of each item) is written
// contiguously. This groups the high-entropy-varying bytes of a numeric
// sequence (e.g. the low byte of an incrementing int64) together, which
// compresses far better than the interleaved native layout. unshuffle
// reverses the transform exactly. itemSize <= 1 is a no-op: there is
// nothing to transpose.
func shuffle(buf []byte, itemSize int) []byte {
	if itemSize <= 1 || len(buf) == 0 {
		return buf
	}
	n := len(buf) / itemSize
	out := make([]byte, len(buf))
	for k := 0; k < itemSize; k++ {
		dst := out[k*n : (k+1)*n]
		for i := 0; i < n; i++ {
			dst[i] = buf[i*itemSize+k]
		}
	}
	return out
}

func unshuffle(buf []byte, itemSize int) []byte {
	if itemSize <= 1 || len(buf) == 0 {
		return buf
	}
	n := len(buf) / itemSize
	out := make([]byte, len(buf))
	for k := 0; k < itemSize; k++ {
		src := buf[k*n : (k+1)*n]
		for i := 0; i < n; i++ {
			out[i*itemSize+k] = src[i]
		}
	}
	return out
}
