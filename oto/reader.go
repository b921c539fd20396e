package oto

import (
	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/signal"
)

// bytes per stereo float32 sample
const sampleBytes = 4 * bzzt.NumChannels

// reader adapts a source to the io.Reader oto pulls from. Reads are
// served in blocks of at most blockSize samples. A sample split by the end
// of p is kept in carry and its rest is served by the next Read.
type reader struct {
	src      bzzt.Source
	channels signal.Float32
	block    signal.Float32
	carry    [sampleBytes]byte
	pending  []byte
}

func newReader(src bzzt.Source, blockSize int) *reader {
	channels := make(signal.Float32, bzzt.NumChannels)
	for i := range channels {
		channels[i] = make([]float32, blockSize)
	}
	return &reader{
		src:      src,
		channels: channels,
		block:    make(signal.Float32, bzzt.NumChannels),
	}
}

// Read fills p entirely and never fails, the source is endless.
func (r *reader) Read(p []byte) (int, error) {
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	for len(p)-n >= sampleBytes {
		n += r.fill(p[n:], (len(p)-n)/sampleBytes)
	}
	if n < len(p) {
		r.fill(r.carry[:], 1)
		k := copy(p[n:], r.carry[:])
		r.pending = r.carry[k:]
		n += k
	}
	return n, nil
}

// fill renders up to k samples into dst and returns bytes written.
func (r *reader) fill(dst []byte, k int) int {
	if k > len(r.channels[0]) {
		k = len(r.channels[0])
	}
	for i := range r.block {
		r.block[i] = r.channels[i][:k]
	}
	r.src.Fill(r.block)
	return r.block.InterleaveLE(dst)
}
