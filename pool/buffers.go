package pool

import "fmt"

// Buffers is a set of frame sized sample buffers addressed by index.
type Buffers struct {
	frameSize int
	data      [][]float64
	used      []bool
}

// NewBuffers returns an empty buffer set for frames of frameSize samples.
func NewBuffers(frameSize int) *Buffers {
	return &Buffers{frameSize: frameSize}
}

// Add returns the index of the first free buffer or appends a new one.
// The returned buffer is zeroed.
func (b *Buffers) Add() int {
	if i := firstFree(b.used); i >= 0 {
		b.used[i] = true
		clear(b.data[i])
		return i
	}
	b.data = append(b.data, make([]float64, b.frameSize))
	b.used = append(b.used, true)
	return len(b.data) - 1
}

// Remove frees the buffer at index i.
func (b *Buffers) Remove(i int) error {
	if !b.InUse(i) {
		return fmt.Errorf("%w: buffer %d", ErrNotAllocated, i)
	}
	b.used[i] = false
	return nil
}

// Get returns buffer i or nil if it is not in use.
func (b *Buffers) Get(i int) []float64 {
	if !b.InUse(i) {
		return nil
	}
	return b.data[i]
}

// Set copies src into buffer i. Size mismatch and unknown index are
// ignored and reported with false.
func (b *Buffers) Set(i int, src []float64) bool {
	if !b.InUse(i) || len(src) != b.frameSize {
		return false
	}
	copy(b.data[i], src)
	return true
}

// Reset zeroes every buffer.
func (b *Buffers) Reset() {
	for i := range b.data {
		clear(b.data[i])
	}
}

// InUse reports whether buffer i is allocated.
func (b *Buffers) InUse(i int) bool {
	return i >= 0 && i < len(b.used) && b.used[i]
}

// Len returns number of buffers, used or free.
func (b *Buffers) Len() int {
	return len(b.data)
}

// FrameSize returns length of every buffer.
func (b *Buffers) FrameSize() int {
	return b.frameSize
}
