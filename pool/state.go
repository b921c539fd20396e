package pool

import (
	"fmt"
	"unsafe"
)

// State is a byte arena of equally sized generator state slots. The
// arena base is 8 byte aligned, so slots are aligned for float64 fields
// whenever size is a multiple of 8.
type State struct {
	size        int
	stride      int
	arena       []byte
	used        []bool
	generations []uint32
	live        int
}

// NewState returns an arena for slots of size bytes. Zero sized state
// still takes one byte per slot so every instance has a distinct offset.
func NewState(size int) *State {
	stride := size
	if stride < 1 {
		stride = 1
	}
	words := make([]uint64, initialReserve/8)
	return &State{
		size:   size,
		stride: stride,
		arena:  unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), initialReserve)[:0],
	}
}

// Allocate marks the first free slot used and returns its byte offset.
// When every slot is used the arena grows by exactly one slot. The
// returned slot is zeroed.
func (s *State) Allocate() int {
	i := firstFree(s.used)
	if i < 0 {
		i = len(s.used)
		s.grow()
		s.used = append(s.used, true)
		s.generations = append(s.generations, 0)
	} else {
		s.used[i] = true
	}
	s.live++
	offset := i * s.stride
	clear(s.arena[offset : offset+s.stride])
	return offset
}

// grow extends the arena by one slot keeping the base aligned.
func (s *State) grow() {
	n := len(s.arena) + s.stride
	if n <= cap(s.arena) {
		s.arena = s.arena[:n]
		return
	}
	words := make([]uint64, (max(2*cap(s.arena), n)+7)/8)
	arena := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*8)
	copy(arena, s.arena)
	s.arena = arena[:n]
}

func (s *State) index(offset int) (int, error) {
	if offset < 0 || offset%s.stride != 0 {
		return 0, fmt.Errorf("%w: offset %d, slot size %d", ErrMisaligned, offset, s.stride)
	}
	i := offset / s.stride
	if i >= len(s.used) || !s.used[i] {
		return 0, fmt.Errorf("%w: offset %d", ErrNotAllocated, offset)
	}
	return i, nil
}

// Release frees the slot at offset and bumps its generation.
func (s *State) Release(offset int) error {
	i, err := s.index(offset)
	if err != nil {
		return err
	}
	s.used[i] = false
	s.generations[i]++
	s.live--
	return nil
}

// Slot returns the state of slot at offset. The view is clipped to the
// slot, so appends never spill into a neighbour. It's only valid until
// the next Allocate.
func (s *State) Slot(offset int) []byte {
	return s.arena[offset : offset+s.size : offset+s.size]
}

// Generation returns the current generation of slot at offset.
func (s *State) Generation(offset int) uint32 {
	if offset < 0 || offset%s.stride != 0 || offset/s.stride >= len(s.generations) {
		return 0
	}
	return s.generations[offset/s.stride]
}

// InUse reports whether slot at offset is allocated.
func (s *State) InUse(offset int) bool {
	_, err := s.index(offset)
	return err == nil
}

// Len returns number of slots, used or free.
func (s *State) Len() int {
	return len(s.used)
}

// Live returns number of used slots.
func (s *State) Live() int {
	return s.live
}

// Size returns the state size of one slot.
func (s *State) Size() int {
	return s.size
}

// Bytes returns the arena length.
func (s *State) Bytes() int {
	return len(s.arena)
}
