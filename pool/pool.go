/*
Package pool provides the storage behind a pipeline: byte arenas holding
generator state and fixed length sample buffers.

Both pools keep an occupancy flag per slot and reuse the first free slot
before growing, so offsets and indices stay small and stable.
*/
package pool

import "errors"

// initialReserve is the byte capacity reserved for a new state arena.
const initialReserve = 8192

var (
	// ErrMisaligned is returned when an offset is not a slot boundary.
	ErrMisaligned = errors.New("offset is not aligned to slot size")
	// ErrNotAllocated is returned when a slot or buffer is not in use.
	ErrNotAllocated = errors.New("not allocated")
)

// firstFree returns index of first false flag or -1.
func firstFree(used []bool) int {
	for i, u := range used {
		if !u {
			return i
		}
	}
	return -1
}
