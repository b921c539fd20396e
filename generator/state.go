package generator

import "unsafe"

// View returns the state slot as *T. It returns nil when the slot is
// shorter than T or not aligned for T, so a type reloaded with a different
// layout never reads past its slot.
func View[T any](state []byte) *T {
	var zero T
	size := unsafe.Sizeof(zero)
	if size == 0 || uintptr(len(state)) < size {
		return nil
	}
	p := unsafe.Pointer(unsafe.SliceData(state))
	if uintptr(p)%unsafe.Alignof(zero) != 0 {
		return nil
	}
	return (*T)(p)
}

// Float64s views the state slot as float64 values. Trailing bytes that do
// not fill a whole value are not visible.
func Float64s(state []byte) []float64 {
	n := len(state) / 8
	if n == 0 {
		return nil
	}
	p := unsafe.Pointer(unsafe.SliceData(state))
	if uintptr(p)%unsafe.Alignof(float64(0)) != 0 {
		return nil
	}
	return unsafe.Slice((*float64)(p), n)
}

// SizeOf returns the state size to declare for a state struct T.
func SizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
