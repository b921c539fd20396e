package pipeline

import (
	"fmt"

	"github.com/dudk/bzzt/generator"
	"github.com/dudk/bzzt/pool"
)

type (
	// Handle identifies a generator instance: its type, the byte offset
	// of its state slot and the slot generation at creation.
	Handle struct {
		Type       generator.TypeHandle
		Offset     int
		Generation uint32
	}

	// BufferHandle is an index into the pipeline buffers.
	BufferHandle int

	// Binding connects a socket to a buffer or to a literal value.
	Binding struct {
		IsBuffer bool
		Buffer   BufferHandle
		Value    float64
	}

	// Step is one generator instance at its position in execution order
	// with the bindings of every declared socket.
	Step struct {
		Handle  Handle
		Inputs  [generator.MaxSockets]Binding
		Outputs [generator.MaxSockets]Binding

		typ  *generator.Type
		pool *pool.State
	}
)

var (
	// InvalidHandle is returned when an instance cannot be created.
	InvalidHandle = Handle{Type: generator.InvalidType, Offset: -1}
)

// InvalidBuffer is never a valid buffer index.
const InvalidBuffer BufferHandle = -1

// Valid reports whether h is not InvalidHandle.
func (h Handle) Valid() bool {
	return h.Type.Valid() && h.Offset >= 0
}

func (h Handle) String() string {
	if !h.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%d@%d/%d", h.Type, h.Offset, h.Generation)
}

// same reports whether both handles point at the same slot, ignoring
// generation.
func (h Handle) same(other Handle) bool {
	return h.Type == other.Type && h.Offset == other.Offset
}

// Literal returns a binding to constant v.
func Literal(v float64) Binding {
	return Binding{Buffer: InvalidBuffer, Value: v}
}

// Bind returns a binding to buffer b.
func Bind(b BufferHandle) Binding {
	return Binding{IsBuffer: true, Buffer: b}
}

func (b Binding) String() string {
	if b.IsBuffer {
		return fmt.Sprintf("#%d", b.Buffer)
	}
	return fmt.Sprintf("%g", b.Value)
}

// ID returns generator type id of the step.
func (s Step) ID() string {
	if s.typ == nil {
		return ""
	}
	return s.typ.ID
}

// Properties returns generator type properties of the step.
func (s Step) Properties() generator.Properties {
	if s.typ == nil {
		return generator.Properties{}
	}
	return s.typ.Properties
}
