/*
Package generator defines the contract every signal generator implements.

A generator type is a fixed table of functions plus a properties record.
The engine never branches on the concrete type: it allocates Size bytes of
state for each instance, calls Init on the zeroed slot, then calls Render
once per sample with the scalar inputs gathered from buffers or literals.

	t := generator.Type{
		Properties: generator.Properties{ID: "copy", Inputs: 1, Outputs: 1},
		Render: func(in, out []float64, _ []byte, _ generator.Config) {
			out[0] = in[0]
		},
	}

Generator state must be plain data: no pointers, slices, maps or strings.
It lives inside a byte arena that may be moved when the arena grows.
*/
package generator

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MaxSockets is the ceiling for both input and output counts.
const MaxSockets = 8

type (
	// Config is the audio configuration shared by every render call.
	Config struct {
		FrameSize  int // samples per frame
		SampleRate int // Hz
	}

	// Properties describe a generator type without instantiating it.
	Properties struct {
		ID      string
		Size    int // bytes of per-instance state
		Inputs  int
		Outputs int
	}

	// RenderFunc computes one sample. in holds exactly Inputs values and
	// out exactly Outputs values. It must not allocate, block or retain
	// any of its arguments.
	RenderFunc func(in, out []float64, state []byte, cfg Config)

	// InitFunc prepares a zeroed state slot. Returning false rejects the
	// instance.
	InitFunc func(state []byte) bool

	// DeinitFunc releases whatever Init acquired.
	DeinitFunc func(state []byte)

	// SetParameterFunc applies a control change. Unknown indices must be
	// ignored.
	SetParameterFunc func(state []byte, index int, value float64)

	// Type is the function table of one generator type.
	Type struct {
		Properties
		Render       RenderFunc
		Init         InitFunc
		Deinit       DeinitFunc
		SetParameter SetParameterFunc
	}

	// TypeHandle identifies a registered type.
	TypeHandle uint32
)

// InvalidType is returned when a type cannot be resolved or loaded.
const InvalidType = TypeHandle(math.MaxUint32)

var (
	// ErrInvalidConfig is returned for non-positive frame size or sample rate.
	ErrInvalidConfig = errors.New("invalid audio config")
	// ErrInvalidType is returned when a type table is incomplete.
	ErrInvalidType = errors.New("invalid generator type")
)

// Valid reports whether the handle is not the InvalidType sentinel.
func (h TypeHandle) Valid() bool {
	return h != InvalidType
}

// Validate checks config values.
func (c Config) Validate() error {
	if c.FrameSize <= 0 || c.SampleRate <= 0 {
		return fmt.Errorf("%w: frame size %d, sample rate %d", ErrInvalidConfig, c.FrameSize, c.SampleRate)
	}
	return nil
}

// FrameDuration returns the real-time budget of one frame.
func (c Config) FrameDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.FrameSize) / float64(c.SampleRate) * float64(time.Second))
}

// Validate checks that the table can be executed by a pipeline.
func (t Type) Validate() error {
	switch {
	case t.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidType)
	case t.Size < 0:
		return fmt.Errorf("%w: %s: negative size %d", ErrInvalidType, t.ID, t.Size)
	case t.Inputs < 0 || t.Inputs > MaxSockets:
		return fmt.Errorf("%w: %s: %d inputs, max %d", ErrInvalidType, t.ID, t.Inputs, MaxSockets)
	case t.Outputs < 0 || t.Outputs > MaxSockets:
		return fmt.Errorf("%w: %s: %d outputs, max %d", ErrInvalidType, t.ID, t.Outputs, MaxSockets)
	case t.Render == nil:
		return fmt.Errorf("%w: %s: nil render", ErrInvalidType, t.ID)
	}
	return nil
}

// Normalize fills optional entry points with no-op defaults.
func (t Type) Normalize() Type {
	if t.Init == nil {
		t.Init = func([]byte) bool { return true }
	}
	if t.Deinit == nil {
		t.Deinit = func([]byte) {}
	}
	if t.SetParameter == nil {
		t.SetParameter = func([]byte, int, float64) {}
	}
	return t
}
