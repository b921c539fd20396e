package generator_test

import (
	"errors"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/bzzt/generator"
)

func copyType(id string) generator.Type {
	return generator.Type{
		Properties: generator.Properties{ID: id, Inputs: 1, Outputs: 1},
		Render: func(in, out []float64, _ []byte, _ generator.Config) {
			out[0] = in[0]
		},
	}
}

func TestConfig(t *testing.T) {
	var tests = []struct {
		cfg      generator.Config
		duration time.Duration
		err      bool
	}{
		{cfg: generator.Config{FrameSize: 441, SampleRate: 44100}, duration: 10 * time.Millisecond},
		{cfg: generator.Config{FrameSize: 0, SampleRate: 44100}, err: true},
		{cfg: generator.Config{FrameSize: 512, SampleRate: 0}, err: true},
	}
	for _, test := range tests {
		err := test.cfg.Validate()
		if test.err {
			assert.True(t, errors.Is(err, generator.ErrInvalidConfig))
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, test.duration, test.cfg.FrameDuration())
	}
}

func TestTypeValidate(t *testing.T) {
	valid := copyType("copy")
	var tests = []struct {
		description string
		mutate      func(*generator.Type)
		err         bool
	}{
		{description: "valid", mutate: func(*generator.Type) {}},
		{description: "empty id", mutate: func(t *generator.Type) { t.ID = "" }, err: true},
		{description: "negative size", mutate: func(t *generator.Type) { t.Size = -1 }, err: true},
		{description: "too many inputs", mutate: func(t *generator.Type) { t.Inputs = generator.MaxSockets + 1 }, err: true},
		{description: "too many outputs", mutate: func(t *generator.Type) { t.Outputs = generator.MaxSockets + 1 }, err: true},
		{description: "max sockets", mutate: func(t *generator.Type) { t.Inputs, t.Outputs = generator.MaxSockets, generator.MaxSockets }},
		{description: "nil render", mutate: func(t *generator.Type) { t.Render = nil }, err: true},
	}
	for _, test := range tests {
		typ := valid
		test.mutate(&typ)
		err := typ.Validate()
		if test.err {
			assert.True(t, errors.Is(err, generator.ErrInvalidType), test.description)
		} else {
			assert.NoError(t, err, test.description)
		}
	}
}

func TestNormalize(t *testing.T) {
	typ := copyType("copy").Normalize()
	assert.NotNil(t, typ.Init)
	assert.NotNil(t, typ.Deinit)
	assert.NotNil(t, typ.SetParameter)
	assert.True(t, typ.Init(nil))
	typ.Deinit(nil)
	typ.SetParameter(nil, 0, 1)
}

func TestView(t *testing.T) {
	type state struct {
		a, b float64
	}
	words := make([]uint64, 4)
	arena := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), 32)

	s := generator.View[state](arena[:16])
	assert.NotNil(t, s)
	s.b = 2
	assert.Equal(t, 2.0, generator.Float64s(arena)[1])

	assert.Nil(t, generator.View[state](arena[:15]), "short slot")
	assert.Nil(t, generator.View[state](arena[4:24]), "misaligned slot")
	assert.Nil(t, generator.View[struct{}](arena), "zero size")

	assert.Len(t, generator.Float64s(arena[:31]), 3)
	assert.Nil(t, generator.Float64s(arena[:7]))
	assert.Equal(t, 16, generator.SizeOf[state]())
}
