package pipeline_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/bzzt/generator"
	"github.com/dudk/bzzt/generator/builtin"
	"github.com/dudk/bzzt/pipeline"
)

var cfg = generator.Config{FrameSize: 64, SampleRate: 44100}

// counter counts render calls in its state.
func counter() generator.Type {
	return generator.Type{
		Properties: generator.Properties{ID: "counter", Size: 8, Inputs: 0, Outputs: 1},
		Render: func(_, out []float64, state []byte, _ generator.Config) {
			n := generator.View[float64](state)
			*n++
			out[0] = *n
		},
	}
}

// failing never initializes.
func failing() generator.Type {
	return generator.Type{
		Properties: generator.Properties{ID: "failing", Size: 8, Inputs: 1, Outputs: 1},
		Render:     func(_, _ []float64, _ []byte, _ generator.Config) {},
		Init:       func([]byte) bool { return false },
	}
}

func newPipeline(t *testing.T) (*pipeline.Pipeline, *generator.Registry) {
	t.Helper()
	r := builtin.NewRegistry()
	r.MustRegister(counter())
	r.MustRegister(failing())
	p, err := pipeline.New(cfg, r, pipeline.WithReserve(16))
	require.NoError(t, err)
	return p, r
}

func order(p *pipeline.Pipeline) []pipeline.Handle {
	var handles []pipeline.Handle
	for _, s := range p.Steps() {
		handles = append(handles, s.Handle)
	}
	return handles
}

func TestNew(t *testing.T) {
	_, err := pipeline.New(generator.Config{}, generator.NewRegistry())
	assert.True(t, errors.Is(err, generator.ErrInvalidConfig))
	_, err = pipeline.New(cfg, nil)
	assert.Error(t, err)

	p, _ := newPipeline(t)
	assert.NotEmpty(t, p.UID())
	assert.Equal(t, cfg, p.Config())
	assert.Equal(t, pipeline.InvalidHandle, p.Handle(0))
}

func TestAddPositions(t *testing.T) {
	p, r := newPipeline(t)
	sine := r.Lookup("sine")

	a, err := p.AddBack(sine)
	require.NoError(t, err)
	b, err := p.AddFront(sine)
	require.NoError(t, err)
	c, err := p.AddAfter(sine, b)
	require.NoError(t, err)
	d, err := p.AddBefore(sine, b)
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Handle{d, b, c, a}, order(p))
	assert.Equal(t, a, p.Handle(3))

	_, err = p.AddBack(generator.InvalidType)
	assert.True(t, errors.Is(err, pipeline.ErrUnknownType))
	_, err = p.AddBefore(sine, pipeline.InvalidHandle)
	assert.True(t, errors.Is(err, pipeline.ErrUnknownHandle))
	assert.Equal(t, 4, p.Len())
}

func TestDefaultBindings(t *testing.T) {
	p, r := newPipeline(t)
	h, err := p.AddBack(r.Lookup("add2"))
	require.NoError(t, err)
	in, out, err := p.Bindings(h)
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Binding{pipeline.Literal(0), pipeline.Literal(0)}, in)
	assert.Equal(t, []pipeline.Binding{pipeline.Literal(0)}, out)
	assert.Equal(t, "add2", p.Steps()[0].ID())
	assert.Equal(t, 2, p.Steps()[0].Properties().Inputs)
}

func TestInitFailed(t *testing.T) {
	p, r := newPipeline(t)
	h, err := p.AddBack(r.Lookup("failing"))
	assert.True(t, errors.Is(err, pipeline.ErrInitFailed))
	assert.Equal(t, pipeline.InvalidHandle, h)
	assert.False(t, h.Valid())
	assert.Equal(t, 0, p.Len())
}

func TestMove(t *testing.T) {
	p, r := newPipeline(t)
	var h []pipeline.Handle
	for i := 0; i < 4; i++ {
		handle, err := p.AddBack(r.Lookup("copy"))
		require.NoError(t, err)
		h = append(h, handle)
	}

	var tests = []struct {
		description string
		move        func() error
		expected    []int
	}{
		{"front", func() error { return p.MoveFront(h[2]) }, []int{2, 0, 1, 3}},
		{"back", func() error { return p.MoveBack(h[2]) }, []int{0, 1, 3, 2}},
		{"before", func() error { return p.MoveBefore(h[2], h[0]) }, []int{2, 0, 1, 3}},
		{"after", func() error { return p.MoveAfter(h[2], h[3]) }, []int{0, 1, 3, 2}},
		{"after itself", func() error { return p.MoveAfter(h[1], h[1]) }, []int{0, 1, 3, 2}},
		{"clamp high", func() error { return p.MoveTo(h[0], 100) }, []int{1, 3, 2, 0}},
		{"clamp low", func() error { return p.MoveTo(h[0], -5) }, []int{0, 1, 3, 2}},
	}
	for _, test := range tests {
		require.NoError(t, test.move(), test.description)
		var expected []pipeline.Handle
		for _, i := range test.expected {
			expected = append(expected, h[i])
		}
		assert.Equal(t, expected, order(p), test.description)
	}

	assert.True(t, errors.Is(p.MoveBefore(h[0], pipeline.InvalidHandle), pipeline.ErrUnknownHandle))
	assert.Equal(t, 4, p.Len())
}

func TestFirstFitReuse(t *testing.T) {
	p, r := newPipeline(t)
	sine := r.Lookup("sine")
	a, _ := p.AddBack(sine)
	b, _ := p.AddBack(sine)
	c, _ := p.AddBack(sine)
	require.NoError(t, p.Delete(b))

	d, err := p.AddBack(sine)
	require.NoError(t, err)
	assert.Equal(t, b.Offset, d.Offset)
	assert.NotEqual(t, b.Generation, d.Generation)

	e, _ := p.AddBack(sine)
	assert.Greater(t, e.Offset, c.Offset)
	assert.Equal(t, []pipeline.Handle{a, c, d, e}, order(p))
}

func TestStaleHandle(t *testing.T) {
	p, r := newPipeline(t)
	sine := r.Lookup("sine")
	h, _ := p.AddBack(sine)
	require.NoError(t, p.Delete(h))

	// released slot
	assert.True(t, errors.Is(p.Delete(h), pipeline.ErrStaleHandle))

	// reused slot
	reused, _ := p.AddBack(sine)
	assert.Equal(t, h.Offset, reused.Offset)
	assert.True(t, errors.Is(p.SetParameter(h, builtin.Volume, 0), pipeline.ErrStaleHandle))
	assert.True(t, errors.Is(p.SetInputValue(h, 0, 1), pipeline.ErrStaleHandle))
	assert.True(t, errors.Is(p.MoveFront(h), pipeline.ErrStaleHandle))
	assert.NoError(t, p.SetParameter(reused, builtin.Volume, 0))

	never := pipeline.Handle{Type: sine, Offset: 1024}
	assert.True(t, errors.Is(p.Delete(never), pipeline.ErrUnknownHandle))
}

func TestSockets(t *testing.T) {
	p, r := newPipeline(t)
	h, _ := p.AddBack(r.Lookup("sine"))
	b := p.AddBuffer()

	assert.NoError(t, p.SetInputBuffer(h, 0, b))
	assert.NoError(t, p.SetOutputBuffer(h, 0, b))
	assert.True(t, errors.Is(p.SetInputBuffer(h, 1, b), pipeline.ErrSocket))
	assert.True(t, errors.Is(p.SetOutputBuffer(h, -1, b), pipeline.ErrSocket))
	assert.True(t, errors.Is(p.SetInputValue(h, generator.MaxSockets, 1), pipeline.ErrSocket))
	assert.True(t, errors.Is(p.SetInputBuffer(h, 0, b+1), pipeline.ErrUnknownBuffer))
	assert.True(t, errors.Is(p.SetOutputBuffer(h, 0, pipeline.InvalidBuffer), pipeline.ErrUnknownBuffer))

	in, out, _ := p.Bindings(h)
	assert.Equal(t, pipeline.Bind(b), in[0])
	assert.Equal(t, pipeline.Bind(b), out[0])

	assert.NoError(t, p.ClearOutput(h, 0))
	assert.NoError(t, p.SetInputValue(h, 0, 0.5))
	in, out, _ = p.Bindings(h)
	assert.Equal(t, pipeline.Literal(0.5), in[0])
	assert.Equal(t, pipeline.Literal(0), out[0])
	assert.Equal(t, "0.5", in[0].String())
	assert.Equal(t, "#0", pipeline.Bind(0).String())
}

func TestRemoveBufferScrubs(t *testing.T) {
	p, r := newPipeline(t)
	a, b := p.AddBuffer(), p.AddBuffer()
	add, _ := p.AddBack(r.Lookup("add2"))
	sine, _ := p.AddBack(r.Lookup("sine"))
	require.NoError(t, p.SetInputBuffer(add, 0, a))
	require.NoError(t, p.SetInputBuffer(add, 1, b))
	require.NoError(t, p.SetOutputBuffer(add, 0, a))
	require.NoError(t, p.SetOutputBuffer(sine, 0, a))

	require.NoError(t, p.RemoveBuffer(a))
	for _, s := range p.Steps() {
		for _, binding := range append(s.Inputs[:], s.Outputs[:]...) {
			assert.False(t, binding.IsBuffer && binding.Buffer == a)
		}
	}
	in, out, _ := p.Bindings(add)
	assert.Equal(t, []pipeline.Binding{pipeline.Literal(0), pipeline.Bind(b)}, in)
	assert.Equal(t, []pipeline.Binding{pipeline.Literal(0)}, out)

	assert.True(t, errors.Is(p.RemoveBuffer(a), pipeline.ErrUnknownBuffer))
	// reused index is not cross-wired
	assert.Equal(t, a, p.AddBuffer())
	_, out, _ = p.Bindings(sine)
	assert.Equal(t, pipeline.Literal(0), out[0])
}

func TestBindingsStayWithSteps(t *testing.T) {
	p, r := newPipeline(t)
	types := []generator.TypeHandle{r.Lookup("sine"), r.Lookup("add2"), r.Lookup("copy"), r.Lookup("mul")}
	buffers := []pipeline.BufferHandle{p.AddBuffer(), p.AddBuffer(), p.AddBuffer()}
	expected := make(map[pipeline.Handle]pipeline.BufferHandle)
	rnd := rand.New(rand.NewSource(1))

	var live []pipeline.Handle
	for op := 0; op < 500; op++ {
		switch k := rnd.Intn(4); {
		case k == 0 || len(live) == 0:
			h, err := p.AddFront(types[rnd.Intn(len(types))])
			require.NoError(t, err)
			b := buffers[rnd.Intn(len(buffers))]
			require.NoError(t, p.SetOutputBuffer(h, 0, b))
			expected[h] = b
			live = append(live, h)
		case k == 1:
			i := rnd.Intn(len(live))
			require.NoError(t, p.Delete(live[i]))
			delete(expected, live[i])
			live = append(live[:i], live[i+1:]...)
		case k == 2:
			require.NoError(t, p.MoveTo(live[rnd.Intn(len(live))], rnd.Intn(len(live)+2)-1))
		default:
			require.NoError(t, p.MoveAfter(live[rnd.Intn(len(live))], live[rnd.Intn(len(live))]))
		}

		steps := p.Steps()
		require.Equal(t, len(live), p.Len())
		require.Len(t, steps, len(live))
		for _, s := range steps {
			_, out, err := p.Bindings(s.Handle)
			require.NoError(t, err)
			require.Equal(t, pipeline.Bind(expected[s.Handle]), out[0])
		}
	}
}

func TestExecuteEmpty(t *testing.T) {
	p, _ := newPipeline(t)
	b := p.AddBuffer()
	data := make([]float64, cfg.FrameSize)
	for i := range data {
		data[i] = float64(i)
	}
	require.True(t, p.SetBuffer(b, data))
	p.Execute()
	assert.Equal(t, data, p.Buffer(b))
}

func TestExecuteIdentity(t *testing.T) {
	p, r := newPipeline(t)
	a, b := p.AddBuffer(), p.AddBuffer()
	h, _ := p.AddBack(r.Lookup("copy"))
	require.NoError(t, p.SetInputBuffer(h, 0, a))
	require.NoError(t, p.SetOutputBuffer(h, 0, b))

	data := make([]float64, cfg.FrameSize)
	for i := range data {
		data[i] = math.Sin(float64(i))
	}
	require.True(t, p.SetBuffer(a, data))
	assert.False(t, p.SetBuffer(a, data[1:]))
	p.Execute()
	assert.Equal(t, data, p.Buffer(b))
	assert.Equal(t, data, p.Buffer(a))
}

func TestExecuteOrder(t *testing.T) {
	p, r := newPipeline(t)
	b := p.AddBuffer()
	count, _ := p.AddBack(r.Lookup("counter"))
	gain, _ := p.AddBack(r.Lookup("gain"))
	require.NoError(t, p.SetOutputBuffer(count, 0, b))
	require.NoError(t, p.SetInputBuffer(gain, 0, b))
	require.NoError(t, p.SetOutputBuffer(gain, 0, b))
	require.NoError(t, p.SetParameter(gain, builtin.Volume, 2))

	p.Execute()
	frame := p.Buffer(b)
	for i := range frame {
		assert.Equal(t, float64(2*(i+1)), frame[i])
	}

	// gain before counter sees nothing of this frame
	require.NoError(t, p.MoveFront(gain))
	p.ResetBuffers()
	p.Execute()
	frame = p.Buffer(b)
	assert.Equal(t, float64(cfg.FrameSize+1), frame[0])
}

func TestExecuteUnboundOutput(t *testing.T) {
	p, r := newPipeline(t)
	b := p.AddBuffer()
	h, _ := p.AddBack(r.Lookup("sine"))
	require.NoError(t, p.SetInputBuffer(h, 0, b))
	p.Execute()
	assert.Equal(t, make([]float64, cfg.FrameSize), p.Buffer(b))
}

func TestExecuteDoesNotAllocate(t *testing.T) {
	p, r := newPipeline(t)
	a, b := p.AddBuffer(), p.AddBuffer()
	sine, _ := p.AddBack(r.Lookup("sine"))
	lp, _ := p.AddBack(r.Lookup("lowpass"))
	require.NoError(t, p.SetOutputBuffer(sine, 0, a))
	require.NoError(t, p.SetInputBuffer(lp, 0, a))
	require.NoError(t, p.SetOutputBuffer(lp, 0, b))
	assert.Zero(t, testing.AllocsPerRun(100, p.Execute))
}

func TestClear(t *testing.T) {
	p, r := newPipeline(t)
	h, _ := p.AddBack(r.Lookup("sine"))
	p.AddBuffer()
	p.Clear()
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Buffers())
	assert.True(t, errors.Is(p.Delete(h), pipeline.ErrStaleHandle))

	h2, _ := p.AddBack(r.Lookup("sine"))
	assert.Equal(t, h.Offset, h2.Offset)
	assert.NoError(t, p.Close())
}
