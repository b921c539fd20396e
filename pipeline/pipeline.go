/*
Package pipeline holds an ordered list of generator instances and the
buffers that connect them.

Array order is execution order: a step sees a buffer written by another
step only if that step comes earlier. Structural operations resolve
handles by linear scan and are expected to run between frames, never
concurrently with Execute.

	p, _ := pipeline.New(cfg, registry)
	out := p.AddBuffer()
	sine, _ := p.AddBack(registry.Lookup("sine"))
	p.SetOutputBuffer(sine, 0, out)
	p.Execute()
*/
package pipeline

import (
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/dudk/bzzt/generator"
	"github.com/dudk/bzzt/log"
	"github.com/dudk/bzzt/pool"
)

var (
	// ErrUnknownType is returned when a type handle is not registered.
	ErrUnknownType = errors.New("unknown generator type")
	// ErrUnknownHandle is returned when no step matches a handle.
	ErrUnknownHandle = errors.New("unknown generator handle")
	// ErrStaleHandle is returned when a handle refers to a slot that was
	// released since the handle was issued.
	ErrStaleHandle = errors.New("stale generator handle")
	// ErrInitFailed is returned when generator init rejects an instance.
	ErrInitFailed = errors.New("generator init failed")
	// ErrSocket is returned for a socket index outside declared arity.
	ErrSocket = errors.New("socket out of range")
	// ErrUnknownBuffer is returned when a buffer is not allocated.
	ErrUnknownBuffer = errors.New("unknown buffer")
)

// Pipeline is an ordered sequence of generator steps.
type Pipeline struct {
	uid      string
	cfg      generator.Config
	registry *generator.Registry
	logger   log.Logger

	steps   []Step
	states  map[generator.TypeHandle]*pool.State
	buffers *pool.Buffers

	// scratch for Execute, kept here so nothing escapes per call
	in      [generator.MaxSockets]float64
	out     [generator.MaxSockets]float64
	inBufs  [generator.MaxSockets][]float64
	outBufs [generator.MaxSockets][]float64
}

// Option configures a pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for structural operations.
func WithLogger(l log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithReserve preallocates room for n steps.
func WithReserve(n int) Option {
	return func(p *Pipeline) {
		if n > cap(p.steps) {
			p.steps = make([]Step, 0, n)
		}
	}
}

// New returns an empty pipeline for cfg that resolves types in r.
func New(cfg generator.Config, r *generator.Registry, options ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrUnknownType)
	}
	p := Pipeline{
		uid:      xid.New().String(),
		cfg:      cfg,
		registry: r,
		logger:   log.Silent(),
		states:   make(map[generator.TypeHandle]*pool.State),
		buffers:  pool.NewBuffers(cfg.FrameSize),
	}
	for _, option := range options {
		option(&p)
	}
	return &p, nil
}

// UID returns unique identifier of the pipeline.
func (p *Pipeline) UID() string {
	return p.uid
}

// Config returns audio configuration of the pipeline.
func (p *Pipeline) Config() generator.Config {
	return p.cfg
}

// Registry returns the registry the pipeline resolves types in.
func (p *Pipeline) Registry() *generator.Registry {
	return p.registry
}

// Len returns number of steps.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Handle returns handle of step at index i or InvalidHandle.
func (p *Pipeline) Handle(i int) Handle {
	if i < 0 || i >= len(p.steps) {
		return InvalidHandle
	}
	return p.steps[i].Handle
}

// Steps returns a copy of every step in execution order.
func (p *Pipeline) Steps() []Step {
	steps := make([]Step, len(p.steps))
	copy(steps, p.steps)
	return steps
}

// AddFront inserts a new instance of t before every other step.
func (p *Pipeline) AddFront(t generator.TypeHandle) (Handle, error) {
	return p.add(t, 0)
}

// AddBack appends a new instance of t after every other step.
func (p *Pipeline) AddBack(t generator.TypeHandle) (Handle, error) {
	return p.add(t, len(p.steps))
}

// AddBefore inserts a new instance of t right before step other.
func (p *Pipeline) AddBefore(t generator.TypeHandle, other Handle) (Handle, error) {
	i, err := p.index(other)
	if err != nil {
		return InvalidHandle, err
	}
	return p.add(t, i)
}

// AddAfter inserts a new instance of t right after step other.
func (p *Pipeline) AddAfter(t generator.TypeHandle, other Handle) (Handle, error) {
	i, err := p.index(other)
	if err != nil {
		return InvalidHandle, err
	}
	return p.add(t, i+1)
}

func (p *Pipeline) add(t generator.TypeHandle, at int) (Handle, error) {
	typ, ok := p.registry.Type(t)
	if !ok {
		return InvalidHandle, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
	states, ok := p.states[t]
	if !ok {
		states = pool.NewState(typ.Size)
		p.states[t] = states
	}
	offset := states.Allocate()
	if !typ.Init(states.Slot(offset)) {
		states.Release(offset)
		return InvalidHandle, fmt.Errorf("%w: %s", ErrInitFailed, typ.ID)
	}
	s := Step{
		Handle: Handle{
			Type:       t,
			Offset:     offset,
			Generation: states.Generation(offset),
		},
		typ:  typ,
		pool: states,
	}
	for i := range s.Inputs {
		s.Inputs[i] = Literal(0)
		s.Outputs[i] = Literal(0)
	}
	p.insert(at, s)
	p.logger.Debug(fmt.Sprintf("pipeline %s: add %s %v at %d", p.uid, typ.ID, s.Handle, at))
	return s.Handle, nil
}

func (p *Pipeline) insert(at int, s Step) {
	at = clamp(at, len(p.steps))
	p.steps = append(p.steps, Step{})
	copy(p.steps[at+1:], p.steps[at:])
	p.steps[at] = s
}

func (p *Pipeline) remove(i int) Step {
	s := p.steps[i]
	copy(p.steps[i:], p.steps[i+1:])
	p.steps[len(p.steps)-1] = Step{}
	p.steps = p.steps[:len(p.steps)-1]
	return s
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// index resolves h to the current position of its step.
func (p *Pipeline) index(h Handle) (int, error) {
	for i := range p.steps {
		if !p.steps[i].Handle.same(h) {
			continue
		}
		if p.steps[i].Handle.Generation != h.Generation {
			return -1, fmt.Errorf("%w: %v", ErrStaleHandle, h)
		}
		return i, nil
	}
	if states, ok := p.states[h.Type]; ok && states.Generation(h.Offset) != h.Generation {
		return -1, fmt.Errorf("%w: %v", ErrStaleHandle, h)
	}
	return -1, fmt.Errorf("%w: %v", ErrUnknownHandle, h)
}

// MoveFront moves step h before every other step.
func (p *Pipeline) MoveFront(h Handle) error {
	return p.MoveTo(h, 0)
}

// MoveBack moves step h after every other step.
func (p *Pipeline) MoveBack(h Handle) error {
	return p.MoveTo(h, len(p.steps))
}

// MoveBefore moves step h right before step other.
func (p *Pipeline) MoveBefore(h, other Handle) error {
	return p.moveRelative(h, other, 0)
}

// MoveAfter moves step h right after step other.
func (p *Pipeline) MoveAfter(h, other Handle) error {
	return p.moveRelative(h, other, 1)
}

func (p *Pipeline) moveRelative(h, other Handle, shift int) error {
	i, err := p.index(h)
	if err != nil {
		return err
	}
	if _, err := p.index(other); err != nil {
		return err
	}
	s := p.remove(i)
	j, err := p.index(other)
	if err != nil {
		// h and other are the same step
		p.insert(i, s)
		return nil
	}
	p.insert(j+shift, s)
	return nil
}

// MoveTo moves step h to position at. Position is clamped to the
// pipeline bounds after the step is taken out.
func (p *Pipeline) MoveTo(h Handle, at int) error {
	i, err := p.index(h)
	if err != nil {
		return err
	}
	p.insert(at, p.remove(i))
	return nil
}

// Delete deinits generator h, releases its state and removes its step.
func (p *Pipeline) Delete(h Handle) error {
	i, err := p.index(h)
	if err != nil {
		return err
	}
	s := p.remove(i)
	s.typ.Deinit(s.pool.Slot(s.Handle.Offset))
	if err := s.pool.Release(s.Handle.Offset); err != nil {
		return err
	}
	p.logger.Debug(fmt.Sprintf("pipeline %s: delete %s %v", p.uid, s.typ.ID, h))
	return nil
}

// socket resolves h and checks socket i against declared arity.
func (p *Pipeline) socket(h Handle, i int, outputs bool) (*Step, error) {
	idx, err := p.index(h)
	if err != nil {
		return nil, err
	}
	s := &p.steps[idx]
	n := s.typ.Inputs
	if outputs {
		n = s.typ.Outputs
	}
	if i < 0 || i >= n {
		return nil, fmt.Errorf("%w: %s socket %d of %d", ErrSocket, s.typ.ID, i, n)
	}
	return s, nil
}

func (p *Pipeline) checkBuffer(b BufferHandle) error {
	if !p.buffers.InUse(int(b)) {
		return fmt.Errorf("%w: #%d", ErrUnknownBuffer, b)
	}
	return nil
}

// SetInputBuffer binds input i of h to buffer b.
func (p *Pipeline) SetInputBuffer(h Handle, i int, b BufferHandle) error {
	if err := p.checkBuffer(b); err != nil {
		return err
	}
	s, err := p.socket(h, i, false)
	if err != nil {
		return err
	}
	s.Inputs[i] = Bind(b)
	return nil
}

// SetInputValue binds input i of h to literal v.
func (p *Pipeline) SetInputValue(h Handle, i int, v float64) error {
	s, err := p.socket(h, i, false)
	if err != nil {
		return err
	}
	s.Inputs[i] = Literal(v)
	return nil
}

// SetOutputBuffer binds output i of h to buffer b.
func (p *Pipeline) SetOutputBuffer(h Handle, i int, b BufferHandle) error {
	if err := p.checkBuffer(b); err != nil {
		return err
	}
	s, err := p.socket(h, i, true)
	if err != nil {
		return err
	}
	s.Outputs[i] = Bind(b)
	return nil
}

// ClearOutput unbinds output i of h. Values rendered to an unbound
// output are discarded.
func (p *Pipeline) ClearOutput(h Handle, i int) error {
	s, err := p.socket(h, i, true)
	if err != nil {
		return err
	}
	s.Outputs[i] = Literal(0)
	return nil
}

// SetParameter forwards a parameter change to generator h. Index range
// is up to the generator, unknown indices are ignored.
func (p *Pipeline) SetParameter(h Handle, index int, v float64) error {
	i, err := p.index(h)
	if err != nil {
		return err
	}
	s := &p.steps[i]
	s.typ.SetParameter(s.pool.Slot(s.Handle.Offset), index, v)
	return nil
}

// Bindings returns declared input and output bindings of h.
func (p *Pipeline) Bindings(h Handle) (inputs, outputs []Binding, err error) {
	i, err := p.index(h)
	if err != nil {
		return nil, nil, err
	}
	s := &p.steps[i]
	inputs = append(inputs, s.Inputs[:s.typ.Inputs]...)
	outputs = append(outputs, s.Outputs[:s.typ.Outputs]...)
	return inputs, outputs, nil
}

// AddBuffer allocates a zeroed buffer.
func (p *Pipeline) AddBuffer() BufferHandle {
	return BufferHandle(p.buffers.Add())
}

// RemoveBuffer frees buffer b and turns every binding that referenced
// it into literal 0.
func (p *Pipeline) RemoveBuffer(b BufferHandle) error {
	if err := p.buffers.Remove(int(b)); err != nil {
		return fmt.Errorf("%w: #%d", ErrUnknownBuffer, b)
	}
	for i := range p.steps {
		s := &p.steps[i]
		for j := range s.Inputs {
			if s.Inputs[j].IsBuffer && s.Inputs[j].Buffer == b {
				s.Inputs[j] = Literal(0)
			}
		}
		for j := range s.Outputs {
			if s.Outputs[j].IsBuffer && s.Outputs[j].Buffer == b {
				s.Outputs[j] = Literal(0)
			}
		}
	}
	return nil
}

// Buffer returns buffer b or nil.
func (p *Pipeline) Buffer(b BufferHandle) []float64 {
	return p.buffers.Get(int(b))
}

// SetBuffer overwrites buffer b with data. Size mismatch is a no-op and
// returns false.
func (p *Pipeline) SetBuffer(b BufferHandle, data []float64) bool {
	return p.buffers.Set(int(b), data)
}

// ResetBuffers zeroes every buffer.
func (p *Pipeline) ResetBuffers() {
	p.buffers.Reset()
}

// Buffers returns handles of allocated buffers.
func (p *Pipeline) Buffers() []BufferHandle {
	var handles []BufferHandle
	for i := 0; i < p.buffers.Len(); i++ {
		if p.buffers.InUse(i) {
			handles = append(handles, BufferHandle(i))
		}
	}
	return handles
}

// Execute renders one frame. Steps run in order, each rendering every
// sample of the frame before the next step starts.
func (p *Pipeline) Execute() {
	frame := p.cfg.FrameSize
	for si := range p.steps {
		s := &p.steps[si]
		typ := s.typ
		state := s.pool.Slot(s.Handle.Offset)
		for i := 0; i < typ.Inputs; i++ {
			p.inBufs[i] = nil
			if s.Inputs[i].IsBuffer {
				p.inBufs[i] = p.buffers.Get(int(s.Inputs[i].Buffer))
			}
		}
		for i := 0; i < typ.Outputs; i++ {
			p.outBufs[i] = nil
			if s.Outputs[i].IsBuffer {
				p.outBufs[i] = p.buffers.Get(int(s.Outputs[i].Buffer))
			}
		}
		in, out := p.in[:typ.Inputs], p.out[:typ.Outputs]
		for n := 0; n < frame; n++ {
			for i := range in {
				if b := p.inBufs[i]; b != nil {
					in[i] = b[n]
				} else {
					in[i] = s.Inputs[i].Value
				}
			}
			typ.Render(in, out, state, p.cfg)
			for i := range out {
				if b := p.outBufs[i]; b != nil {
					b[n] = out[i]
				}
			}
		}
	}
}

// Clear deletes every step and buffer.
func (p *Pipeline) Clear() {
	for len(p.steps) > 0 {
		s := p.remove(len(p.steps) - 1)
		s.typ.Deinit(s.pool.Slot(s.Handle.Offset))
		s.pool.Release(s.Handle.Offset)
	}
	for _, b := range p.Buffers() {
		p.buffers.Remove(int(b))
	}
	p.logger.Debug(fmt.Sprintf("pipeline %s: cleared", p.uid))
}

// Close deinits every step and closes images owned by the registry.
func (p *Pipeline) Close() error {
	p.Clear()
	return p.registry.Close()
}
