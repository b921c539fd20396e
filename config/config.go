/*
Package config loads pipelines from text files.

A file has three required sections:

	[generators]
	"generators/sine.go"

	[pipeline]
	script-sine (0.0) (#0)
	gain (#0) (#1)

	[output]
	left #1
	right #1

Generators lists quoted paths of generator sources compiled at load time.
Every pipeline line is a generator id followed by parenthesised inputs and
outputs. Inputs are buffer ids like #0 or literals, outputs are buffer ids.
Output selects buffers for the left and right channels.

An optional parameters section sets generator parameters by step index:

	[parameters]
	0 1 220

A file is applied only when no problem was found in it.
*/
package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/generator"
	"github.com/dudk/bzzt/generator/script"
	"github.com/dudk/bzzt/pipeline"
)

var (
	// ErrRegistered is returned when a plan is registered twice.
	ErrRegistered = errors.New("plan already registered")
	// ErrNotReady is returned when a plan that did not register cleanly
	// is applied.
	ErrNotReady = errors.New("plan not ready")
)

type (
	// Plan is a checked file ready to be applied to a process.
	Plan struct {
		registry   *generator.Registry
		images     []*script.Image
		steps      []step
		buffers    []int
		routes     []Route
		parameters []Parameter
		registered bool
		ready      bool
	}

	step struct {
		Step
		typ generator.TypeHandle
	}
)

// Prepare compiles generator sources of f and checks the pipeline against
// the compiled types and the ones known to r. Compiled types take
// precedence over registered ones with the same id, except for reserved
// ids. Every problem is collected into Errors.
func Prepare(f *File, r *generator.Registry) (*Plan, error) {
	p := Plan{registry: r}
	var errs Errors
	known := make(map[string]generator.Properties)
	for _, src := range f.Generators {
		img, err := script.Load(src.Path, src.Text)
		if err != nil {
			errs = append(errs, &Error{Section: Generators, Line: src.Line, Err: err})
			continue
		}
		id := img.Type().ID
		_, twice := known[id]
		if twice || r.Reserved(id) {
			img.Close()
			errs = append(errs, &Error{Section: Generators, Line: src.Line, Err: fmt.Errorf("%w: %s", generator.ErrDuplicateType, id)})
			continue
		}
		p.images = append(p.images, img)
		known[id] = img.Type().Properties
	}

	used := make(map[int]struct{})
	for _, s := range f.Steps {
		props, ok := known[s.ID]
		if !ok {
			t, found := r.Type(r.Lookup(s.ID))
			if !found {
				errs = append(errs, &Error{Section: Pipeline, Line: s.Line, Err: fmt.Errorf("%w: %s", ErrUnknownGenerator, s.ID)})
				continue
			}
			props = t.Properties
		}
		if len(s.Inputs) != props.Inputs || len(s.Outputs) != props.Outputs {
			errs = append(errs, &Error{
				Section: Pipeline,
				Line:    s.Line,
				Err: fmt.Errorf("%w: %s takes %d inputs and %d outputs, got %d and %d",
					ErrArity, s.ID, props.Inputs, props.Outputs, len(s.Inputs), len(s.Outputs)),
			})
			continue
		}
		for _, v := range s.Inputs {
			if v.IsBuffer {
				used[v.Buffer] = struct{}{}
			}
		}
		for _, v := range s.Outputs {
			used[v.Buffer] = struct{}{}
		}
		p.steps = append(p.steps, step{Step: s, typ: generator.InvalidType})
	}

	for _, route := range f.Outputs {
		if _, ok := used[route.Buffer]; !ok {
			errs = append(errs, &Error{Section: Output, Line: route.Line, Err: fmt.Errorf("%w: #%d", ErrUnknownBuffer, route.Buffer)})
			continue
		}
		p.routes = append(p.routes, route)
	}
	for _, prm := range f.Parameters {
		if prm.Step >= len(f.Steps) {
			errs = append(errs, &Error{Section: Parameters, Line: prm.Line, Err: fmt.Errorf("%w: %d", ErrStep, prm.Step)})
			continue
		}
		p.parameters = append(p.parameters, prm)
	}

	if len(errs) > 0 {
		p.Close()
		return nil, errs
	}
	for b := range used {
		p.buffers = append(p.buffers, b)
	}
	sort.Ints(p.buffers)
	return &p, nil
}

// Register hands compiled images over to the registry, rebinding their ids
// to the new types, and resolves step types. Steps are checked again
// against the resolved types, so a plan that registered without error
// binds cleanly. Register must not run on the rendering goroutine.
func (p *Plan) Register() error {
	if p.registered {
		return ErrRegistered
	}
	p.registered = true
	var errs []error
	for _, img := range p.images {
		if _, err := p.registry.Rebind(img.Type(), img); err != nil {
			errs = append(errs, fmt.Errorf("error registering %s: %w", img.Name(), err))
		}
	}
	p.images = nil
	for i := range p.steps {
		s := &p.steps[i]
		s.typ = p.registry.Lookup(s.ID)
		t, ok := p.registry.Type(s.typ)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownGenerator, s.ID))
			continue
		}
		if len(s.Inputs) != t.Inputs || len(s.Outputs) != t.Outputs {
			errs = append(errs, fmt.Errorf("%w: %s takes %d inputs and %d outputs, got %d and %d",
				ErrArity, s.ID, t.Inputs, t.Outputs, len(s.Inputs), len(s.Outputs)))
		}
	}
	p.ready = len(errs) == 0
	return errors.Join(errs...)
}

// Close releases images that were not registered.
func (p *Plan) Close() error {
	var errs []error
	for _, img := range p.images {
		if err := img.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.images = nil
	return errors.Join(errs...)
}

// Len returns number of steps in the plan.
func (p *Plan) Len() int {
	return len(p.steps)
}

// Apply replaces the pipeline of the configured process with the plan. It
// must be called from a configuration callback after Register. The new
// steps are built next to the old ones, so when a generator fails to
// initialize the pipeline and channels are left as they were.
func (p *Plan) Apply(c *bzzt.Configurer) error {
	if !p.ready {
		return ErrNotReady
	}
	pl := c.Pipeline()
	oldSteps, oldBuffers := pl.Steps(), pl.Buffers()

	buffers := make(map[int]pipeline.BufferHandle, len(p.buffers))
	for _, id := range p.buffers {
		buffers[id] = pl.AddBuffer()
	}
	handles := make([]pipeline.Handle, 0, len(p.steps))
	rollback := func() {
		for _, h := range handles {
			pl.Delete(h)
		}
		for _, b := range buffers {
			pl.RemoveBuffer(b)
		}
	}

	for i, s := range p.steps {
		h, err := pl.AddBack(s.typ)
		if err != nil {
			rollback()
			return fmt.Errorf("step %d %s: %w", i, s.ID, err)
		}
		handles = append(handles, h)
		if err := p.bind(pl, h, s, buffers); err != nil {
			rollback()
			return fmt.Errorf("step %d %s: %w", i, s.ID, err)
		}
	}
	for _, prm := range p.parameters {
		if err := pl.SetParameter(handles[prm.Step], prm.Index, prm.Value); err != nil {
			rollback()
			return fmt.Errorf("step %d parameter %d: %w", prm.Step, prm.Index, err)
		}
	}

	for _, s := range oldSteps {
		pl.Delete(s.Handle)
	}
	for _, b := range oldBuffers {
		pl.RemoveBuffer(b)
	}
	c.ClearChannels()
	for _, route := range p.routes {
		switch route.Channel {
		case Left:
			c.SetLeft(buffers[route.Buffer])
		case Right:
			c.SetRight(buffers[route.Buffer])
		}
	}
	return nil
}

func (p *Plan) bind(pl *pipeline.Pipeline, h pipeline.Handle, s step, buffers map[int]pipeline.BufferHandle) error {
	for j, v := range s.Inputs {
		var err error
		if v.IsBuffer {
			err = pl.SetInputBuffer(h, j, buffers[v.Buffer])
		} else {
			err = pl.SetInputValue(h, j, v.Literal)
		}
		if err != nil {
			return fmt.Errorf("input %d: %w", j, err)
		}
	}
	for j, v := range s.Outputs {
		if err := pl.SetOutputBuffer(h, j, buffers[v.Buffer]); err != nil {
			return fmt.Errorf("output %d: %w", j, err)
		}
	}
	return nil
}
