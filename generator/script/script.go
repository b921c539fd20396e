/*
Package script compiles generator types from Go source at runtime.

Source is interpreted by yaegi. Each image gets its own interpreter with
only the math package available. A script declares a package and these
functions:

	func ID() string
	func Size() int // state bytes, multiple of 8
	func InputCount() int
	func OutputCount() int
	func Init(state []float64) bool
	func Deinit(state []float64)
	func Render(in, out, state []float64, sampleRate int)

SetParameter(state []float64, index int, value float64) is optional.
State is exposed to the script as float64 values. Calls through the
interpreter allocate, so script generators are slower than built-in ones.
*/
package script

import (
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/dudk/bzzt/generator"
)

var (
	// ErrInterpreter is returned when an interpreter cannot be set up.
	ErrInterpreter = errors.New("interpreter unavailable")
	// ErrCompile is returned when source fails to evaluate.
	ErrCompile = errors.New("compile failed")
	// ErrMissingSymbol is returned when a required function is absent.
	ErrMissingSymbol = errors.New("missing symbol")
	// ErrSignature is returned when a function has the wrong shape.
	ErrSignature = errors.New("wrong signature")
	// ErrSize is returned when declared state size is not a non-negative
	// multiple of 8.
	ErrSize = errors.New("invalid state size")
)

// Error describes a failed load of a named source.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generator %s: %v", e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Image is a compiled generator. It owns the interpreter that backs the
// functions of its type.
type Image struct {
	name   string
	typ    generator.Type
	fns    *functions
	mu     sync.Mutex
	interp *interp.Interpreter
}

type functions struct {
	render       func(in, out, state []float64, sampleRate int)
	init         func(state []float64) bool
	deinit       func(state []float64)
	setParameter func(state []float64, index int, value float64)
	id           func() string
	size         func() int
	inputs       func() int
	outputs      func() int
}

// LoadFile reads and loads a generator source file.
func LoadFile(path string) (*Image, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Name: path, Err: err}
	}
	return Load(path, string(src))
}

// Load compiles src into a generator image. Name is used in errors only.
func Load(name, src string) (img *Image, err error) {
	fail := func(sentinel error, format string, args ...interface{}) error {
		return &Error{Name: name, Err: fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)}
	}
	// scripts run arbitrary code while their properties are read
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fail(ErrCompile, "panic: %v", r)
		}
	}()

	file, perr := parser.ParseFile(token.NewFileSet(), name, src, parser.PackageClauseOnly)
	if perr != nil {
		return nil, fail(ErrCompile, "%v", perr)
	}
	pkg := file.Name.Name

	i := interp.New(interp.Options{})
	if i == nil {
		return nil, fail(ErrInterpreter, "nil interpreter")
	}
	if uerr := i.Use(interp.Exports{"math/math": stdlib.Symbols["math/math"]}); uerr != nil {
		return nil, fail(ErrInterpreter, "%v", uerr)
	}
	if _, eerr := i.Eval(src); eerr != nil {
		return nil, fail(ErrCompile, "%v", eerr)
	}

	var fns functions
	symbols := []struct {
		name     string
		target   interface{}
		optional bool
	}{
		{name: "Render", target: &fns.render},
		{name: "Init", target: &fns.init},
		{name: "Deinit", target: &fns.deinit},
		{name: "ID", target: &fns.id},
		{name: "Size", target: &fns.size},
		{name: "InputCount", target: &fns.inputs},
		{name: "OutputCount", target: &fns.outputs},
		{name: "SetParameter", target: &fns.setParameter, optional: true},
	}
	for _, s := range symbols {
		v, serr := i.Eval(pkg + "." + s.name)
		if serr != nil || !v.IsValid() {
			if s.optional {
				continue
			}
			return nil, fail(ErrMissingSymbol, "%s", s.name)
		}
		if !assign(s.target, v.Interface()) {
			return nil, fail(ErrSignature, "%s is %s", s.name, v.Type())
		}
	}

	size := fns.size()
	if size < 0 || size%8 != 0 {
		return nil, fail(ErrSize, "%d", size)
	}
	typ := adapt(generator.Properties{
		ID:      fns.id(),
		Size:    size,
		Inputs:  fns.inputs(),
		Outputs: fns.outputs(),
	}, &fns)
	if verr := typ.Validate(); verr != nil {
		return nil, &Error{Name: name, Err: verr}
	}
	return &Image{name: name, typ: typ, fns: &fns, interp: i}, nil
}

func assign(target, v interface{}) bool {
	var ok bool
	switch t := target.(type) {
	case *func(in, out, state []float64, sampleRate int):
		*t, ok = v.(func([]float64, []float64, []float64, int))
	case *func(state []float64) bool:
		*t, ok = v.(func([]float64) bool)
	case *func(state []float64):
		*t, ok = v.(func([]float64))
	case *func(state []float64, index int, value float64):
		*t, ok = v.(func([]float64, int, float64))
	case *func() string:
		*t, ok = v.(func() string)
	case *func() int:
		*t, ok = v.(func() int)
	}
	return ok
}

// adapt wraps script functions into a generator type. A panic in Init
// fails the instance, panics in Deinit and SetParameter are dropped.
// Render is not guarded. After the image is closed every function is a
// no-op and Init fails.
func adapt(p generator.Properties, fns *functions) generator.Type {
	t := generator.Type{
		Properties: p,
		Render: func(in, out []float64, state []byte, cfg generator.Config) {
			if fns.render != nil {
				fns.render(in, out, generator.Float64s(state), cfg.SampleRate)
			}
		},
		Init: func(state []byte) (ok bool) {
			if fns.init == nil {
				return false
			}
			defer func() {
				if recover() != nil {
					ok = false
				}
			}()
			return fns.init(generator.Float64s(state))
		},
		Deinit: func(state []byte) {
			if fns.deinit == nil {
				return
			}
			defer func() { recover() }()
			fns.deinit(generator.Float64s(state))
		},
	}
	if fns.setParameter != nil {
		t.SetParameter = func(state []byte, index int, value float64) {
			if fns.setParameter == nil {
				return
			}
			defer func() { recover() }()
			fns.setParameter(generator.Float64s(state), index, value)
		}
	}
	return t
}

// Name returns the name the image was loaded with.
func (img *Image) Name() string {
	return img.name
}

// Type returns the generator type backed by the image.
func (img *Image) Type() generator.Type {
	return img.typ
}

// Close drops the interpreter and every function taken from it, so the
// type of the image does nothing from then on. It must not race with
// calls of the type. It is safe to call more than once.
func (img *Image) Close() error {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.interp = nil
	*img.fns = functions{}
	return nil
}

// Closed reports whether Close was called.
func (img *Image) Closed() bool {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.interp == nil
}
