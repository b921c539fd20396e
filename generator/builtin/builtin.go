// Package builtin contains the generator types compiled into the engine.
package builtin

import (
	"fmt"
	"math"

	"github.com/dudk/bzzt/generator"
)

// Parameter indices shared by the built-in generators.
const (
	Volume    = 0
	Frequency = 1
	Phase     = 2 // square only
	Seed      = 1 // noise only
	Cutoff    = 0 // filters only
	Q         = 1 // filters only
)

// Types returns every built-in generator type.
func Types() []generator.Type {
	return []generator.Type{
		Sine(),
		Square(),
		Saw(),
		Noise(),
		Add2(),
		Mul(),
		Copy(),
		Gain(),
		Lowpass(),
		Highpass(),
	}
}

// Register adds all built-in types to the registry.
func Register(r *generator.Registry) error {
	for _, t := range Types() {
		if _, err := r.Register(t); err != nil {
			return fmt.Errorf("register %s: %w", t.ID, err)
		}
	}
	return nil
}

// NewRegistry returns a registry with all built-in types registered.
func NewRegistry() *generator.Registry {
	r := generator.NewRegistry()
	for _, t := range Types() {
		r.MustRegister(t)
	}
	return r
}

// advance moves a normalized phase forward and wraps it into [0, 1).
func advance(phase, frequency float64, sampleRate int) float64 {
	phase += frequency / float64(sampleRate)
	return phase - math.Floor(phase)
}
