package builtin

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/dudk/bzzt/generator"
)

type filter struct {
	cutoff float64
	q      float64
	// rate the coefficients were designed for, zero when stale
	rate float64

	biquad.Coefficients
	z1, z2 float64
}

type designFunc func(freq, q, sampleRate float64) biquad.Coefficients

func (f *filter) design(fn designFunc, sampleRate int) {
	sr := float64(sampleRate)
	cutoff := math.Min(math.Max(f.cutoff, 1), sr/2*0.999)
	q := f.q
	if q <= 0 {
		q = math.Sqrt2 / 2
	}
	f.Coefficients = fn(cutoff, q, sr)
	f.rate = sr
}

// Lowpass is a second order RBJ lowpass in transposed direct form II.
func Lowpass() generator.Type {
	return biquadType("lowpass", design.Lowpass)
}

// Highpass is a second order RBJ highpass in transposed direct form II.
func Highpass() generator.Type {
	return biquadType("highpass", design.Highpass)
}

// biquadType returns a filter type. Coefficients are recomputed on the
// first sample after a parameter or sample rate change.
func biquadType(id string, fn designFunc) generator.Type {
	return generator.Type{
		Properties: generator.Properties{
			ID:      id,
			Size:    generator.SizeOf[filter](),
			Inputs:  1,
			Outputs: 1,
		},
		Render: func(in, out []float64, state []byte, cfg generator.Config) {
			f := generator.View[filter](state)
			if f == nil {
				return
			}
			if f.rate != float64(cfg.SampleRate) {
				f.design(fn, cfg.SampleRate)
			}
			x := in[0]
			y := f.B0*x + f.z1
			f.z1 = f.B1*x - f.A1*y + f.z2
			f.z2 = f.B2*x - f.A2*y
			out[0] = y
		},
		Init: func(state []byte) bool {
			f := generator.View[filter](state)
			if f == nil {
				return false
			}
			*f = filter{cutoff: 1000, q: math.Sqrt2 / 2}
			return true
		},
		SetParameter: func(state []byte, index int, value float64) {
			f := generator.View[filter](state)
			if f == nil {
				return
			}
			switch index {
			case Cutoff:
				f.cutoff = value
			case Q:
				f.q = value
			default:
				return
			}
			f.rate = 0
		},
	}
}
