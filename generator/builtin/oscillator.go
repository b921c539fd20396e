package builtin

import (
	"math"

	"github.com/dudk/bzzt/generator"
)

type oscillator struct {
	phase     float64
	frequency float64
	volume    float64
	duty      float64
}

func initOscillator(state []byte) bool {
	o := generator.View[oscillator](state)
	if o == nil {
		return false
	}
	o.phase = 0
	o.frequency = 440
	o.volume = 1
	o.duty = 0
	return true
}

func setOscillatorParameter(state []byte, index int, value float64) {
	o := generator.View[oscillator](state)
	if o == nil {
		return
	}
	switch index {
	case Volume:
		o.volume = value
	case Frequency:
		o.frequency = value
	}
}

// Sine adds a sine wave to its input.
func Sine() generator.Type {
	return generator.Type{
		Properties: generator.Properties{
			ID:      "sine",
			Size:    generator.SizeOf[oscillator](),
			Inputs:  1,
			Outputs: 1,
		},
		Render: func(in, out []float64, state []byte, cfg generator.Config) {
			o := generator.View[oscillator](state)
			if o == nil {
				return
			}
			out[0] = in[0] + math.Sin(o.phase*2*math.Pi)*o.volume
			o.phase = advance(o.phase, o.frequency, cfg.SampleRate)
		},
		Init:         initOscillator,
		SetParameter: setOscillatorParameter,
	}
}

// Square adds a square wave to its input. The phase parameter shifts the
// duty cycle: -1 is always low, 1 is always high.
func Square() generator.Type {
	return generator.Type{
		Properties: generator.Properties{
			ID:      "square",
			Size:    generator.SizeOf[oscillator](),
			Inputs:  1,
			Outputs: 1,
		},
		Render: func(in, out []float64, state []byte, cfg generator.Config) {
			o := generator.View[oscillator](state)
			if o == nil {
				return
			}
			level := -1.0
			if o.phase > (o.duty+1)/2 {
				level = 1
			}
			out[0] = in[0] + level*o.volume
			o.phase = advance(o.phase, o.frequency, cfg.SampleRate)
		},
		Init: initOscillator,
		SetParameter: func(state []byte, index int, value float64) {
			if index == Phase {
				if o := generator.View[oscillator](state); o != nil {
					o.duty = value
				}
				return
			}
			setOscillatorParameter(state, index, value)
		},
	}
}

// Saw adds a rising sawtooth to its input.
func Saw() generator.Type {
	return generator.Type{
		Properties: generator.Properties{
			ID:      "saw",
			Size:    generator.SizeOf[oscillator](),
			Inputs:  1,
			Outputs: 1,
		},
		Render: func(in, out []float64, state []byte, cfg generator.Config) {
			o := generator.View[oscillator](state)
			if o == nil {
				return
			}
			out[0] = in[0] + (2*o.phase-1)*o.volume
			o.phase = advance(o.phase, o.frequency, cfg.SampleRate)
		},
		Init:         initOscillator,
		SetParameter: setOscillatorParameter,
	}
}
