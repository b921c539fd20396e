package builtin

import "github.com/dudk/bzzt/generator"

type level struct {
	volume float64
}

func initLevel(state []byte) bool {
	l := generator.View[level](state)
	if l == nil {
		return false
	}
	l.volume = 1
	return true
}

func setLevelParameter(state []byte, index int, value float64) {
	if index != Volume {
		return
	}
	if l := generator.View[level](state); l != nil {
		l.volume = value
	}
}

// Add2 sums two inputs.
func Add2() generator.Type {
	return generator.Type{
		Properties: generator.Properties{
			ID:      "add2",
			Size:    generator.SizeOf[level](),
			Inputs:  2,
			Outputs: 1,
		},
		Render: func(in, out []float64, state []byte, _ generator.Config) {
			if l := generator.View[level](state); l != nil {
				out[0] = (in[0] + in[1]) * l.volume
			}
		},
		Init:         initLevel,
		SetParameter: setLevelParameter,
	}
}

// Mul multiplies two inputs. With a slow oscillator on one input it acts
// as a VCA, with an audio rate one as a ring modulator.
func Mul() generator.Type {
	return generator.Type{
		Properties: generator.Properties{
			ID:      "mul",
			Size:    generator.SizeOf[level](),
			Inputs:  2,
			Outputs: 1,
		},
		Render: func(in, out []float64, state []byte, _ generator.Config) {
			if l := generator.View[level](state); l != nil {
				out[0] = in[0] * in[1] * l.volume
			}
		},
		Init:         initLevel,
		SetParameter: setLevelParameter,
	}
}

// Gain scales its input.
func Gain() generator.Type {
	return generator.Type{
		Properties: generator.Properties{
			ID:      "gain",
			Size:    generator.SizeOf[level](),
			Inputs:  1,
			Outputs: 1,
		},
		Render: func(in, out []float64, state []byte, _ generator.Config) {
			if l := generator.View[level](state); l != nil {
				out[0] = in[0] * l.volume
			}
		},
		Init:         initLevel,
		SetParameter: setLevelParameter,
	}
}

// Copy is the identity generator. It has no state.
func Copy() generator.Type {
	return generator.Type{
		Properties: generator.Properties{
			ID:      "copy",
			Inputs:  1,
			Outputs: 1,
		},
		Render: func(in, out []float64, _ []byte, _ generator.Config) {
			out[0] = in[0]
		},
	}
}
