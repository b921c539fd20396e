package builtin

import "github.com/dudk/bzzt/generator"

const defaultSeed = 0x9e3779b97f4a7c15

type noise struct {
	x      uint64
	volume float64
}

// Noise adds white noise from a xorshift generator to its input. Setting
// the seed parameter restarts the sequence.
func Noise() generator.Type {
	return generator.Type{
		Properties: generator.Properties{
			ID:      "noise",
			Size:    generator.SizeOf[noise](),
			Inputs:  1,
			Outputs: 1,
		},
		Render: func(in, out []float64, state []byte, _ generator.Config) {
			n := generator.View[noise](state)
			if n == nil {
				return
			}
			n.x ^= n.x << 13
			n.x ^= n.x >> 7
			n.x ^= n.x << 17
			// top 53 bits to [0, 1), then to [-1, 1)
			v := float64(n.x>>11)/(1<<53)*2 - 1
			out[0] = in[0] + v*n.volume
		},
		Init: func(state []byte) bool {
			n := generator.View[noise](state)
			if n == nil {
				return false
			}
			n.x = defaultSeed
			n.volume = 1
			return true
		},
		SetParameter: func(state []byte, index int, value float64) {
			n := generator.View[noise](state)
			if n == nil {
				return
			}
			switch index {
			case Volume:
				n.volume = value
			case Seed:
				n.x = uint64(int64(value))
				if n.x == 0 {
					n.x = defaultSeed
				}
			}
		},
	}
}
