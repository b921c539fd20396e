package sine

import "math"

// state: phase, frequency, volume

func ID() string       { return "script-sine" }
func Size() int        { return 24 }
func InputCount() int  { return 1 }
func OutputCount() int { return 1 }

func Init(state []float64) bool {
	state[0] = 0
	state[1] = 440
	state[2] = 1
	return true
}

func Deinit(state []float64) {}

func SetParameter(state []float64, index int, value float64) {
	switch index {
	case 0:
		state[2] = value
	case 1:
		state[1] = value
	}
}

func Render(in, out, state []float64, sampleRate int) {
	out[0] = in[0] + math.Sin(state[0]*2*math.Pi)*state[2]
	state[0] += state[1] / float64(sampleRate)
	state[0] -= math.Floor(state[0])
}
