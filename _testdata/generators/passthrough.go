package passthrough

func ID() string       { return "script-copy" }
func Size() int        { return 0 }
func InputCount() int  { return 1 }
func OutputCount() int { return 1 }

func Init(state []float64) bool { return true }
func Deinit(state []float64)    {}

func Render(in, out, state []float64, sampleRate int) {
	out[0] = in[0]
}
