package metric_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/bzzt/generator"
	"github.com/dudk/bzzt/metric"
)

func TestMeter(t *testing.T) {
	cfg := generator.Config{FrameSize: 441, SampleRate: 44100}
	var tests = []struct {
		uid              string
		routines         int
		frames           int
		elapsed          time.Duration
		expectedFrames   string
		expectedSamples  string
		expectedOverruns string
		expectedDuration string
	}{
		{
			uid:              "fast",
			routines:         2,
			frames:           50,
			elapsed:          time.Millisecond,
			expectedFrames:   "100",
			expectedSamples:  "44100",
			expectedOverruns: "0",
			expectedDuration: `"1s"`,
		},
		{
			uid:              "slow",
			routines:         4,
			frames:           5,
			elapsed:          20 * time.Millisecond,
			expectedFrames:   "20",
			expectedSamples:  "8820",
			expectedOverruns: "20",
			expectedDuration: `"200ms"`,
		},
	}
	// function to test meter.
	testFn := func(m *metric.Meter, wg *sync.WaitGroup, frames int, elapsed time.Duration) {
		for i := 0; i < frames; i++ {
			m.Frame(elapsed)
		}
		wg.Done()
	}

	for _, c := range tests {
		m := metric.New(c.uid, cfg)
		assert.Same(t, m, metric.New(c.uid, cfg))
		assert.Equal(t, c.uid, m.UID())
		wg := &sync.WaitGroup{}
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go testFn(m, wg, c.frames, c.elapsed)
		}
		// check if no data race.
		wg.Wait()
		m.Configured(2)

		values := metric.Get(c.uid)
		assert.Equal(t, c.expectedFrames, values[metric.FrameCounter])
		assert.Equal(t, c.expectedSamples, values[metric.SampleCounter])
		assert.Equal(t, c.expectedOverruns, values[metric.OverrunCounter])
		assert.Equal(t, c.expectedDuration, values[metric.DurationCounter])
		assert.Equal(t, "2", values[metric.ConfigurationCounter])
		assert.Contains(t, metric.GetAll(), c.uid)
	}
	assert.Empty(t, metric.Get("unknown"))
}
