package analysis_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/bzzt/analysis"
)

func sine(frequency, amplitude float64, sampleRate, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate))
	}
	return samples
}

func TestDominantFrequency(t *testing.T) {
	var tests = []struct {
		frequency  float64
		sampleRate int
		n          int
	}{
		{frequency: 440, sampleRate: 44100, n: 8192},
		{frequency: 1000, sampleRate: 48000, n: 6000},
		{frequency: 110, sampleRate: 8000, n: 4096},
	}
	for _, c := range tests {
		f, err := analysis.DominantFrequency(sine(c.frequency, 0.5, c.sampleRate, c.n), c.sampleRate)
		require.NoError(t, err)
		assert.InDelta(t, c.frequency, f, 1, "%v Hz", c.frequency)
	}

	f, err := analysis.DominantFrequency(make([]float64, 1024), 44100)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, f)

	_, err = analysis.DominantFrequency(nil, 44100)
	assert.True(t, errors.Is(err, analysis.ErrEmpty))
}

func TestSpectrum(t *testing.T) {
	magnitudes, size, err := analysis.Spectrum(sine(1000, 1, 8000, 1000))
	require.NoError(t, err)
	assert.Equal(t, 1024, size)
	assert.Len(t, magnitudes, 513)
	// 1000 Hz is bin 128 of 1024 at 8000 Hz
	peak := 0
	for i, m := range magnitudes {
		if m > magnitudes[peak] {
			peak = i
		}
	}
	assert.Equal(t, 128, peak)
}

func TestLevels(t *testing.T) {
	s := sine(100, 0.5, 8000, 8000)
	assert.InDelta(t, 0.5, analysis.Peak(s), 1e-3)
	assert.InDelta(t, 0.5/math.Sqrt2, analysis.RMS(s), 1e-6)
	assert.Equal(t, 1.0, analysis.Peak([]float64{0.5, -1, 0.25}))
	assert.Equal(t, 0.0, analysis.Peak(nil))
	assert.Equal(t, 0.0, analysis.RMS(nil))
}
