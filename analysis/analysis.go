// Package analysis measures rendered audio. It is used to check output
// of pipelines offline.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"
)

// ErrEmpty is returned when there is nothing to analyze.
var ErrEmpty = errors.New("empty signal")

// Spectrum returns magnitudes of bins from DC to Nyquist of hann-windowed
// samples. Samples are zero padded to the next power of two, which is
// also returned.
func Spectrum(samples []float64) ([]float64, int, error) {
	if len(samples) == 0 {
		return nil, 0, ErrEmpty
	}
	size := nextPowerOfTwo(len(samples))
	coeffs := window.Generate(window.TypeHann, len(samples))
	in := make([]complex128, size)
	for i, v := range samples {
		in[i] = complex(v*coeffs[i], 0)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, 0, fmt.Errorf("error creating fft plan: %w", err)
	}
	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return nil, 0, fmt.Errorf("error running fft: %w", err)
	}

	bins := size/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for i := range re {
		re[i], im[i] = real(out[i]), imag(out[i])
	}
	magnitudes := make([]float64, bins)
	vecmath.Magnitude(magnitudes, re, im)
	return magnitudes, size, nil
}

// DominantFrequency returns frequency of the strongest component of
// samples. The peak bin is refined with parabolic interpolation of log
// magnitudes. Silence has no dominant frequency and returns 0.
func DominantFrequency(samples []float64, sampleRate int) (float64, error) {
	magnitudes, size, err := Spectrum(samples)
	if err != nil {
		return 0, err
	}
	peak := 0
	for i := 1; i < len(magnitudes); i++ {
		if magnitudes[i] > magnitudes[peak] {
			peak = i
		}
	}
	if magnitudes[peak] == 0 {
		return 0, nil
	}
	bin := float64(peak)
	if peak > 0 && peak < len(magnitudes)-1 {
		a := math.Log(magnitudes[peak-1] + math.SmallestNonzeroFloat64)
		b := math.Log(magnitudes[peak])
		c := math.Log(magnitudes[peak+1] + math.SmallestNonzeroFloat64)
		if d := a - 2*b + c; d != 0 {
			bin += 0.5 * (a - c) / d
		}
	}
	return bin * float64(sampleRate) / float64(size), nil
}

// Peak returns maximum absolute value of samples.
func Peak(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return vecmath.MaxAbs(samples)
}

// RMS returns root mean square of samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return math.Sqrt(vecmath.DotProduct(samples, samples) / float64(len(samples)))
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
