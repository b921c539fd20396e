package mp3_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/bzzt/mp3"
	"github.com/dudk/bzzt/signal"
	"github.com/dudk/bzzt/test"
)

func TestSink(t *testing.T) {
	const (
		sampleRate = 44100
		frameSize  = 1152
		frames     = 40
	)
	require.NoError(t, os.MkdirAll(filepath.Dir(test.Out.Mp3), 0o755))

	sink := mp3.NewSink(test.Out.Mp3, 192, 2)
	write, err := sink.Sink(sampleRate, 2)
	require.NoError(t, err)

	frame := signal.EmptyFloat64(2, frameSize)
	n := 0
	for i := 0; i < frames; i++ {
		for j := 0; j < frameSize; j++ {
			v := 0.5 * math.Sin(2*math.Pi*440*float64(n)/sampleRate)
			frame[0][j], frame[1][j] = v, v
			n++
		}
		require.NoError(t, write(frame))
	}
	require.NoError(t, sink.Flush())

	a, err := mp3.Read(test.Out.Mp3)
	require.NoError(t, err)
	assert.Equal(t, sampleRate, a.SampleRate)
	assert.Equal(t, 2, a.NumChannels())
	// encoder delay and padding change the length slightly
	assert.InDelta(t, frames*frameSize, a.Size(), 3*frameSize)
}

func TestErrors(t *testing.T) {
	sink := mp3.NewSink(filepath.Join(test.Generators.Dir, "missing", "out.mp3"), 192, 2)
	_, err := sink.Sink(44100, 2)
	assert.Error(t, err)
	assert.NoError(t, sink.Flush())

	_, err = mp3.Read(filepath.Join(test.Generators.Dir, "missing.mp3"))
	assert.Error(t, err)
}
