//go:build portaudio

package portaudio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/generator"
	"github.com/dudk/bzzt/generator/builtin"
	"github.com/dudk/bzzt/portaudio"
)

func TestDevice(t *testing.T) {
	r := builtin.NewRegistry()
	p, err := bzzt.New(generator.Config{FrameSize: 512, SampleRate: 44100}, r)
	require.NoError(t, err)
	p.Configure(func(c *bzzt.Configurer) {
		pl := c.Pipeline()
		b := pl.AddBuffer()
		h, err := pl.AddBack(r.Lookup("sine"))
		if err != nil {
			return
		}
		pl.SetParameter(h, builtin.Volume, 0.2)
		pl.SetOutputBuffer(h, 0, b)
		c.SetLeft(b)
		c.SetRight(b)
	}, nil)

	d := portaudio.NewDevice()
	require.NoError(t, p.Start(d))
	assert.ErrorIs(t, d.Start(p.Config(), p), portaudio.ErrStarted)
	time.Sleep(200 * time.Millisecond)
	assert.NoError(t, p.Close())
	assert.NoError(t, d.Close())
}
