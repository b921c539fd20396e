// Package portaudio plays a process on the default output device.
package portaudio

import (
	"errors"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/generator"
)

// ErrStarted is returned when device is started twice.
var ErrStarted = errors.New("device already started")

// Device represents portaudio default output stream.
type Device struct {
	mu     sync.Mutex
	stream *portaudio.Stream
}

// NewDevice returns new device. Portaudio is initialized on Start.
func NewDevice() *Device {
	return &Device{}
}

// Start initializes portaudio api with default stream and starts pulling
// src from portaudio's callback.
func (d *Device) Start(cfg generator.Config, src bzzt.Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream != nil {
		return ErrStarted
	}
	err := portaudio.Initialize()
	if err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, bzzt.NumChannels, float64(cfg.SampleRate), cfg.FrameSize,
		func(out [][]float32) {
			src.Fill(out)
		})
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err = stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	d.stream = stream
	return nil
}

// Close stops the stream and terminates portaudio structures.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return nil
	}
	stream := d.stream
	d.stream = nil
	err := stream.Stop()
	if err != nil {
		return err
	}
	err = stream.Close()
	if err != nil {
		return err
	}
	return portaudio.Terminate()
}
