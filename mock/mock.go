// Package mock provides test doubles for devices and sinks.
package mock

import (
	"errors"
	"sync"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/generator"
	"github.com/dudk/bzzt/signal"
)

// ErrMock is returned by doubles configured to fail.
var ErrMock = errors.New("mock error")

type (
	// Counter counts messages and samples.
	Counter struct {
		mu       sync.Mutex
		messages int
		samples  int
	}

	// Sink collects bounced frames.
	Sink struct {
		Counter
		// Discard drops frames instead of keeping them in Values.
		Discard bool
		// ErrorOnCall makes the sink fail on that call, counting from 1.
		ErrorOnCall int
		// ErrorOnFlush makes Flush fail.
		ErrorOnFlush bool
		Values       signal.Float64
		SampleRate   int
		NumChannels  int
		Flushed      int
	}

	// Device is a device that renders only when pulled.
	Device struct {
		Counter
		// BlockSize is the number of samples per channel pulled by Pull.
		BlockSize int
		// NumChannels of the device, 2 if zero.
		NumChannels int
		// ErrorOnStart makes Start fail.
		ErrorOnStart bool

		mu     sync.Mutex
		src    bzzt.Source
		cfg    generator.Config
		out    [][]float32
		closed bool
	}
)

func (c *Counter) advance(samples int) {
	c.mu.Lock()
	c.messages++
	c.samples += samples
	c.mu.Unlock()
}

// Count returns number of messages and samples.
func (c *Counter) Count() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages, c.samples
}

// Sink implements bzzt.Sink.
func (s *Sink) Sink(sampleRate, numChannels int) (func(signal.Float64) error, error) {
	s.SampleRate = sampleRate
	s.NumChannels = numChannels
	return func(floats signal.Float64) error {
		s.advance(floats.Size())
		if m, _ := s.Count(); s.ErrorOnCall > 0 && m == s.ErrorOnCall {
			return ErrMock
		}
		if !s.Discard {
			s.Values = s.Values.Append(floats)
		}
		return nil
	}, nil
}

// Flush implements bzzt.Sink.
func (s *Sink) Flush() error {
	s.Flushed++
	if s.ErrorOnFlush {
		return ErrMock
	}
	return nil
}

// Start implements bzzt.Device.
func (d *Device) Start(cfg generator.Config, src bzzt.Source) error {
	if d.ErrorOnStart {
		return ErrMock
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	numChannels, blockSize := d.NumChannels, d.BlockSize
	if numChannels == 0 {
		numChannels = bzzt.NumChannels
	}
	if blockSize == 0 {
		blockSize = cfg.FrameSize
	}
	d.out = make([][]float32, numChannels)
	for i := range d.out {
		d.out[i] = make([]float32, blockSize)
	}
	d.src, d.cfg = src, cfg
	return nil
}

// Pull requests n blocks from the source and returns the last one.
func (d *Device) Pull(n int) [][]float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.src == nil || d.closed {
		return nil
	}
	for i := 0; i < n; i++ {
		d.src.Fill(d.out)
		d.advance(len(d.out[0]))
	}
	return d.out
}

// Close implements bzzt.Device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
