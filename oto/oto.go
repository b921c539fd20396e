// Package oto plays a process through ebitengine/oto. Unlike portaudio it
// needs no C library on Windows and macOS.
package oto

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/generator"
)

var (
	// ErrStarted is returned when device is started twice.
	ErrStarted = errors.New("device already started")
	// ErrSampleRate is returned when device is started with a sample rate
	// different from the one the output was opened with. Oto allows a
	// single context per program.
	ErrSampleRate = errors.New("sample rate differs from opened output")
)

var output struct {
	once       sync.Once
	ctx        *oto.Context
	sampleRate int
	err        error
}

func open(sampleRate int, bufferSize time.Duration) (*oto.Context, error) {
	output.once.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: bzzt.NumChannels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   bufferSize,
		})
		if err != nil {
			output.err = err
			return
		}
		<-ready
		output.ctx = ctx
		output.sampleRate = sampleRate
	})
	if output.err != nil {
		return nil, output.err
	}
	if output.sampleRate != sampleRate {
		return nil, fmt.Errorf("%w: %d != %d", ErrSampleRate, sampleRate, output.sampleRate)
	}
	return output.ctx, nil
}

// Device plays a source through the default oto output.
type Device struct {
	mu     sync.Mutex
	player *oto.Player
}

// NewDevice returns new device. The output is opened on first Start.
func NewDevice() *Device {
	return &Device{}
}

// Start opens the output and starts pulling src from oto's goroutine.
func (d *Device) Start(cfg generator.Config, src bzzt.Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player != nil {
		return ErrStarted
	}
	// two frames of latency
	ctx, err := open(cfg.SampleRate, 2*cfg.FrameDuration())
	if err != nil {
		return err
	}
	d.player = ctx.NewPlayer(newReader(src, cfg.FrameSize))
	d.player.Play()
	return nil
}

// Close stops the player.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil {
		return nil
	}
	player := d.player
	d.player = nil
	return player.Close()
}
