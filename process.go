package bzzt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/rs/xid"

	"github.com/dudk/bzzt/generator"
	"github.com/dudk/bzzt/log"
	"github.com/dudk/bzzt/metric"
	"github.com/dudk/bzzt/mutable"
	"github.com/dudk/bzzt/pipeline"
)

// NumChannels is the number of channels a process renders.
const NumChannels = 2

const (
	// Left is the index of the left channel.
	Left = 0
	// Right is the index of the right channel.
	Right = 1
)

var (
	// ErrStarted is returned when a process is already attached to a
	// device.
	ErrStarted = errors.New("process already started")
	// ErrClosed is returned when a closed process is used.
	ErrClosed = errors.New("process closed")
)

type (
	// Source is pulled by a device for every block of audio. Every
	// channel slice has the same length, which need not match the frame
	// size.
	Source interface {
		Fill(out [][]float32)
	}

	// Device drives a source from its own real-time goroutine.
	Device interface {
		Start(cfg generator.Config, src Source) error
		Close() error
	}

	// Process renders a pipeline frame by frame.
	Process struct {
		uid             string
		cfg             generator.Config
		logger          log.Logger
		meter           *metric.Meter
		pipeline        *pipeline.Pipeline
		pipelineOptions []pipeline.Option
		queue           *mutable.Queue[*Configurer]
		configurer      Configurer

		channels [NumChannels]pipeline.BufferHandle
		silence  []float64
		// read position in current frame for Fill
		pos int

		declick int
		// samples faded in since last change
		faded int
		ramp  []float64

		mu     sync.Mutex
		device Device
		closed bool
	}

	// Configurer is passed to configuration callbacks. It is only valid
	// within the callback.
	Configurer struct {
		p *Process
	}
)

// New returns a process rendering frames of cfg with types from r.
func New(cfg generator.Config, r *generator.Registry, options ...Option) (*Process, error) {
	p := Process{
		uid:      xid.New().String(),
		cfg:      cfg,
		logger:   log.Silent(),
		queue:    mutable.NewQueue[*Configurer](16),
		channels: [NumChannels]pipeline.BufferHandle{pipeline.InvalidBuffer, pipeline.InvalidBuffer},
	}
	for _, option := range options {
		option(&p)
	}
	pl, err := pipeline.New(cfg, r, p.pipelineOptions...)
	if err != nil {
		return nil, fmt.Errorf("error creating pipeline: %w", err)
	}
	p.pipeline = pl
	p.configurer = Configurer{p: &p}
	p.silence = make([]float64, cfg.FrameSize)
	p.ramp = make([]float64, cfg.FrameSize)
	// first Fill renders a frame
	p.pos = cfg.FrameSize
	p.logger.Debug(fmt.Sprintf("process %s: created with pipeline %s", p.uid, pl.UID()))
	return &p, nil
}

// UID returns unique identifier of the process.
func (p *Process) UID() string {
	return p.uid
}

// Config returns audio configuration of the process.
func (p *Process) Config() generator.Config {
	return p.cfg
}

// Configure queues a change of the pipeline. Apply runs on the rendering
// goroutine after the next frame, cleanup right after it. Cleanup may be
// nil.
func (p *Process) Configure(apply func(*Configurer), cleanup func()) {
	p.queue.Put(mutable.Mutation[*Configurer]{
		Apply:   apply,
		Cleanup: cleanup,
	})
}

// Pending returns number of queued changes.
func (p *Process) Pending() int {
	return p.queue.Len()
}

// Render renders one frame and applies queued changes.
func (p *Process) Render() {
	start := time.Now()
	p.pipeline.ResetBuffers()
	p.pipeline.Execute()
	p.fadeIn()
	if n := p.queue.Drain(&p.configurer); n > 0 {
		p.faded = 0
		if p.meter != nil {
			p.meter.Configured(n)
		}
	}
	if p.meter != nil {
		p.meter.Frame(time.Since(start))
	}
}

// fadeIn ramps selected channels after a change.
func (p *Process) fadeIn() {
	if p.faded >= p.declick {
		return
	}
	for i := range p.ramp {
		v := float64(p.faded+i) / float64(p.declick)
		if v > 1 {
			v = 1
		}
		p.ramp[i] = v
	}
	for c, b := range p.channels {
		if c == Right && b == p.channels[Left] {
			continue
		}
		if buf := p.pipeline.Buffer(b); buf != nil {
			vecmath.MulBlockInPlace(buf, p.ramp)
		}
	}
	p.faded += len(p.ramp)
}

// Channel returns rendered frame of channel c. Channels without a
// selected buffer are silent.
func (p *Process) Channel(c int) []float64 {
	if c < 0 || c >= NumChannels {
		return p.silence
	}
	if buf := p.pipeline.Buffer(p.channels[c]); buf != nil {
		return buf
	}
	return p.silence
}

// Fill implements Source. It renders new frames whenever the current one
// is consumed, so any block size is served. Channels beyond the second
// get silence.
func (p *Process) Fill(out [][]float32) {
	if len(out) == 0 {
		return
	}
	frame := p.cfg.FrameSize
	n := len(out[0])
	for written := 0; written < n; {
		if p.pos >= frame {
			p.Render()
			p.pos = 0
		}
		k := frame - p.pos
		if k > n-written {
			k = n - written
		}
		for c := range out {
			src := p.Channel(c)[p.pos : p.pos+k]
			dst := out[c][written : written+k]
			for i := range dst {
				dst[i] = float32(src[i])
			}
		}
		p.pos += k
		written += k
	}
}

// Start attaches the process to d. Rendering happens on the device's
// goroutine from now on.
func (p *Process) Start(d Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.device != nil {
		return ErrStarted
	}
	if err := d.Start(p.cfg, p); err != nil {
		return fmt.Errorf("error starting device: %w", err)
	}
	p.device = d
	p.logger.Info(fmt.Sprintf("process %s: started", p.uid))
	return nil
}

// Close stops the device, applies pending changes so their cleanups run
// and closes the pipeline.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var errs []error
	if p.device != nil {
		if err := p.device.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing device: %w", err))
		}
		p.device = nil
	}
	for p.queue.Len() > 0 {
		p.queue.Drain(&p.configurer)
	}
	if err := p.pipeline.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing pipeline: %w", err))
	}
	p.logger.Info(fmt.Sprintf("process %s: closed", p.uid))
	return errors.Join(errs...)
}

// Pipeline returns the live pipeline.
func (c *Configurer) Pipeline() *pipeline.Pipeline {
	return c.p.pipeline
}

// SetLeft selects buffer b for the left channel.
func (c *Configurer) SetLeft(b pipeline.BufferHandle) {
	c.p.channels[Left] = b
}

// SetRight selects buffer b for the right channel.
func (c *Configurer) SetRight(b pipeline.BufferHandle) {
	c.p.channels[Right] = b
}

// ClearChannels silences both channels.
func (c *Configurer) ClearChannels() {
	c.p.channels = [NumChannels]pipeline.BufferHandle{pipeline.InvalidBuffer, pipeline.InvalidBuffer}
}

// Channels returns buffers selected for left and right channels.
func (c *Configurer) Channels() (left, right pipeline.BufferHandle) {
	return c.p.channels[Left], c.p.channels[Right]
}
