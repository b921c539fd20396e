package bzzt

import (
	"context"
	"errors"
	"fmt"

	"github.com/dudk/bzzt/signal"
)

// Sink consumes rendered frames offline.
type Sink interface {
	// Sink is called once before the first frame with the format of
	// the rendered signal. It returns the function that consumes frames.
	Sink(sampleRate, numChannels int) (func(signal.Float64) error, error)
	// Flush is called once after the last frame.
	Flush() error
}

// ErrorBounce is returned if sink was successfully started, but writing
// and/or flush failed.
type ErrorBounce struct {
	ErrSink  error
	ErrFlush error
}

func (e *ErrorBounce) Error() string {
	switch {
	case e.ErrSink != nil && e.ErrFlush != nil:
		return fmt.Sprintf("flush error: %v after sink error: %v", e.ErrFlush, e.ErrSink)
	case e.ErrSink != nil:
		return fmt.Sprintf("sink error: %v", e.ErrSink)
	case e.ErrFlush != nil:
		return fmt.Sprintf("flush error: %v", e.ErrFlush)
	}
	return ""
}

// Is checks if any of errors match provided sentinel error.
func (e *ErrorBounce) Is(err error) bool {
	if e.ErrSink != nil && errors.Is(e.ErrSink, err) {
		return true
	}
	if e.ErrFlush != nil && errors.Is(e.ErrFlush, err) {
		return true
	}
	return false
}

// Bounce renders frames into sink as fast as possible. It stops early
// when ctx is done. Bounce must not be called while a device is
// attached.
func (p *Process) Bounce(ctx context.Context, sink Sink, frames int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.device != nil {
		return ErrStarted
	}

	write, err := sink.Sink(p.cfg.SampleRate, NumChannels)
	if err != nil {
		return fmt.Errorf("error starting sink: %w", err)
	}
	buf := signal.EmptyFloat64(NumChannels, p.cfg.FrameSize)
	var errSink error
	for i := 0; i < frames && errSink == nil; i++ {
		select {
		case <-ctx.Done():
			errSink = ctx.Err()
			continue
		default:
		}
		p.Render()
		for c := range buf {
			copy(buf[c], p.Channel(c))
		}
		errSink = write(buf)
	}
	// next Fill starts with a fresh frame
	p.pos = p.cfg.FrameSize

	errFlush := sink.Flush()
	if errSink != nil || errFlush != nil {
		return &ErrorBounce{ErrSink: errSink, ErrFlush: errFlush}
	}
	p.logger.Debug(fmt.Sprintf("process %s: bounced %d frames", p.uid, frames))
	return nil
}

// Run bounces in a new goroutine. The returned channel receives the
// error, if any, and is closed when bouncing is done.
func (p *Process) Run(ctx context.Context, sink Sink, frames int) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		if err := p.Bounce(ctx, sink, frames); err != nil {
			errc <- err
		}
	}()
	return errc
}
