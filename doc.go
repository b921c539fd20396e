/*
Package bzzt renders a generator pipeline in real time.

Concept

A Process owns one pipeline.Pipeline. Every frame it zeroes the buffers,
executes the steps in order and copies two selected buffers to the left
and right channels. The audio device pulls frames with Fill:

    p, err := bzzt.New(cfg, registry)
    err = p.Start(device)

Configuration

The pipeline is never changed while it renders. Changes are queued with
Configure from any goroutine and applied by the rendering goroutine right
after the next frame:

    p.Configure(func(c *bzzt.Configurer) {
        pl := c.Pipeline()
        out := pl.AddBuffer()
        sine, _ := pl.AddBack(registry.Lookup("sine"))
        pl.SetOutputBuffer(sine, 0, out)
        c.SetLeft(out)
        c.SetRight(out)
    }, nil)

The cleanup callback, when set, runs right after apply on the same
goroutine. It releases whatever the change captured.

Offline rendering

Bounce renders frames as fast as possible into a Sink, for example a wav
or mp3 encoder:

    err := p.Bounce(ctx, wav.NewSink(w, signal.BitDepth16), frames)
*/
package bzzt
