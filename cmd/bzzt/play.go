package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/config"
	"github.com/dudk/bzzt/metric"
	"github.com/dudk/bzzt/oto"
	"github.com/dudk/bzzt/portaudio"
	"github.com/dudk/bzzt/watch"
)

// backendEnv selects default device backend.
const backendEnv = "BZZT_BACKEND"

const (
	backendPortaudio = "portaudio"
	backendOto       = "oto"
)

var errBackend = errors.New("unknown backend")

type playCommand struct {
	audioFlags
	out     io.Writer
	backend string
	watch   bool
	noAudio bool
	seconds float64
}

func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play a pipeline configuration on the default output device"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	cmd.audioFlags.register(fs)
	backend := os.Getenv(backendEnv)
	if backend == "" {
		backend = backendPortaudio
	}
	fs.StringVar(&cmd.backend, "backend", backend, "device backend: portaudio or oto")
	fs.BoolVar(&cmd.watch, "watch", false, "reload configuration when the file changes")
	fs.BoolVar(&cmd.noAudio, "no-audio", false, "render in real time without a device")
	fs.Float64Var(&cmd.seconds, "seconds", 0, "stop after this many seconds, 0 plays until interrupted")
}

func (cmd *playCommand) device() (bzzt.Device, error) {
	if cmd.noAudio {
		return newClock(), nil
	}
	switch cmd.backend {
	case backendPortaudio:
		return portaudio.NewDevice(), nil
	case backendOto:
		return oto.NewDevice(), nil
	}
	return nil, fmt.Errorf("%w: %s", errBackend, cmd.backend)
}

func (cmd *playCommand) Run() error {
	d, err := cmd.device()
	if err != nil {
		return err
	}
	logger := newLogger()
	meter := metric.New("play", cmd.audioConfig())
	p, r, err := cmd.newProcess(logger, meter)
	if err != nil {
		return err
	}
	defer p.Close()

	var w *watch.Watcher
	if cmd.watch {
		w, err = watch.New(cmd.config, func() {
			if err := config.Load(cmd.config, p, r, config.WithLogger(logger)); err != nil {
				fmt.Fprintf(cmd.out, "Configuration rejected:\n%v\n", err)
				return
			}
			fmt.Fprintf(cmd.out, "Configuration reloaded\n")
		}, watch.WithLogger(logger))
		if err != nil {
			return err
		}
		defer w.Close()
	}

	if err := p.Start(d); err != nil {
		return err
	}
	fmt.Fprintf(cmd.out, "Playing %s, press Ctrl+C to stop\n", cmd.config)

	interrupt := make(chan os.Signal, 1)
	ossignal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer ossignal.Stop(interrupt)
	var stop <-chan time.Time
	if cmd.seconds > 0 {
		stop = time.After(time.Duration(cmd.seconds * float64(time.Second)))
	}
	select {
	case <-interrupt:
	case <-stop:
	}

	if w != nil {
		w.Close()
	}
	if err := p.Close(); err != nil {
		return err
	}
	values := metric.Get(meter.UID())
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.out, "%s: %s\n", name, values[name])
	}
	return nil
}
