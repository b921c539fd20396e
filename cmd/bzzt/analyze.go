package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/analysis"
	"github.com/dudk/bzzt/mp3"
	"github.com/dudk/bzzt/signal"
	"github.com/dudk/bzzt/wav"
)

var errInput = errors.New("either -config or -in is required")

type analyzeCommand struct {
	audioFlags
	out     io.Writer
	in      string
	seconds float64
}

func (cmd *analyzeCommand) Name() string {
	return "analyze"
}

func (cmd *analyzeCommand) Help() string {
	return "Print dominant frequency and levels of every channel"
}

func (cmd *analyzeCommand) Register(fs *flag.FlagSet) {
	cmd.audioFlags.register(fs)
	fs.StringVar(&cmd.in, "in", "", "analyze .wav or .mp3 file instead of a configuration")
	fs.Float64Var(&cmd.seconds, "seconds", 1, "length of rendered audio")
}

// memory keeps bounced frames.
type memory struct {
	sampleRate int
	values     signal.Float64
}

func (m *memory) Sink(sampleRate, numChannels int) (func(signal.Float64) error, error) {
	m.sampleRate = sampleRate
	return func(b signal.Float64) error {
		m.values = m.values.Append(b)
		return nil
	}, nil
}

func (m *memory) Flush() error {
	return nil
}

func (cmd *analyzeCommand) render() (signal.Float64, int, error) {
	if cmd.in != "" {
		return read(cmd.in)
	}
	if cmd.config == "" {
		return nil, 0, errInput
	}
	p, _, err := cmd.newProcess(newLogger(), nil)
	if err != nil {
		return nil, 0, err
	}
	defer p.Close()
	m := memory{}
	if err := p.Bounce(context.Background(), &m, frames(cmd.seconds, cmd.rate, cmd.frame)); err != nil {
		return nil, 0, err
	}
	return m.values, m.sampleRate, nil
}

func read(path string) (signal.Float64, int, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, 0, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		a, err := wav.Read(path)
		if err != nil {
			return nil, 0, err
		}
		return a.Float64, a.SampleRate, nil
	case ".mp3":
		a, err := mp3.Read(path)
		if err != nil {
			return nil, 0, err
		}
		return a.Float64, a.SampleRate, nil
	}
	return nil, 0, fmt.Errorf("%w: %s", errFormat, path)
}

func (cmd *analyzeCommand) Run() error {
	values, sampleRate, err := cmd.render()
	if err != nil {
		return err
	}
	names := []string{"left", "right"}
	for c, samples := range values {
		name := fmt.Sprintf("channel %d", c)
		if c < bzzt.NumChannels {
			name = names[c]
		}
		if analysis.Peak(samples) == 0 {
			fmt.Fprintf(cmd.out, "%s: silent\n", name)
			continue
		}
		f, err := analysis.DominantFrequency(samples, sampleRate)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.out, "%s: %.1f Hz peak %.3f rms %.3f\n", name, f, analysis.Peak(samples), analysis.RMS(samples))
	}
	return nil
}
