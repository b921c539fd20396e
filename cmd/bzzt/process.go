package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/config"
	"github.com/dudk/bzzt/generator"
	"github.com/dudk/bzzt/generator/builtin"
	"github.com/dudk/bzzt/log"
	"github.com/dudk/bzzt/metric"
)

var errMissingConfig = errors.New("missing -config required flag")

// audioFlags are shared by commands that render a configuration.
type audioFlags struct {
	config  string
	frame   int
	rate    int
	declick int
}

func (f *audioFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "pipeline configuration file (required)")
	fs.IntVar(&f.frame, "frame", 512, "frame size in samples")
	fs.IntVar(&f.rate, "rate", 44100, "sample rate")
	fs.IntVar(&f.declick, "declick", 256, "samples to fade in after reconfiguration")
}

func (f *audioFlags) audioConfig() generator.Config {
	return generator.Config{FrameSize: f.frame, SampleRate: f.rate}
}

// newProcess creates a process and applies the configuration file to it.
func (f *audioFlags) newProcess(logger *logrus.Logger, meter *metric.Meter) (*bzzt.Process, *generator.Registry, error) {
	if f.config == "" {
		return nil, nil, errMissingConfig
	}
	r := builtin.NewRegistry()
	options := []bzzt.Option{
		bzzt.WithLogger(logger),
		bzzt.WithDeclick(f.declick),
	}
	if meter != nil {
		options = append(options, bzzt.WithMetric(meter))
	}
	p, err := bzzt.New(f.audioConfig(), r, options...)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Load(f.config, p, r, config.WithLogger(logger)); err != nil {
		p.Close()
		return nil, nil, fmt.Errorf("error loading %s:\n%w", f.config, err)
	}
	// queued configuration is applied after a frame
	p.Render()
	return p, r, nil
}

func newLogger() *logrus.Logger {
	return log.GetLogger()
}
