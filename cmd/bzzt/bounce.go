package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/mp3"
	"github.com/dudk/bzzt/signal"
	"github.com/dudk/bzzt/wav"
)

var (
	errMissingOut = errors.New("missing -out required flag")
	errFormat     = errors.New("output must be .wav or .mp3")
)

type bounceCommand struct {
	audioFlags
	out      io.Writer
	path     string
	seconds  float64
	bitDepth int
	bitRate  int
	quality  int
}

func (cmd *bounceCommand) Name() string {
	return "bounce"
}

func (cmd *bounceCommand) Help() string {
	return "Render a pipeline configuration to a wav or mp3 file"
}

func (cmd *bounceCommand) Register(fs *flag.FlagSet) {
	cmd.audioFlags.register(fs)
	fs.StringVar(&cmd.path, "out", "", "output .wav or .mp3 file (required)")
	fs.Float64Var(&cmd.seconds, "seconds", 5, "length of rendered audio")
	fs.IntVar(&cmd.bitDepth, "bits", 16, "wav bit depth: 16 or 32")
	fs.IntVar(&cmd.bitRate, "bitrate", 192, "mp3 bit rate")
	fs.IntVar(&cmd.quality, "quality", 2, "mp3 quality, 0 is best and 9 is fastest")
}

func (cmd *bounceCommand) sink() (bzzt.Sink, error) {
	if cmd.path == "" {
		return nil, errMissingOut
	}
	path, err := homedir.Expand(cmd.path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, err := wav.NewSink(path, signal.BitDepth(cmd.bitDepth))
		if err != nil {
			return nil, err
		}
		return s, nil
	case ".mp3":
		return mp3.NewSink(path, cmd.bitRate, cmd.quality), nil
	}
	return nil, fmt.Errorf("%w: %s", errFormat, cmd.path)
}

// frames returns number of frames that cover seconds.
func frames(seconds float64, sampleRate, frameSize int) int {
	return int(math.Ceil(seconds * float64(sampleRate) / float64(frameSize)))
}

func (cmd *bounceCommand) Run() error {
	sink, err := cmd.sink()
	if err != nil {
		return err
	}
	p, _, err := cmd.newProcess(newLogger(), nil)
	if err != nil {
		return err
	}
	defer p.Close()

	n := frames(cmd.seconds, cmd.rate, cmd.frame)
	if err := p.Bounce(context.Background(), sink, n); err != nil {
		return err
	}
	fmt.Fprintf(cmd.out, "Rendered %v to %s\n", signal.DurationOf(cmd.rate, int64(n*cmd.frame)), cmd.path)
	return p.Close()
}
