// Package wav encodes bounced audio to wav files and decodes them back
// for analysis.
package wav

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dudk/bzzt/signal"
)

// pcm is the wav audio format of integer samples.
const pcm = 1

type (
	// Sink saves audio to wav file.
	Sink struct {
		path     string
		bitDepth signal.BitDepth
		file     *os.File
		encoder  *wav.Encoder
	}

	// Audio is a decoded wav file.
	Audio struct {
		signal.Float64
		SampleRate int
		BitDepth   signal.BitDepth
	}
)

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth is supported")
	// ErrInvalidFile is returned when file is not a valid wav.
	ErrInvalidFile = errors.New("wav is not valid")
)

func supported(bitDepth signal.BitDepth) bool {
	return bitDepth == signal.BitDepth16 || bitDepth == signal.BitDepth32
}

// NewSink creates new wav sink.
func NewSink(path string, bitDepth signal.BitDepth) (*Sink, error) {
	if !supported(bitDepth) {
		return nil, ErrUnsupportedBitDepth
	}
	return &Sink{
		path:     path,
		bitDepth: bitDepth,
	}, nil
}

// Sink creates the file and returns function that encodes frames.
func (s *Sink) Sink(sampleRate, numChannels int) (func(signal.Float64) error, error) {
	f, err := os.Create(s.path)
	if err != nil {
		return nil, err
	}
	s.file = f
	s.encoder = wav.NewEncoder(f, sampleRate, int(s.bitDepth), numChannels, pcm)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: int(s.bitDepth),
	}

	return func(b signal.Float64) error {
		ib.Data = b.AsInterInt(s.bitDepth)
		return s.encoder.Write(ib)
	}, nil
}

// Flush finalizes the header and closes the file.
func (s *Sink) Flush() error {
	if s.encoder == nil {
		return nil
	}
	err := s.encoder.Close()
	if err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Read decodes whole wav file.
func Read(path string) (*Audio, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if !supported(bitDepth) {
		return nil, ErrUnsupportedBitDepth
	}
	ib, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return &Audio{
		Float64: signal.InterInt{
			Data:        ib.Data,
			NumChannels: ib.Format.NumChannels,
			BitDepth:    bitDepth,
		}.AsFloat64(),
		SampleRate: int(decoder.SampleRate),
		BitDepth:   bitDepth,
	}, nil
}
