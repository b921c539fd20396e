// Package mp3 encodes bounced audio with lame and decodes mp3 files back
// for analysis.
package mp3

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/viert/lame"

	"github.com/dudk/bzzt/signal"
)

// Sink allows to send data to mp3 files.
type Sink struct {
	path    string
	bitRate int
	quality int
	f       *os.File
	wr      *lame.LameWriter
	buf     bytes.Buffer
}

// NewSink creates new Sink. Quality is lame's algorithm quality, 0 is
// best and 9 is fastest.
func NewSink(path string, bitRate int, quality int) *Sink {
	s := Sink{
		path:    path,
		bitRate: bitRate,
		quality: quality,
	}
	return &s
}

// Flush cleans up buffers.
func (s *Sink) Flush() error {
	if s.wr == nil {
		return nil
	}
	err := s.wr.Close()
	if err != nil {
		s.f.Close()
		return err
	}

	return s.f.Close()
}

// Sink creates the file and returns function that encodes frames.
func (s *Sink) Sink(sampleRate int, numChannels int) (func(signal.Float64) error, error) {
	var err error
	s.f, err = os.Create(s.path)
	if err != nil {
		return nil, err
	}

	s.wr = lame.NewWriter(s.f)
	s.wr.Encoder.SetBitrate(s.bitRate)
	s.wr.Encoder.SetQuality(s.quality)
	s.wr.Encoder.SetNumChannels(numChannels)
	s.wr.Encoder.SetInSamplerate(sampleRate)
	s.wr.Encoder.SetMode(lame.JOINT_STEREO)
	s.wr.Encoder.SetVBR(lame.VBR_RH)
	s.wr.Encoder.InitParams()

	return func(b signal.Float64) error {
		s.buf.Reset()
		ints := b.AsInterInt(signal.BitDepth16)
		for i := range ints {
			if err := binary.Write(&s.buf, binary.LittleEndian, int16(ints[i])); err != nil {
				return err
			}
		}
		if _, err := s.wr.Write(s.buf.Bytes()); err != nil {
			return err
		}

		return nil
	}, nil
}
