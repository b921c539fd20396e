package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/dudk/bzzt/signal"
)

// Decoded mp3 is always 16 bit stereo.
const numChannels = 2

// Audio is a decoded mp3 file.
type Audio struct {
	signal.Float64
	SampleRate int
}

// Read decodes whole mp3 file.
func Read(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}

	ints := make([]int, 0, d.Length()/2)
	var val int16
	for {
		if err := binary.Read(d, binary.LittleEndian, &val); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, fmt.Errorf("error decoding %s: %w", path, err)
		}
		ints = append(ints, int(val))
	}
	if len(ints)%numChannels == 1 {
		ints = append(ints, 0)
	}
	return &Audio{
		Float64: signal.InterInt{
			Data:        ints,
			NumChannels: numChannels,
			BitDepth:    signal.BitDepth16,
		}.AsFloat64(),
		SampleRate: d.SampleRate(),
	}, nil
}
