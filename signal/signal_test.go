package signal_test

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/bzzt/signal"
)

func TestInterIntsAsFloat64(t *testing.T) {
	tests := []struct {
		ints        []int
		numChannels int
		bitDepth    signal.BitDepth
		expected    signal.Float64
	}{
		{
			ints:        []int{1, 2, 1, 2, 1, 2, 1, 2},
			numChannels: 2,
			expected: signal.Float64{
				{1, 1, 1, 1},
				{2, 2, 2, 2},
			},
		},
		{
			ints:        []int{1, 2, 1, 2, 1},
			numChannels: 2,
			expected: signal.Float64{
				{1, 1, 1},
				{2, 2, 0},
			},
		},
		{
			ints:        []int{math.MaxInt16, math.MaxInt16 * 2},
			numChannels: 2,
			expected: signal.Float64{
				{1},
				{2},
			},
			bitDepth: signal.BitDepth16,
		},
		{
			ints:     nil,
			expected: nil,
		},
		{
			ints:     []int{1, 2, 3},
			expected: nil,
		},
	}
	for _, test := range tests {
		ints := signal.InterInt{
			Data:        test.ints,
			NumChannels: test.numChannels,
			BitDepth:    test.bitDepth,
		}
		assert.Equal(t, test.expected, ints.AsFloat64())
	}
}

func TestFloat64AsInterInt(t *testing.T) {
	tests := []struct {
		floats   signal.Float64
		bitDepth signal.BitDepth
		expected []int
	}{
		{
			floats:   signal.Float64{{1, 2}, {3, 4}},
			expected: []int{1, 1, 1, 1},
		},
		{
			floats:   signal.Float64{{0.5, -2}, {0, 1}},
			bitDepth: signal.BitDepth16,
			expected: []int{(math.MaxInt16 - 1) / 2, 0, -(math.MaxInt16 - 1), math.MaxInt16 - 1},
		},
		{
			floats:   nil,
			expected: nil,
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.floats.AsInterInt(test.bitDepth))
	}
}

func TestInterleaveLE(t *testing.T) {
	floats := signal.Float32{{1, 2, 3}, {-1, -2, -3}}
	dst := make([]byte, 20)
	assert.Equal(t, 16, floats.InterleaveLE(dst))
	expected := []float32{1, -1, 2, -2, 0}
	for i, v := range expected {
		assert.Equal(t, v, math.Float32frombits(binary.LittleEndian.Uint32(dst[4*i:])))
	}
	assert.Equal(t, 0, signal.Float32(nil).InterleaveLE(dst))
}

func TestAppend(t *testing.T) {
	var floats signal.Float64
	floats = floats.Append(signal.EmptyFloat64(2, 3))
	floats = floats.Append(signal.Float64{{1}, {2}})
	assert.Equal(t, 2, floats.NumChannels())
	assert.Equal(t, 4, floats.Size())
	assert.Equal(t, 2.0, floats[1][3])
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, 500*time.Millisecond, signal.DurationOf(8000, 4000))
	assert.Equal(t, 1.0, signal.Clip(3))
	assert.Equal(t, -1.0, signal.Clip(-3))
}
