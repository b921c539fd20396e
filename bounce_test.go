package bzzt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/mock"
)

func TestBounce(t *testing.T) {
	p, r := newProcess(t)
	defer p.Close()
	p.Configure(sine(r, 250), nil)
	p.Render()

	sink := &mock.Sink{}
	require.NoError(t, p.Bounce(context.Background(), sink, 10))
	assert.Equal(t, cfg.SampleRate, sink.SampleRate)
	assert.Equal(t, bzzt.NumChannels, sink.NumChannels)
	assert.Equal(t, 1, sink.Flushed)
	assert.Equal(t, 10*cfg.FrameSize, sink.Values.Size())
	for i, v := range sink.Values[bzzt.Left] {
		assert.InDelta(t, sineAt(i, 250), v, 1e-9)
	}
	messages, samples := sink.Count()
	assert.Equal(t, 10, messages)
	assert.Equal(t, 10*cfg.FrameSize, samples)
}

func TestBounceErrors(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	var tests = []struct {
		description string
		ctx         context.Context
		sink        *mock.Sink
		sinkErr     error
		flushErr    bool
	}{
		{
			description: "sink",
			ctx:         context.Background(),
			sink:        &mock.Sink{ErrorOnCall: 3},
			sinkErr:     mock.ErrMock,
		},
		{
			description: "flush",
			ctx:         context.Background(),
			sink:        &mock.Sink{ErrorOnFlush: true},
			flushErr:    true,
		},
		{
			description: "canceled",
			ctx:         canceled,
			sink:        &mock.Sink{},
			sinkErr:     context.Canceled,
		},
	}
	for _, test := range tests {
		p, _ := newProcess(t)
		err := p.Bounce(test.ctx, test.sink, 10)
		var bounceErr *bzzt.ErrorBounce
		require.True(t, errors.As(err, &bounceErr), test.description)
		assert.NotEmpty(t, err.Error())
		if test.sinkErr != nil {
			assert.ErrorIs(t, err, test.sinkErr, test.description)
		}
		if test.flushErr {
			assert.ErrorIs(t, bounceErr.ErrFlush, mock.ErrMock, test.description)
		}
		assert.Equal(t, 1, test.sink.Flushed, test.description)
		assert.NoError(t, p.Close())
	}
}

func TestBounceWhileStarted(t *testing.T) {
	p, _ := newProcess(t)
	require.NoError(t, p.Start(&mock.Device{}))
	assert.ErrorIs(t, p.Bounce(context.Background(), &mock.Sink{}, 1), bzzt.ErrStarted)
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Bounce(context.Background(), &mock.Sink{}, 1), bzzt.ErrClosed)
}

func TestRun(t *testing.T) {
	p, r := newProcess(t)
	defer p.Close()
	p.Configure(sine(r, 250), nil)
	sink := &mock.Sink{Discard: true}
	for err := range p.Run(context.Background(), sink, 5) {
		assert.NoError(t, err)
	}
	_, samples := sink.Count()
	assert.Equal(t, 5*cfg.FrameSize, samples)
	assert.Nil(t, sink.Values)

	sink = &mock.Sink{ErrorOnCall: 1}
	err := <-p.Run(context.Background(), sink, 5)
	assert.ErrorIs(t, err, mock.ErrMock)
}
