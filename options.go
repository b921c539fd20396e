package bzzt

import (
	"github.com/dudk/bzzt/log"
	"github.com/dudk/bzzt/metric"
	"github.com/dudk/bzzt/pipeline"
)

// Option configures a process.
type Option func(*Process)

// WithLogger sets the logger of the process and its pipeline.
func WithLogger(l log.Logger) Option {
	return func(p *Process) {
		p.logger = l
		p.pipelineOptions = append(p.pipelineOptions, pipeline.WithLogger(l))
	}
}

// WithMetric captures render counters with m.
func WithMetric(m *metric.Meter) Option {
	return func(p *Process) {
		p.meter = m
	}
}

// WithDeclick fades output in over n samples after every applied
// configuration change.
func WithDeclick(n int) Option {
	return func(p *Process) {
		if n > 0 {
			p.declick = n
			p.faded = n
		}
	}
}

// WithPipelineOptions passes options to the owned pipeline.
func WithPipelineOptions(options ...pipeline.Option) Option {
	return func(p *Process) {
		p.pipelineOptions = append(p.pipelineOptions, options...)
	}
}
