// Package metric publishes render counters of audio processes with expvar.
package metric

import (
	"expvar"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dudk/bzzt/generator"
	"github.com/dudk/bzzt/signal"
)

const processLabel = "bzzt.process"

const (
	// FrameCounter counts rendered frames.
	FrameCounter = "Frames"
	// SampleCounter counts rendered samples per channel.
	SampleCounter = "Samples"
	// OverrunCounter counts frames rendered slower than real time.
	OverrunCounter = "Overruns"
	// RenderTimeCounter is the total time spent rendering.
	RenderTimeCounter = "RenderTime"
	// DurationCounter is the duration of rendered audio.
	DurationCounter = "Duration"
	// ConfigurationCounter counts applied configuration changes.
	ConfigurationCounter = "Configurations"
)

var (
	meters = struct {
		sync.Mutex
		m map[string]*Meter
	}{
		m: make(map[string]*Meter),
	}

	counters = []string{
		FrameCounter,
		SampleCounter,
		OverrunCounter,
		RenderTimeCounter,
		DurationCounter,
		ConfigurationCounter,
	}
)

// Meter captures counters of one process. All methods are safe for
// concurrent use and do not allocate.
type Meter struct {
	uid            string
	frameSize      int64
	budget         time.Duration
	frameDuration  time.Duration
	frames         *expvar.Int
	samples        *expvar.Int
	overruns       *expvar.Int
	configurations *expvar.Int
	renderTime     *duration
	duration       *duration
}

// New returns meter published under uid. Calling New again with the
// same uid returns the existing meter.
func New(uid string, cfg generator.Config) *Meter {
	meters.Lock()
	defer meters.Unlock()
	if m, ok := meters.m[uid]; ok {
		return m
	}
	frameDuration := signal.DurationOf(cfg.SampleRate, int64(cfg.FrameSize))
	m := &Meter{
		uid:            uid,
		frameSize:      int64(cfg.FrameSize),
		budget:         cfg.FrameDuration(),
		frameDuration:  frameDuration,
		frames:         expvar.NewInt(key(uid, FrameCounter)),
		samples:        expvar.NewInt(key(uid, SampleCounter)),
		overruns:       expvar.NewInt(key(uid, OverrunCounter)),
		configurations: expvar.NewInt(key(uid, ConfigurationCounter)),
		renderTime:     &duration{},
		duration:       &duration{},
	}
	expvar.Publish(key(uid, RenderTimeCounter), m.renderTime)
	expvar.Publish(key(uid, DurationCounter), m.duration)
	meters.m[uid] = m
	return m
}

// Frame captures one frame rendered in elapsed time.
func (m *Meter) Frame(elapsed time.Duration) {
	m.frames.Add(1)
	m.samples.Add(m.frameSize)
	m.renderTime.add(elapsed)
	m.duration.add(m.frameDuration)
	if elapsed > m.budget {
		m.overruns.Add(1)
	}
}

// Configured captures n applied configuration changes.
func (m *Meter) Configured(n int) {
	m.configurations.Add(int64(n))
}

// UID returns the uid the meter is published under.
func (m *Meter) UID() string {
	return m.uid
}

// Get returns counter values of process uid.
func Get(uid string) map[string]string {
	values := make(map[string]string)
	for _, counter := range counters {
		if v := expvar.Get(key(uid, counter)); v != nil {
			values[counter] = v.String()
		}
	}
	return values
}

// GetAll returns counters of every measured process.
func GetAll() map[string]map[string]string {
	meters.Lock()
	uids := make([]string, 0, len(meters.m))
	for uid := range meters.m {
		uids = append(uids, uid)
	}
	meters.Unlock()
	sort.Strings(uids)

	all := make(map[string]map[string]string, len(uids))
	for _, uid := range uids {
		all[uid] = Get(uid)
	}
	return all
}

func key(uid, counter string) string {
	return fmt.Sprintf("%s.%s.%s", processLabel, uid, counter)
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}
