// Package watch reloads a configuration file when it changes on disk.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dudk/bzzt/log"
)

// DefaultDelay is how long a file must stay unchanged before reload.
const DefaultDelay = 100 * time.Millisecond

type (
	// Watcher calls reload after a watched file was written. Bursts of
	// events within the delay cause a single reload.
	Watcher struct {
		path    string
		reload  func()
		delay   time.Duration
		logger  log.Logger
		watcher *fsnotify.Watcher
		done    chan struct{}
		wg      sync.WaitGroup
		once    sync.Once
	}

	// Option configures a watcher.
	Option func(*Watcher)
)

// WithDelay sets debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.delay = d
	}
}

// WithLogger sets logger for watch errors.
func WithLogger(l log.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New starts watching path. The directory of path is watched, so files
// replaced by editors are still tracked. Reload is called from the
// watcher's goroutine.
func New(path string, reload func(), options ...Option) (*Watcher, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := Watcher{
		path:   path,
		reload: reload,
		delay:  DefaultDelay,
		logger: log.Silent(),
		done:   make(chan struct{}),
	}
	for _, option := range options {
		option(&w)
	}

	w.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}
	if err := w.watcher.Add(filepath.Dir(path)); err != nil {
		w.watcher.Close()
		return nil, fmt.Errorf("error watching %s: %w", path, err)
	}
	w.wg.Add(1)
	go w.run()
	w.logger.Debug(fmt.Sprintf("watch %s: started", path))
	return &w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case e, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(fmt.Sprintf("watch %s: %v", w.path, err))
		case <-fire:
			fire = nil
			w.logger.Debug(fmt.Sprintf("watch %s: reload", w.path))
			w.reload()
		case <-w.done:
			return
		}
	}
}

// Close stops watching and waits for a running reload to return.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
