package main

import (
	"sync"
	"time"

	"github.com/dudk/bzzt"
	"github.com/dudk/bzzt/generator"
)

// clock is a device that pulls frames in real time and drops them.
type clock struct {
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func newClock() *clock {
	return &clock{done: make(chan struct{})}
}

func (c *clock) Start(cfg generator.Config, src bzzt.Source) error {
	out := make([][]float32, bzzt.NumChannels)
	for i := range out {
		out[i] = make([]float32, cfg.FrameSize)
	}
	ticker := time.NewTicker(cfg.FrameDuration())
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				src.Fill(out)
			case <-c.done:
				return
			}
		}
	}()
	return nil
}

func (c *clock) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.wg.Wait()
	})
	return nil
}
