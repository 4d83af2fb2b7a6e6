// internal/sched/tickclock.go

package sched

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"dmsched/internal/job"
)

var errClockStopped = errors.New("tick clock stopped")

// TickClock counts simulated ticks. Once started it is paced: every Advance
// waits for the next wall-clock tick, so a run can be watched as it happens.
type TickClock struct {
	Ch       chan struct{}
	count    atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
	paced    atomic.Bool
}

// NewTickClock creates an unpaced clock at tick zero.
func NewTickClock(buffer int) *TickClock {
	return &TickClock{
		Ch:   make(chan struct{}, buffer),
		stop: make(chan struct{}),
	}
}

// Start begins emitting pacing ticks at the given interval.
func (c *TickClock) Start(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.paced.Store(true)
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case c.Ch <- struct{}{}:
				case <-c.stop:
					close(c.Ch)
					return
				}
			case <-c.stop:
				close(c.Ch)
				return
			}
		}
	}()
}

// Advance moves simulated time forward by one tick.
func (c *TickClock) Advance(ctx context.Context) error {
	if c.paced.Load() {
		select {
		case _, ok := <-c.Ch:
			if !ok {
				return errClockStopped
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.count.Add(1)
	return nil
}

// Stop signals the clock to stop emitting ticks.
func (c *TickClock) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Count returns the current tick count atomically.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}

func (c *TickClock) Now() job.Tick { return job.Tick(c.Count()) }
