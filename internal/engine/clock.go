package engine

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the tick cadence when none is configured.
const DefaultInterval = time.Second

// Clock drives an engine at a fixed interval. Start is idempotent and Stop
// is safe to call whether or not the clock is running.
type Clock struct {
	mu       sync.Mutex
	engine   *Engine
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewClock wraps the engine in a ticker at the given interval. Intervals
// of zero or below fall back to DefaultInterval.
func NewClock(e *Engine, interval time.Duration) *Clock {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Clock{engine: e, interval: interval}
}

// Start launches the tick loop. Calling Start on a running clock is a no-op.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(c.stop, c.done)
}

// Stop halts the tick loop and waits for the in-flight tick to finish.
func (c *Clock) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Run starts the clock and blocks until ctx is cancelled, then stops it.
// Shaped for errgroup.Group.Go.
func (c *Clock) Run(ctx context.Context) error {
	c.Start()
	defer c.Stop()
	<-ctx.Done()
	return nil
}

func (c *Clock) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.engine.Tick()
		}
	}
}
