package simcontrol

import (
	"context"
	"time"
)

// Run starts a background ticker loop calling Step(dt) every interval.
// It returns immediately;
// the loop runs until ctx is cancelled or StopRun is called. Calling Run
// while already running is a no-op.
func (c *Controller) Run(ctx context.Context, interval time.Duration, dt float64) {
	c.runMu.Lock()
	if c.running {
		c.runMu.Unlock()
		return
	}
	c.running = true
	childCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.runMu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-childCtx.Done():
				c.runMu.Lock()
				c.running = false
				c.runMu.Unlock()
				return
			case <-ticker.C:
				if err := c.Step(dt); err != nil {
					c.runMu.Lock()
					c.running = false
					c.runMu.Unlock()
					return
				}
			}
		}
	}()
}

// StopRun halts a loop started by Run. It is a no-op if no loop is running.
func (c *Controller) StopRun() {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.running = false
}

// IsRunning reports whether a Run loop is currently active.
func (c *Controller) IsRunning() bool {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.running
}
