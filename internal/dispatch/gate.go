package dispatch

import (
	"context"
	"time"
)

// acquire blocks until no other task holds the gate, then takes it.
// A cancelled ctx wakes the waiter and aborts without taking the gate.
func (c *Coordinator) acquire(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.cond.Broadcast()
	})
	defer stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for c.busy {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.busy = true
	return nil
}

// release frees the gate and wakes every waiter.
func (c *Coordinator) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.cond.Broadcast()
}

// Busy reports whether a task currently holds the gate.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// pause waits out the pacing interval between two tickets.
func (c *Coordinator) pause(ctx context.Context) error {
	if c.pace <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.pace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
