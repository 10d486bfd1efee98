package tracker

import "sync"

// Control is the shared pause flag for the sampling pipeline. It is a
// plain flag flip: pausing does not synchronize with in-flight report
// reads, and the state is never persisted, so every process start is
// running and unpaused.
type Control struct {
	mu     sync.Mutex
	paused bool
}

// IsPaused reports whether sampling is paused.
func (c *Control) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// SetPaused flips the pause flag and reports the previous value.
func (c *Control) SetPaused(paused bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.paused
	c.paused = paused
	return prev
}
