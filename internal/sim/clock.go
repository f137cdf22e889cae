package sim

import (
	"sync"
	"time"
)

// ManualClock is a simulation clock advanced explicitly by the caller.
type ManualClock struct {
	mu  sync.Mutex
	now time.Duration
}

// NewManualClock starts a manual clock at the given universal time.
func NewManualClock(start time.Duration) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current universal time.
func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// WallClock reports universal time as wall time elapsed since construction,
// scaled by a warp factor.
type WallClock struct {
	started time.Time
	warp    float64
	since   func(time.Time) time.Duration
}

// NewWallClock builds a wall-backed clock. A warp <= 0 is treated as 1.
func NewWallClock(warp float64) *WallClock {
	if warp <= 0 {
		warp = 1
	}
	return &WallClock{started: time.Now(), warp: warp, since: time.Since}
}

// Now returns the warped elapsed time.
func (c *WallClock) Now() time.Duration {
	return time.Duration(float64(c.since(c.started)) * c.warp)
}
