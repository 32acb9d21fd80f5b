package limiter

import "sync"

// ManualClock is a Clock whose time only moves when told to. It is safe for concurrent use.
//
//	clk := limiter.NewManualClock(0)
//	l, _ := limiter.NewMemoryLimiter(clk, 10, 2)
//	l.TryAddRequest("1.1.1.1") // Allowed
//	clk.Advance(10)
type ManualClock struct {
	mu  sync.Mutex
	now Tick
}

// NewManualClock creates a ManualClock starting at start.
func NewManualClock(start Tick) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by delta ticks.
func (c *ManualClock) Advance(delta Tick) {
	c.mu.Lock()
	c.now += delta
	c.mu.Unlock()
}

// Set jumps to an absolute tick. Unlike Advance it can move time backwards,
// which is how tests provoke a clock anomaly.
func (c *ManualClock) Set(t Tick) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
