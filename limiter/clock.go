package limiter

import (
	"errors"
	"time"
)

// Tick is a point in time measured in clock-defined units since the clock's reference instant.
type Tick uint64

// Clock abstracts the time source for testability.
// Successive calls to Now on the same Clock must be non-decreasing.
type Clock interface {
	Now() Tick
}

type realClock struct {
	start      time.Time
	resolution time.Duration
}

// Now returns the number of whole resolution units elapsed since the clock was created.
// time.Since uses the monotonic reading, so wall-clock adjustments do not move it backwards.
func (c *realClock) Now() Tick {
	return Tick(time.Since(c.start) / c.resolution)
}

// NewRealClock returns a clock that counts milliseconds since its creation.
func NewRealClock() Clock {
	return &realClock{start: time.Now(), resolution: time.Millisecond}
}

// NewRealClockWithResolution returns a clock whose ticks are resolution long.
func NewRealClockWithResolution(resolution time.Duration) (Clock, error) {
	if resolution <= 0 {
		return nil, errors.New("clock resolution must be greater than 0")
	}
	return &realClock{start: time.Now(), resolution: resolution}, nil
}
