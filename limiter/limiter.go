// Package limiter provides an in-memory sliding-window rate limiter keyed by client identity.
// Each key keeps the ticks of its admitted requests; a request is admitted while fewer than
// capacity of them fall inside the half-open window (now-window, now].
package limiter

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by constructors given a zero window or a non-positive capacity.
	ErrInvalidConfig = errors.New("invalid limiter configuration")
	// ErrClockWentBackwards is matched by every *ClockAnomalyError.
	ErrClockWentBackwards = errors.New("clock went backwards")
)

// Decision is the outcome of a rate-limit check.
type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "ALLOWED"
	case Denied:
		return "DENIED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets a Decision render as its name in JSON.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Limiter decides whether a request for key may proceed.
type Limiter interface {
	TryAddRequest(key string) (Decision, error)
}

// ClockAnomalyError reports a tick older than the newest one already recorded for Key.
type ClockAnomalyError struct {
	Key    string
	Now    Tick
	Latest Tick
}

func (e *ClockAnomalyError) Error() string {
	return fmt.Sprintf("clock went backwards for key %q: now=%d, latest recorded=%d", e.Key, e.Now, e.Latest)
}

func (e *ClockAnomalyError) Is(target error) bool {
	return target == ErrClockWentBackwards
}

// IsClockAnomaly reports whether err signals a clock that moved backwards.
func IsClockAnomaly(err error) bool {
	return errors.Is(err, ErrClockWentBackwards)
}

// Observer receives limiter events. Implementations must be safe for concurrent use
// and must not call back into the limiter.
type Observer interface {
	ObserveDecision(d Decision)
	ObserveClockAnomaly()
	ObserveEviction(key string)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(Decision) {}
func (nopObserver) ObserveClockAnomaly()     {}
func (nopObserver) ObserveEviction(string)   {}
