package limiter

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// AnomalyPolicy decides what a FallbackLimiter answers when the clock goes backwards.
type AnomalyPolicy int

const (
	// PolicyError passes the clock anomaly through to the caller.
	PolicyError AnomalyPolicy = iota
	// PolicyAllow admits the request without recording it.
	PolicyAllow
	// PolicyDeny rejects the request.
	PolicyDeny
)

func (p AnomalyPolicy) String() string {
	switch p {
	case PolicyError:
		return "error"
	case PolicyAllow:
		return "allow"
	case PolicyDeny:
		return "deny"
	default:
		return "unknown"
	}
}

// ParseAnomalyPolicy accepts "error", "allow" or "deny", case-insensitively.
func ParseAnomalyPolicy(s string) (AnomalyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return PolicyError, nil
	case "allow":
		return PolicyAllow, nil
	case "deny":
		return PolicyDeny, nil
	default:
		return PolicyError, fmt.Errorf("unknown anomaly policy %q", s)
	}
}

// FallbackLimiter wraps a primary limiter and falls back to a fixed decision when the
// primary reports a clock anomaly. Any other error is passed through unchanged.
type FallbackLimiter struct {
	primary      Limiter
	policy       AnomalyPolicy
	clockSuspect atomic.Bool
	logEvery     *rate.Sometimes
}

// FallbackOption configures a FallbackLimiter.
type FallbackOption func(*FallbackLimiter)

// WithAnomalyLogInterval limits anomaly warnings to one per interval.
func WithAnomalyLogInterval(interval time.Duration) FallbackOption {
	return func(l *FallbackLimiter) {
		l.logEvery = &rate.Sometimes{First: 1, Interval: interval}
	}
}

// NewFallbackLimiter creates a new FallbackLimiter.
func NewFallbackLimiter(primary Limiter, policy AnomalyPolicy, opts ...FallbackOption) (*FallbackLimiter, error) {
	if primary == nil {
		return nil, fmt.Errorf("primary limiter can't be nil")
	}
	switch policy {
	case PolicyError, PolicyAllow, PolicyDeny:
	default:
		return nil, fmt.Errorf("unknown anomaly policy %d", policy)
	}

	fl := &FallbackLimiter{
		primary:  primary,
		policy:   policy,
		logEvery: &rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(fl)
	}
	return fl, nil
}

// TryAddRequest asks the primary limiter and applies the anomaly policy to its answer.
func (l *FallbackLimiter) TryAddRequest(key string) (Decision, error) {
	d, err := l.primary.TryAddRequest(key)
	if err == nil {
		l.clockSuspect.Store(false)
		return d, nil
	}
	if !IsClockAnomaly(err) {
		return d, err
	}

	l.clockSuspect.Store(true)
	l.logEvery.Do(func() {
		log.Printf("limiter clock anomaly, applying %s policy: %v", l.policy, err)
	})

	switch l.policy {
	case PolicyAllow:
		return Allowed, nil
	case PolicyDeny:
		return Denied, nil
	default:
		return d, err
	}
}

// ClockSuspect reports whether the most recent call hit a clock anomaly.
func (l *FallbackLimiter) ClockSuspect() bool {
	return l.clockSuspect.Load()
}

func (l *FallbackLimiter) Policy() AnomalyPolicy {
	return l.policy
}
