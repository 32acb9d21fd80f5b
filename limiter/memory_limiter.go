package limiter

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

type shard struct {
	mu      sync.Mutex
	windows windowStore
}

// MemoryLimiter is a thread-safe, in-memory sliding-window limiter.
// Keys are hashed onto shards; a call holds only its key's shard lock, so keys in
// different shards proceed in parallel.
type MemoryLimiter struct {
	clock    Clock
	window   Tick
	capacity int

	shardCount int
	maxKeys    int
	idleTTL    time.Duration
	observer   Observer

	shards []*shard
}

// NewMemoryLimiter creates a MemoryLimiter admitting at most capacity requests per key
// within any window ticks.
func NewMemoryLimiter(clock Clock, window Tick, capacity int, opts ...Option) (*MemoryLimiter, error) {
	if clock == nil {
		return nil, fmt.Errorf("%w: clock can't be nil", ErrInvalidConfig)
	}
	if window == 0 {
		return nil, fmt.Errorf("%w: window must be greater than 0", ErrInvalidConfig)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be greater than 0, got %d", ErrInvalidConfig, capacity)
	}

	l := &MemoryLimiter{
		clock:      clock,
		window:     window,
		capacity:   capacity,
		shardCount: defaultShards,
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.shardCount <= 0 {
		return nil, fmt.Errorf("%w: shards must be greater than 0, got %d", ErrInvalidConfig, l.shardCount)
	}
	if l.maxKeys < 0 {
		return nil, fmt.Errorf("%w: max keys can't be negative, got %d", ErrInvalidConfig, l.maxKeys)
	}
	if l.idleTTL < 0 {
		return nil, fmt.Errorf("%w: idle ttl can't be negative, got %v", ErrInvalidConfig, l.idleTTL)
	}

	perShard := 0
	if l.maxKeys > 0 {
		if l.shardCount > l.maxKeys {
			l.shardCount = l.maxKeys
		}
		perShard = (l.maxKeys + l.shardCount - 1) / l.shardCount
	}

	l.shards = make([]*shard, l.shardCount)
	for i := range l.shards {
		store, err := newWindowStore(perShard, l.idleTTL, l.observer.ObserveEviction)
		if err != nil {
			return nil, fmt.Errorf("failed to create key table: %w", err)
		}
		l.shards[i] = &shard{windows: store}
	}
	return l, nil
}

// TryAddRequest evicts the key's expired ticks and admits the request if fewer than
// capacity remain. A denied request is not recorded. If the clock reports a tick older
// than the key's newest one, a *ClockAnomalyError is returned and nothing is changed.
func (l *MemoryLimiter) TryAddRequest(key string) (Decision, error) {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	// Read under the lock so calls on one key see ticks in lock order.
	now := l.clock.Now()

	w, ok := s.windows.get(key)
	if ok {
		if latest, has := w.latest(); has && now < latest {
			l.observer.ObserveClockAnomaly()
			return Denied, &ClockAnomalyError{Key: key, Now: now, Latest: latest}
		}
	} else {
		w = &window{}
	}

	w.evict(now, l.window)

	decision := Denied
	if w.len() < l.capacity {
		w.record(now)
		decision = Allowed
	}
	s.windows.touch(key, w)

	l.observer.ObserveDecision(decision)
	return decision, nil
}

// Recorded returns a copy of the ticks currently held for key, oldest first.
// It does not evict and does not count as a use of the key.
func (l *MemoryLimiter) Recorded(key string) []Tick {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows.peek(key)
	if !ok {
		return nil
	}
	return w.snapshot()
}

// Reset forgets everything recorded for key.
func (l *MemoryLimiter) Reset(key string) {
	s := l.shardFor(key)
	s.mu.Lock()
	s.windows.remove(key)
	s.mu.Unlock()
}

// Len returns the number of keys currently tracked.
func (l *MemoryLimiter) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += s.windows.len()
		s.mu.Unlock()
	}
	return n
}

func (l *MemoryLimiter) Window() Tick {
	return l.window
}

func (l *MemoryLimiter) Capacity() int {
	return l.capacity
}

func (l *MemoryLimiter) shardFor(key string) *shard {
	return l.shards[xxhash.Sum64String(key)%uint64(len(l.shards))]
}
