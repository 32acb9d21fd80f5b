package limiter

import "time"

const defaultShards = 32

// Option configures a MemoryLimiter.
type Option func(*MemoryLimiter)

// WithShards sets how many independently locked partitions the key space is split into.
func WithShards(n int) Option {
	return func(l *MemoryLimiter) {
		l.shardCount = n
	}
}

// WithMaxKeys bounds the number of tracked keys. When full, the least recently used
// key's window is dropped and that key starts fresh on its next request.
func WithMaxKeys(n int) Option {
	return func(l *MemoryLimiter) {
		l.maxKeys = n
	}
}

// WithIdleTTL expires keys that have not been seen for d of wall-clock time.
func WithIdleTTL(d time.Duration) Option {
	return func(l *MemoryLimiter) {
		l.idleTTL = d
	}
}

// WithObserver sets the sink for limiter events.
func WithObserver(o Observer) Option {
	return func(l *MemoryLimiter) {
		if o == nil {
			o = nopObserver{}
		}
		l.observer = o
	}
}
