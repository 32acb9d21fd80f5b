package limiter

import (
	"time"

	"github.com/gammazero/deque"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// window holds the ticks of admitted requests for one key, oldest first.
// Callers serialize access through the owning shard's mutex.
type window struct {
	ticks deque.Deque[Tick]
}

func (w *window) len() int {
	return w.ticks.Len()
}

func (w *window) latest() (Tick, bool) {
	if w.ticks.Len() == 0 {
		return 0, false
	}
	return w.ticks.Back(), true
}

// evict drops ticks at or beyond the window boundary. now must not precede any recorded tick.
func (w *window) evict(now, size Tick) {
	for w.ticks.Len() > 0 && now-w.ticks.Front() >= size {
		w.ticks.PopFront()
	}
}

func (w *window) record(now Tick) {
	w.ticks.PushBack(now)
}

func (w *window) snapshot() []Tick {
	out := make([]Tick, w.ticks.Len())
	for i := range out {
		out[i] = w.ticks.At(i)
	}
	return out
}

// windowStore maps keys to their windows. touch inserts the key or refreshes its recency.
type windowStore interface {
	get(key string) (*window, bool)
	peek(key string) (*window, bool)
	touch(key string, w *window)
	remove(key string)
	len() int
}

// newWindowStore picks the backing table: a plain map when unbounded, an LRU when
// maxKeys > 0, and an expirable LRU when idleTTL > 0.
func newWindowStore(maxKeys int, idleTTL time.Duration, onEvict func(key string)) (windowStore, error) {
	switch {
	case idleTTL > 0:
		return &expirableStore{cache: expirable.NewLRU[string, *window](maxKeys, func(key string, _ *window) {
			onEvict(key)
		}, idleTTL)}, nil
	case maxKeys > 0:
		cache, err := lru.NewWithEvict[string, *window](maxKeys, func(key string, _ *window) {
			onEvict(key)
		})
		if err != nil {
			return nil, err
		}
		return &lruStore{cache: cache}, nil
	default:
		return &mapStore{windows: make(map[string]*window), onEvict: onEvict}, nil
	}
}

type mapStore struct {
	windows map[string]*window
	onEvict func(key string)
}

func (s *mapStore) get(key string) (*window, bool) {
	w, ok := s.windows[key]
	return w, ok
}

func (s *mapStore) peek(key string) (*window, bool) {
	return s.get(key)
}

func (s *mapStore) touch(key string, w *window) {
	s.windows[key] = w
}

func (s *mapStore) remove(key string) {
	if _, ok := s.windows[key]; ok {
		delete(s.windows, key)
		s.onEvict(key)
	}
}

func (s *mapStore) len() int {
	return len(s.windows)
}

type lruStore struct {
	cache *lru.Cache[string, *window]
}

func (s *lruStore) get(key string) (*window, bool) {
	return s.cache.Get(key)
}

func (s *lruStore) peek(key string) (*window, bool) {
	return s.cache.Peek(key)
}

func (s *lruStore) touch(key string, w *window) {
	if !s.cache.Contains(key) {
		s.cache.Add(key, w)
	}
}

func (s *lruStore) remove(key string) {
	s.cache.Remove(key)
}

func (s *lruStore) len() int {
	return s.cache.Len()
}

// expirableStore re-adds on every touch because expirable.LRU only sets the deadline on Add.
type expirableStore struct {
	cache *expirable.LRU[string, *window]
}

func (s *expirableStore) get(key string) (*window, bool) {
	return s.cache.Get(key)
}

func (s *expirableStore) peek(key string) (*window, bool) {
	return s.cache.Peek(key)
}

func (s *expirableStore) touch(key string, w *window) {
	s.cache.Add(key, w)
}

func (s *expirableStore) remove(key string) {
	s.cache.Remove(key)
}

func (s *expirableStore) len() int {
	return s.cache.Len()
}
