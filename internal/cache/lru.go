package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// LRUCache holds rendered views keyed by ledger revision. It keeps at most
// maxSize views, most recently read first, and treats views older than ttl
// as absent. Concurrent misses on one key share a single computation.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	index   map[string]*list.Element
	recency *list.List

	inflight singleflight.Group
	hits     atomic.Int64
	misses   atomic.Int64
}

type view[T any] struct {
	key      string
	value    T
	storedAt time.Time
}

// Stats counts lookups since the cache was created.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		index:   make(map[string]*list.Element),
		recency: list.New(),
	}
}

func (c *LRUCache[T]) expired(v *view[T], now time.Time) bool {
	return c.ttl > 0 && now.Sub(v.storedAt) > c.ttl
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.index[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	v := elem.Value.(*view[T])
	if c.expired(v, c.now()) {
		c.drop(elem)
		c.misses.Add(1)
		return zero, false
	}
	c.recency.MoveToFront(elem)
	c.hits.Add(1)
	return v.value, true
}

func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := &view[T]{key: key, value: value, storedAt: c.now()}
	if elem, ok := c.index[key]; ok {
		elem.Value = v
		c.recency.MoveToFront(elem)
		return
	}
	c.index[key] = c.recency.PushFront(v)
	for c.recency.Len() > c.maxSize {
		c.drop(c.recency.Back())
	}
}

// GetOrCompute returns the view for key, computing it on a miss. Callers
// racing on the same missing key wait for one compute call.
func (c *LRUCache[T]) GetOrCompute(key string, compute func() T) T {
	if v, ok := c.Get(key); ok {
		return v
	}
	out, _, _ := c.inflight.Do(key, func() (any, error) {
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		v := compute()
		c.Set(key, v)
		return v, nil
	})
	return out.(T)
}

// peek looks key up without touching recency or counters.
func (c *LRUCache[T]) peek(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	elem, ok := c.index[key]
	if !ok {
		return zero, false
	}
	v := elem.Value.(*view[T])
	if c.expired(v, c.now()) {
		return zero, false
	}
	return v.value, true
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.index[key]; ok {
		c.drop(elem)
	}
}

func (c *LRUCache[T]) drop(elem *list.Element) {
	delete(c.index, elem.Value.(*view[T]).key)
	c.recency.Remove(elem)
}

// CleanExpired drops stale views and returns how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	// Oldest views sit at the back; walk forward from there.
	for elem := c.recency.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*view[T]), now) {
			c.drop(elem)
			dropped++
		}
		elem = prev
	}
	return dropped
}

// Purge drops every view.
func (c *LRUCache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.index)
	c.recency.Init()
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *LRUCache[T]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: c.Size()}
}
