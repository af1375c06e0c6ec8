// ABOUTME: TTL window of recently handled update keys
// ABOUTME: Drops updates Telegram delivers more than once before they reach the relay

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// DefaultTTL covers Telegram's redelivery window after a webhook timeout.
const DefaultTTL = 10 * time.Minute

// DefaultMaxSize bounds memory when traffic spikes.
const DefaultMaxSize = 10000

type entry struct {
	key  string
	seen time.Time
}

// Cache remembers keys for a TTL, oldest-first eviction at capacity.
// The list holds entries in first-seen order, so expiry and eviction both
// work from the front.
type Cache struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	order   *list.List
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// New creates a cache. Non-positive arguments fall back to the defaults.
func New(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{
		index:   make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Seen reports whether key was marked within the TTL, without marking it.
func (c *Cache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()
	_, ok := c.index[key]
	return ok
}

// CheckAndMark marks key and reports whether it had already been marked
// within the TTL. Concurrent callers with the same key see exactly one false.
func (c *Cache) CheckAndMark(key string) (duplicate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	if _, ok := c.index[key]; ok {
		return true
	}
	if c.order.Len() >= c.maxSize {
		front := c.order.Front()
		c.order.Remove(front)
		delete(c.index, front.Value.(*entry).key)
	}
	c.index[key] = c.order.PushBack(&entry{key: key, seen: c.now()})
	return false
}

// Forget removes key so a later redelivery is handled again. The gateway
// calls it when handling failed before any side effect.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.order.Remove(el)
		delete(c.index, key)
	}
}

// Len is the number of live keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()
	return c.order.Len()
}

// expireLocked drops expired keys from the front. Entries are never
// refreshed, so the list is ordered by seen time.
func (c *Cache) expireLocked() {
	cutoff := c.now().Add(-c.ttl)
	for el := c.order.Front(); el != nil; el = c.order.Front() {
		e := el.Value.(*entry)
		if e.seen.After(cutoff) {
			return
		}
		c.order.Remove(el)
		delete(c.index, e.key)
	}
}
