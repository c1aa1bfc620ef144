package cache

import (
	"sync"
	"time"
)

// DefaultPartition is the partition used by coordinators that do not set a
// cache key. Unrelated coordinators sharing a store share this partition.
const DefaultPartition = "upa"

// DefaultTTL is applied when caching is enabled without an explicit TTL
const DefaultTTL = 24 * time.Hour

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiry
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// TTLCache is a partitioned key/value store with per-entry expiry.
// Expired entries are dropped when read; there is no background sweep
// and no size based eviction.
type TTLCache[V any] struct {
	mu         sync.Mutex
	partitions map[string]map[string]entry[V]
	now        func() time.Time
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func New[V any](opts ...Option) *TTLCache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &TTLCache[V]{
		partitions: make(map[string]map[string]entry[V]),
		now:        o.now,
	}
}

func (c *TTLCache[V]) Get(partition, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entries, ok := c.partitions[partition]
	if !ok {
		return zero, false
	}

	e, ok := entries[key]
	if !ok {
		return zero, false
	}

	// Expired entries are dropped on read
	if e.expired(c.now()) {
		delete(entries, key)
		if len(entries) == 0 {
			delete(c.partitions, partition)
		}
		return zero, false
	}

	return e.value, true
}

// Set stores value until now+ttl. A non-positive ttl never expires.
func (c *TTLCache[V]) Set(partition, key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, ok := c.partitions[partition]
	if !ok {
		entries = make(map[string]entry[V])
		c.partitions[partition] = entries
	}

	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	entries[key] = e
}

// Clear removes the given keys from partition, or the whole partition when
// no key is given.
func (c *TTLCache[V]) Clear(partition string, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(keys) == 0 {
		delete(c.partitions, partition)
		return
	}

	entries, ok := c.partitions[partition]
	if !ok {
		return
	}
	for _, key := range keys {
		delete(entries, key)
	}
	if len(entries) == 0 {
		delete(c.partitions, partition)
	}
}

// Len counts the live entries of partition
func (c *TTLCache[V]) Len(partition string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for _, e := range c.partitions[partition] {
		if !e.expired(now) {
			n++
		}
	}
	return n
}
