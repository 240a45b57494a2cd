package realtime

import "fulfillment/internal/core/domain/model/kernel"

// versionCache remembers the last published version per delivery. It holds at
// most capacity entries and evicts in insertion order.
type versionCache struct {
	capacity int
	last     map[kernel.UUID]uint64
	order    []kernel.UUID
	head     int
}

func newVersionCache(capacity int) *versionCache {
	return &versionCache{
		capacity: capacity,
		last:     make(map[kernel.UUID]uint64, capacity),
		order:    make([]kernel.UUID, 0, capacity),
	}
}

func (c *versionCache) get(id kernel.UUID) (uint64, bool) {
	v, ok := c.last[id]
	return v, ok
}

func (c *versionCache) put(id kernel.UUID, version uint64) {
	if _, ok := c.last[id]; ok {
		c.last[id] = version
		return
	}
	if len(c.order) < c.capacity {
		c.order = append(c.order, id)
	} else {
		delete(c.last, c.order[c.head])
		c.order[c.head] = id
		c.head = (c.head + 1) % c.capacity
	}
	c.last[id] = version
}

func (c *versionCache) len() int {
	return len(c.last)
}
