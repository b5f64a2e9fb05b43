// Package tally provides insertion-ordered frequency counters that merge
// associatively, so sharded reductions match a single-pass reduction.
package tally

import (
	"encoding/json"
	"slices"
)

// Item is one counted key.
type Item struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Counter counts keys and remembers the order they were first seen.
// The zero value is ready to use.
type Counter struct {
	order  []string
	counts map[string]int
}

// New returns an empty counter.
func New() *Counter {
	return &Counter{}
}

// Add increments key by n. Non-positive n only registers the key.
func (c *Counter) Add(key string, n int) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
		c.counts[key] = 0
	}
	if n > 0 {
		c.counts[key] += n
	}
}

// Inc increments key by one.
func (c *Counter) Inc(key string) {
	c.Add(key, 1)
}

// Get returns the count of key, zero when absent.
func (c *Counter) Get(key string) int {
	return c.counts[key]
}

// Len is the number of distinct keys.
func (c *Counter) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Total is the sum of all counts.
func (c *Counter) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Merge adds every count of other into c. Keys new to c are appended in
// other's order.
func (c *Counter) Merge(other *Counter) {
	if other == nil {
		return
	}
	for _, key := range other.order {
		c.Add(key, other.counts[key])
	}
}

// Items returns the keys in first-seen order.
func (c *Counter) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, Item{Key: key, Count: c.counts[key]})
	}
	return out
}

// MostCommon returns the items sorted by count descending, ties in first-seen
// order. n <= 0 returns all of them.
func (c *Counter) MostCommon(n int) []Item {
	items := c.Items()
	slices.SortStableFunc(items, func(a, b Item) int {
		return b.Count - a.Count
	})
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	return items
}

// Equal reports whether both counters hold the same counts, ignoring order.
// A nil counter equals an empty one.
func (c *Counter) Equal(other *Counter) bool {
	if c == nil || other == nil {
		return c.Len() == other.Len()
	}
	if c.Len() != other.Len() {
		return false
	}
	for _, key := range c.order {
		n, ok := other.counts[key]
		if !ok || n != c.counts[key] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the counter as an ordered list of items.
func (c *Counter) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Items())
}
