// Package w8cache implements a weight based bounded cache. When the
// cache grows past its limit the entry with the least weight is evicted.
package w8cache

import (
	"container/heap"
	"sync"
)

// Entry entry of weight based cache.
type Entry[K comparable, V any] struct {
	Key    K
	Value  V
	Weight float64
}

// W8Cache weight based cache.
type W8Cache[K comparable, V any] struct {
	entryMap  map[K]*entry[K, V]
	entryHeap entryHeap[K, V]
	limit     int
	evicted   func(*Entry[K, V])
	mu        sync.Mutex
}

// New create a new W8Cache instance.
// evicted, when non-nil, is called with every entry pushed out over the
// limit or via PopWorst.
func New[K comparable, V any](limit int, evicted func(*Entry[K, V])) *W8Cache[K, V] {
	return &W8Cache[K, V]{
		entryMap: make(map[K]*entry[K, V]),
		limit:    limit,
		evicted:  evicted,
	}
}

// Get get value and weight for given key.
func (c *W8Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ent, ok := c.entryMap[key]; ok {
		return ent.Value, true
	}
	var zero V
	return zero, false
}

// Set set or update value and weight for given key.
func (c *W8Cache[K, V]) Set(key K, value V, weight float64) {
	c.mu.Lock()
	evicted := c.set(key, value, weight)
	c.mu.Unlock()

	if evicted != nil && c.evicted != nil {
		c.evicted(evicted)
	}
}

func (c *W8Cache[K, V]) set(key K, value V, weight float64) *Entry[K, V] {
	if ent, ok := c.entryMap[key]; ok {
		ent.Value = value
		ent.Weight = weight
		heap.Fix(&c.entryHeap, ent.index)
		return nil
	}

	newEntry := &entry[K, V]{
		Entry: Entry[K, V]{
			Key:    key,
			Value:  value,
			Weight: weight,
		},
	}
	heap.Push(&c.entryHeap, newEntry)
	c.entryMap[key] = newEntry
	if len(c.entryHeap) > c.limit {
		return c.popWorst()
	}
	return nil
}

// Remove remove the given key.
func (c *W8Cache[K, V]) Remove(key K) *Entry[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entryMap[key]; ok {
		delete(c.entryMap, key)
		heap.Remove(&c.entryHeap, ent.index)
		return &ent.Entry
	}
	return nil
}

// PopWorst pop the least weight entry.
func (c *W8Cache[K, V]) PopWorst() *Entry[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popWorst()
}

func (c *W8Cache[K, V]) popWorst() *Entry[K, V] {
	if len(c.entryHeap) == 0 {
		return nil
	}
	popped := heap.Pop(&c.entryHeap).(*entry[K, V])
	delete(c.entryMap, popped.Key)
	return &popped.Entry
}

// Count returns count of value.
func (c *W8Cache[K, V]) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entryHeap)
}

// All dumps all entries.
func (c *W8Cache[K, V]) All() []*Entry[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := make([]*Entry[K, V], 0, len(c.entryHeap))
	for _, ent := range c.entryHeap {
		cpy := ent.Entry
		all = append(all, &cpy)
	}
	return all
}

type entry[K comparable, V any] struct {
	Entry[K, V]
	index int
}

type entryHeap[K comparable, V any] []*entry[K, V]

func (h entryHeap[K, V]) Len() int           { return len(h) }
func (h entryHeap[K, V]) Less(i, j int) bool { return h[i].Weight < h[j].Weight }
func (h entryHeap[K, V]) Swap(i, j int) {
	h[i].index = j
	h[j].index = i
	h[i], h[j] = h[j], h[i]
}

func (h *entryHeap[K, V]) Push(value any) {
	ent := value.(*entry[K, V])
	ent.index = len(*h)
	*h = append(*h, ent)
}

func (h *entryHeap[K, V]) Pop() any {
	n := len(*h)
	ent := (*h)[n-1]
	ent.index = -1
	*h = (*h)[:n-1]
	return ent
}
