// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stackedmap implements a journaled key/value overlay with
// save-revert semantics over a read-only source.
package stackedmap

// Reader supplies values missing from every level of the stack.
type Reader[K comparable, V any] func(key K) (value V, exist bool, err error)

// StackedMap maintains maps in a stack.
// Each level inherits the key/value pairs of the levels below it; popping
// a level reverts every Put since the matching Push.
type StackedMap[K comparable, V any] struct {
	src     Reader[K, V]
	levels  []*level[K, V]
	keyRevs map[K][]int
}

type level[K comparable, V any] struct {
	kvs     map[K]V
	journal []journalEntry[K, V]
}

type journalEntry[K comparable, V any] struct {
	key   K
	value V
}

// New creates a StackedMap with src as the data source.
// The returned map carries one base level, so Put works right away.
func New[K comparable, V any](src Reader[K, V]) *StackedMap[K, V] {
	sm := &StackedMap[K, V]{
		src:     src,
		keyRevs: make(map[K][]int),
	}
	sm.Push()
	return sm
}

// Depth returns the stack depth.
func (sm *StackedMap[K, V]) Depth() int {
	return len(sm.levels)
}

// Push pushes an empty level on the stack.
// It returns the stack depth before the push.
func (sm *StackedMap[K, V]) Push() int {
	sm.levels = append(sm.levels, &level[K, V]{kvs: make(map[K]V)})
	return len(sm.levels) - 1
}

// Pop drops the level at the top of the stack, reverting all Put
// operations since the matching Push.
func (sm *StackedMap[K, V]) Pop() {
	top := sm.levels[len(sm.levels)-1]
	for key := range top.kvs {
		revs := sm.keyRevs[key][:len(sm.keyRevs[key])-1]
		if len(revs) == 0 {
			delete(sm.keyRevs, key)
		} else {
			sm.keyRevs[key] = revs
		}
	}
	sm.levels = sm.levels[:len(sm.levels)-1]
}

// PopTo pops levels until the stack depth reaches depth.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

// Get looks the key up in the overlay, falling back to the source when no
// level holds it.
func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if revs, ok := sm.keyRevs[key]; ok {
		if v, ok := sm.levels[revs[len(revs)-1]].kvs[key]; ok {
			return v, true, nil
		}
	}
	return sm.src(key)
}

// Put writes the key/value pair into the level at the top of the stack.
// It panics when the stack is empty.
func (sm *StackedMap[K, V]) Put(key K, value V) {
	top := sm.levels[len(sm.levels)-1]
	top.kvs[key] = value
	top.journal = append(top.journal, journalEntry[K, V]{key, value})

	// record the key revision for fast access, once per level
	rev := len(sm.levels) - 1
	if revs, ok := sm.keyRevs[key]; ok {
		if revs[len(revs)-1] != rev {
			sm.keyRevs[key] = append(revs, rev)
		}
	} else {
		sm.keyRevs[key] = []int{rev}
	}
}

// Journal traverses all Put operations in order.
// The traversal aborts as soon as cb returns false.
func (sm *StackedMap[K, V]) Journal(cb func(key K, value V) bool) {
	for _, lvl := range sm.levels {
		for _, e := range lvl.journal {
			if !cb(e.key, e.value) {
				return
			}
		}
	}
}
