// Package lru implements a small bounded least-recently-used set, used by
// alns.Engine as the accepted-fingerprint duplicate filter (spec.md §4.5).
// spec.md explicitly permits a wholesale clear at capacity since the set is
// only a duplicate filter, not correctness state; an LRU eviction is
// strictly better (no duplicate-dedup capability is ever lost with a
// wholesale reset) while upholding the same 25,000-entry memory bound, so
// that is what this package implements (see DESIGN.md decision 2).
package lru

import "container/list"

// Set is a fixed-capacity LRU set of uint64 values.
type Set struct {
	capacity int
	order    *list.List               // front = most recently used
	index    map[uint64]*list.Element // value -> its node in order
}

// New returns an empty Set bounded at capacity entries. A non-positive
// capacity is treated as 1.
func New(capacity int) *Set {
	if capacity < 1 {
		capacity = 1
	}
	return &Set{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[uint64]*list.Element, capacity),
	}
}

// Contains reports whether v is currently in the set, without affecting
// recency.
func (s *Set) Contains(v uint64) bool {
	_, ok := s.index[v]
	return ok
}

// Insert adds v to the set, marking it most-recently-used. If v is already
// present, it is only refreshed to most-recently-used. If inserting a new
// value exceeds capacity, the least-recently-used entry is evicted.
func (s *Set) Insert(v uint64) {
	if el, ok := s.index[v]; ok {
		s.order.MoveToFront(el)
		return
	}
	el := s.order.PushFront(v)
	s.index[v] = el
	if s.order.Len() > s.capacity {
		oldest := s.order.Back()
		if oldest != nil {
			s.order.Remove(oldest)
			delete(s.index, oldest.Value.(uint64))
		}
	}
}

// Len returns the current number of entries.
func (s *Set) Len() int { return s.order.Len() }
