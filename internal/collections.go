package internal

import (
	"sort"
)

// Set is a generic collection of unique items backed by a map.
type Set[T comparable] struct {
	items map[T]struct{}
}

// NewSet creates and returns a new empty Set.
func NewSet[T comparable]() *Set[T] {
	return &Set[T]{
		items: make(map[T]struct{}),
	}
}

// Add inserts an item into the set. Adding an existing item has no effect.
func (s *Set[T]) Add(item T) {
	s.items[item] = struct{}{}
}

// Contains checks if an item exists in the set.
func (s *Set[T]) Contains(item T) bool {
	_, exists := s.items[item]
	return exists
}

// Size returns the number of items in the set.
func (s *Set[T]) Size() int {
	return len(s.items)
}

// multisetEqual reports whether two slices contain the same elements with the
// same multiplicities, regardless of order. Used to verify that a reorder is
// a true permutation: dropping or duplicating an element is a defect.
func multisetEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[T]int, len(a))
	for _, item := range a {
		counts[item]++
	}
	for _, item := range b {
		counts[item]--
		if counts[item] < 0 {
			return false
		}
	}
	return true
}

// sortedKeys returns the keys of m in ascending order for deterministic
// iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
