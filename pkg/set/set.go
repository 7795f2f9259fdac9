package set

import (
	"iter"
	"slices"
)

// Set is a set that remembers insertion order. The zero value is ready to use.
type Set[T comparable] struct {
	index map[T]int
	items []T
}

func New[T comparable](items ...T) *Set[T] {
	s := &Set[T]{}
	s.Add(items...)
	return s
}

// Add appends items not already present
func (s *Set[T]) Add(items ...T) {
	if s.index == nil {
		s.index = make(map[T]int, len(items))
	}
	for _, item := range items {
		if _, ok := s.index[item]; ok {
			continue
		}
		s.index[item] = len(s.items)
		s.items = append(s.items, item)
	}
}

// Remove removes an item, keeping the order of the rest
func (s *Set[T]) Remove(item T) bool {
	i, ok := s.index[item]
	if !ok {
		return false
	}
	delete(s.index, item)
	s.items = slices.Delete(s.items, i, i+1)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

// Contains checks if an item exists in the set
func (s *Set[T]) Contains(item T) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[item]
	return ok
}

// Size returns the number of items in the set
func (s *Set[T]) Size() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items yields the items in insertion order.
func (s *Set[T]) Items() iter.Seq[T] {
	return func(yield func(T) bool) {
		if s == nil {
			return
		}
		for _, item := range s.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Slice returns a copy of the items in insertion order, safe to hold
// while the set is mutated.
func (s *Set[T]) Slice() []T {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}

// Equal reports whether both sets hold the same items, ignoring order.
func (s *Set[T]) Equal(other *Set[T]) bool {
	if s.Size() != other.Size() {
		return false
	}
	for item := range s.Items() {
		if !other.Contains(item) {
			return false
		}
	}
	return true
}

// Union returns a new set with the items of s followed by the new items of other
func (s *Set[T]) Union(other *Set[T]) *Set[T] {
	result := New(s.Slice()...)
	result.Add(other.Slice()...)
	return result
}

// Intersection returns a new set containing items present in both sets
func (s *Set[T]) Intersection(other *Set[T]) *Set[T] {
	result := &Set[T]{}
	for item := range s.Items() {
		if other.Contains(item) {
			result.Add(item)
		}
	}
	return result
}
