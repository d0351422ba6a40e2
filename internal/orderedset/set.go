// Package orderedset provides a sorted container whose tie-break behaviour
// is chosen per operation.
//
// Elements are ordered by a base comparator. A separate equality predicate
// decides whether two elements the comparator ties are the same element or
// two distinct elements that merely share a sort key. Each mutating or
// querying call names a Mode that says how such ties are treated, so the
// set carries no hidden "current mode" between calls.
package orderedset

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Mode selects how an operation treats elements the comparator ties.
type Mode int

const (
	// Restricted defers fully to the comparator and equality predicate:
	// a tie under either one is the same element.
	Restricted Mode = iota
	// Free ignores tie-break order. Inserts land before existing ties and
	// queries match any tied element.
	Free
	// NewFirst keeps tied but unequal elements, placing the new one before
	// the existing run.
	NewFirst
	// OldFirst keeps tied but unequal elements, placing the new one after
	// the existing run, so ties keep arrival order.
	OldFirst
)

func (m Mode) String() string {
	switch m {
	case Restricted:
		return "restricted"
	case Free:
		return "free"
	case NewFirst:
		return "new-first"
	case OldFirst:
		return "old-first"
	}
	return "unknown"
}

// Set is a sorted sequence of T. The zero value is not usable, create one
// with New or NewOrdered. A Set is not safe for concurrent mutation.
type Set[T any] struct {
	items []T
	cmp   func(a, b T) int
	eq    func(a, b T) bool
}

// New creates a set ordered by cmp. eq identifies elements that are the
// same even when ordering alone cannot tell; pass Distinct when every
// element is its own occurrence.
func New[T any](cmp func(a, b T) int, eq func(a, b T) bool) *Set[T] {
	if eq == nil {
		eq = Distinct[T]
	}
	return &Set[T]{cmp: cmp, eq: eq}
}

// NewOrdered creates a set of naturally ordered values where equal values
// are the same element.
func NewOrdered[T constraints.Ordered]() *Set[T] {
	return New(Compare[T], func(a, b T) bool { return a == b })
}

// Compare orders naturally ordered values.
func Compare[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Distinct is an equality predicate under which no two elements are equal.
func Distinct[T any](a, b T) bool { return false }

func (s *Set[T]) Len() int { return len(s.items) }

// At returns the element at index i.
func (s *Set[T]) At(i int) T { return s.items[i] }

// Items returns a copy of the elements in order.
func (s *Set[T]) Items() []T { return slices.Clone(s.items) }

// All calls fn for each element in order until fn returns false.
func (s *Set[T]) All(fn func(i int, item T) bool) {
	for i, item := range s.items {
		if !fn(i, item) {
			return
		}
	}
}

// Slice returns a copy of the elements in [i, j).
func (s *Set[T]) Slice(i, j int) []T { return slices.Clone(s.items[i:j]) }

func (s *Set[T]) Clear() { s.items = s.items[:0] }

// Search returns the smallest index whose element satisfies pred, or Len
// if none does. pred must be false then true along the order.
func (s *Set[T]) Search(pred func(T) bool) int {
	lo, hi := 0, len(s.items)
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		if pred(s.items[m]) {
			hi = m
		} else {
			lo = m + 1
		}
	}
	return lo
}

// Range returns the half-open index range of elements the comparator ties
// with item.
func (s *Set[T]) Range(item T) (lo, hi int) {
	lo, _ = slices.BinarySearchFunc(s.items, item, s.cmp)
	hi = lo
	for hi < len(s.items) && s.cmp(s.items[hi], item) == 0 {
		hi++
	}
	return lo, hi
}

// matches reports whether the stored element x identifies item under mode.
func (s *Set[T]) matches(x, item T, mode Mode) bool {
	switch mode {
	case Restricted, Free:
		return s.eq(x, item) || s.cmp(x, item) == 0
	}
	return s.eq(x, item)
}

// find returns the index of the first element in item's tie run that
// identifies item under mode, or -1.
func (s *Set[T]) find(item T, mode Mode) int {
	lo, hi := s.Range(item)
	for i := lo; i < hi; i++ {
		if s.matches(s.items[i], item, mode) {
			return i
		}
	}
	return -1
}

// Add inserts item and returns its index. If an element already identifies
// item under mode, nothing is inserted and the existing index is returned
// with added false.
func (s *Set[T]) Add(item T, mode Mode) (index int, added bool) {
	lo, hi := s.Range(item)
	for i := lo; i < hi; i++ {
		if mode == Restricted || s.eq(s.items[i], item) {
			return i, false
		}
	}
	index = lo
	if mode == OldFirst {
		index = hi
	}
	s.items = slices.Insert(s.items, index, item)
	return index, true
}

// Upsert replaces the element identifying item under Restricted rules, or
// inserts item when there is none.
func (s *Set[T]) Upsert(item T) int {
	if i := s.find(item, Restricted); i >= 0 {
		s.items[i] = item
		return i
	}
	i, _ := s.Add(item, Restricted)
	return i
}

// Index returns the index of the element identifying item under mode, or -1.
func (s *Set[T]) Index(item T, mode Mode) int { return s.find(item, mode) }

func (s *Set[T]) Contains(item T, mode Mode) bool { return s.find(item, mode) >= 0 }

// Remove deletes the first element identifying item under mode.
func (s *Set[T]) Remove(item T, mode Mode) bool {
	i := s.find(item, mode)
	if i < 0 {
		return false
	}
	s.RemoveAt(i)
	return true
}

// RemoveAt deletes the element at index i.
func (s *Set[T]) RemoveAt(i int) T {
	item := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	return item
}

// ReplaceAt overwrites index i with an element the comparator ties with the
// current one. It panics if the replacement would break the order.
func (s *Set[T]) ReplaceAt(i int, item T) {
	if s.cmp(s.items[i], item) != 0 {
		panic("orderedset: ReplaceAt changes sort key")
	}
	s.items[i] = item
}

// UnionWith merges items into the set in one ordered pass. items are
// stable-sorted first, so ties among them keep their input order.
func (s *Set[T]) UnionWith(items []T, mode Mode) {
	if len(items) == 0 {
		return
	}
	batch := slices.Clone(items)
	slices.SortStableFunc(batch, s.cmp)

	merged := make([]T, 0, len(s.items)+len(batch))
	i := 0
	for _, item := range batch {
		for i < len(s.items) {
			c := s.cmp(s.items[i], item)
			if c > 0 || (c == 0 && mode != OldFirst) {
				break
			}
			merged = append(merged, s.items[i])
			i++
		}
		if s.collides(merged, s.items[i:], item, mode) {
			continue
		}
		merged = append(merged, item)
	}
	s.items = append(merged, s.items[i:]...)
}

// collides checks item against the tie run at the end of before and the
// start of after.
func (s *Set[T]) collides(before, after []T, item T, mode Mode) bool {
	for j := len(before) - 1; j >= 0 && s.cmp(before[j], item) == 0; j-- {
		if mode == Restricted || s.eq(before[j], item) {
			return true
		}
	}
	for j := 0; j < len(after) && s.cmp(after[j], item) == 0; j++ {
		if mode == Restricted || s.eq(after[j], item) {
			return true
		}
	}
	return false
}

// ExceptWith removes every element identifying one of items.
func (s *Set[T]) ExceptWith(items []T, mode Mode) {
	for _, item := range items {
		s.Remove(item, mode)
	}
}

// IntersectWith keeps only elements identifying one of items.
func (s *Set[T]) IntersectWith(items []T, mode Mode) {
	other := s.sorted(items)
	kept := s.items[:0]
	for _, x := range s.items {
		if other.Contains(x, mode) {
			kept = append(kept, x)
		}
	}
	s.items = kept
}

// SymmetricExceptWith keeps elements found in exactly one of the set and
// items.
func (s *Set[T]) SymmetricExceptWith(items []T, mode Mode) {
	var add []T
	for _, item := range items {
		if !s.Remove(item, mode) {
			add = append(add, item)
		}
	}
	s.UnionWith(add, mode)
}

func (s *Set[T]) sorted(items []T) *Set[T] {
	other := &Set[T]{items: slices.Clone(items), cmp: s.cmp, eq: s.eq}
	slices.SortStableFunc(other.items, s.cmp)
	return other
}

// containedIn counts how many of the set's elements are found in other.
func (s *Set[T]) containedIn(other *Set[T]) int {
	n := 0
	for _, x := range s.items {
		if other.Contains(x, Free) {
			n++
		}
	}
	return n
}

// IsSubsetOf reports whether every element is found in items.
func (s *Set[T]) IsSubsetOf(items []T) bool {
	return s.containedIn(s.sorted(items)) == len(s.items)
}

// IsSupersetOf reports whether every one of items is found in the set.
func (s *Set[T]) IsSupersetOf(items []T) bool {
	for _, item := range items {
		if !s.Contains(item, Free) {
			return false
		}
	}
	return true
}

func (s *Set[T]) IsProperSubsetOf(items []T) bool {
	other := s.sorted(items)
	return s.containedIn(other) == len(s.items) && !other.IsSubsetOf(s.items)
}

func (s *Set[T]) IsProperSupersetOf(items []T) bool {
	return s.IsSupersetOf(items) && !s.IsSubsetOf(items)
}

// Overlaps reports whether any of items is found in the set.
func (s *Set[T]) Overlaps(items []T) bool {
	for _, item := range items {
		if s.Contains(item, Free) {
			return true
		}
	}
	return false
}

func (s *Set[T]) SetEquals(items []T) bool {
	return s.IsSubsetOf(items) && s.IsSupersetOf(items)
}
