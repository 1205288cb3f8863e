package host

import (
	"reflect"
	"slices"

	"github.com/wippyai/script-bridge/errors"
)

// ItemSet is an ordered list of items without duplicates. Scripts see it as
// an array. Storing an item that is already present elsewhere in the set
// leaves the set unchanged, and growing the length without storing an item
// has no effect.
type ItemSet struct {
	items []*Item
	index map[*Item]int
}

// NewItemSet creates a set holding items, skipping duplicates.
func NewItemSet(items ...*Item) *ItemSet {
	s := &ItemSet{index: make(map[*Item]int, len(items))}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add appends it unless it is nil or already present.
func (s *ItemSet) Add(it *Item) bool {
	if it == nil || s.Contains(it) {
		return false
	}
	s.index[it] = len(s.items)
	s.items = append(s.items, it)
	return true
}

// Contains reports whether it is in the set.
func (s *ItemSet) Contains(it *Item) bool {
	_, ok := s.index[it]
	return ok
}

// Remove deletes it from the set, keeping the order of the rest.
func (s *ItemSet) Remove(it *Item) bool {
	i, ok := s.index[it]
	if !ok {
		return false
	}
	delete(s.index, it)
	s.items = slices.Delete(s.items, i, i+1)
	s.reindex(i)
	return true
}

// Items returns a copy of the items in order.
func (s *ItemSet) Items() []*Item { return slices.Clone(s.items) }

func (s *ItemSet) Len() int { return len(s.items) }

func (s *ItemSet) ElemType() reflect.Type { return itemPtrType }

func (s *ItemSet) Index(i int) (any, error) {
	if i < 0 || i >= len(s.items) {
		return nil, errors.OutOfBounds(errors.PhaseHost, []string{"items"}, i, len(s.items))
	}
	return s.items[i], nil
}

// SetIndex replaces the item at i, or appends when i equals the length.
func (s *ItemSet) SetIndex(i int, v any) error {
	it, ok := v.(*Item)
	if !ok || it == nil {
		return errors.NullValueRejected(errors.PhaseHost, []string{"items"}, "*host.Item")
	}
	if i < 0 || i > len(s.items) {
		return errors.OutOfBounds(errors.PhaseHost, []string{"items"}, i, len(s.items))
	}
	if s.Contains(it) {
		return nil
	}
	if i == len(s.items) {
		s.Add(it)
		return nil
	}
	delete(s.index, s.items[i])
	s.items[i] = it
	s.index[it] = i
	return nil
}

// SetLen truncates the set. Larger lengths are ignored.
func (s *ItemSet) SetLen(n int) error {
	if n < 0 {
		return errors.OutOfBounds(errors.PhaseHost, []string{"items"}, n, len(s.items))
	}
	if n >= len(s.items) {
		return nil
	}
	for _, it := range s.items[n:] {
		delete(s.index, it)
	}
	s.items = s.items[:n]
	return nil
}

func (s *ItemSet) reindex(from int) {
	for i := from; i < len(s.items); i++ {
		s.index[s.items[i]] = i
	}
}

var itemPtrType = reflect.TypeFor[*Item]()
