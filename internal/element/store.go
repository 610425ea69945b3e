package element

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNotFound is returned when an id is not present in the store.
	ErrNotFound = errors.New("element not found")
	// ErrDuplicateID is returned when inserting an id that already exists.
	ErrDuplicateID = errors.New("duplicate element id")
)

// Store is the ordered working set of elements. Array position breaks
// zIndex ties for painting and hit testing.
type Store struct {
	items []Element
	// zHigh is the largest zIndex ever handed out or seen, so deleted
	// values are never reused.
	zHigh int
}

// NewStore creates a store that takes ownership of els.
func NewStore(els ...Element) *Store {
	s := &Store{}
	s.Replace(els)
	return s
}

// Len returns the number of elements.
func (s *Store) Len() int { return len(s.items) }

// All returns the elements in array order. The slice is a copy but the
// elements are shared with the store.
func (s *Store) All() []Element {
	return append([]Element(nil), s.items...)
}

// Get returns the element with id or nil.
func (s *Store) Get(id string) Element {
	if i := s.Index(id); i >= 0 {
		return s.items[i]
	}
	return nil
}

// Framed returns the framed element with id, or false if it is missing or
// a group.
func (s *Store) Framed(id string) (Framed, bool) {
	e := s.Get(id)
	if e == nil {
		return nil, false
	}
	return AsFramed(e)
}

// Index returns the array position of id or -1.
func (s *Store) Index(id string) int {
	if id == "" {
		return -1
	}
	for i, e := range s.items {
		if e.Base().ID == id {
			return i
		}
	}
	return -1
}

// NextZ returns the zIndex the next inserted element receives.
func (s *Store) NextZ() int {
	return s.zHigh + 1
}

// Insert appends e, assigning it a fresh zIndex and an id when missing.
func (s *Store) Insert(e Element) error {
	b := e.Base()
	if b.ID == "" {
		b.ID = NewID()
	}
	if s.Index(b.ID) >= 0 {
		return fmt.Errorf("insert %s: %w", b.ID, ErrDuplicateID)
	}
	b.ZIndex = s.NextZ()
	s.zHigh = b.ZIndex
	s.items = append(s.items, e)
	return nil
}

// Remove deletes id and detaches it from any group listing it.
func (s *Store) Remove(id string) (Element, error) {
	i := s.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	e := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	for _, other := range s.items {
		if g, ok := other.(*Group); ok {
			g.Children = removeString(g.Children, id)
		}
	}
	return e, nil
}

// Replace swaps the whole working set. The zIndex high-water mark only
// grows. An empty or nil els leaves an empty, non-nil set.
func (s *Store) Replace(els []Element) {
	s.items = append(make([]Element, 0, len(els)), els...)
	for _, e := range s.items {
		if z := e.Base().ZIndex; z > s.zHigh {
			s.zHigh = z
		}
	}
}

// Snapshot deep-copies the working set. The result is never nil, so an
// empty canvas is told apart from "no elements given".
func (s *Store) Snapshot() []Element {
	out := CloneAll(s.items)
	if out == nil {
		out = []Element{}
	}
	return out
}

// Ordered returns the elements in paint order: zIndex ascending, ties by
// array position.
func (s *Store) Ordered() []Element {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Base().ZIndex < out[j].Base().ZIndex
	})
	return out
}

// Reorder moves id one step forward (delta > 0) or backward (delta < 0) in
// paint order by swapping zIndex with its neighbour. It reports whether
// anything changed.
func (s *Store) Reorder(id string, delta int) (bool, error) {
	if s.Index(id) < 0 {
		return false, fmt.Errorf("reorder %s: %w", id, ErrNotFound)
	}
	ordered := s.Ordered()
	pos := -1
	for i, e := range ordered {
		if e.Base().ID == id {
			pos = i
			break
		}
	}
	target := pos + delta
	if delta == 0 || target < 0 || target >= len(ordered) {
		return false, nil
	}
	a, b := ordered[pos].Base(), ordered[target].Base()
	if a.ZIndex == b.ZIndex {
		// Ties are broken by array position, so swap slots instead.
		ia, ib := s.Index(a.ID), s.Index(b.ID)
		s.items[ia], s.items[ib] = s.items[ib], s.items[ia]
		return true, nil
	}
	a.ZIndex, b.ZIndex = b.ZIndex, a.ZIndex
	return true, nil
}

// GroupOf returns the group listing id, if any.
func (s *Store) GroupOf(id string) *Group {
	for _, e := range s.items {
		if g, ok := e.(*Group); ok {
			for _, c := range g.Children {
				if c == id {
					return g
				}
			}
		}
	}
	return nil
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
