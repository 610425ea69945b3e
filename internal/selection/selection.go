// Package selection tracks which elements are selected. Selection is UI
// state: it is never captured by history snapshots.
package selection

// Set is an insertion-ordered set of element ids.
type Set struct {
	ids []string
}

// Select replaces the selection with id, or toggles id when additive is set.
// An empty id with additive unset clears the selection.
func (s *Set) Select(id string, additive bool) {
	if !additive {
		s.ids = s.ids[:0]
		if id != "" {
			s.ids = append(s.ids, id)
		}
		return
	}
	if id == "" {
		return
	}
	if i := s.index(id); i >= 0 {
		s.ids = append(s.ids[:i], s.ids[i+1:]...)
		return
	}
	s.ids = append(s.ids, id)
}

// Add selects every id not already selected, keeping order.
func (s *Set) Add(ids ...string) {
	for _, id := range ids {
		if id != "" && s.index(id) < 0 {
			s.ids = append(s.ids, id)
		}
	}
}

// Clear empties the selection.
func (s *Set) Clear() { s.ids = s.ids[:0] }

// Current returns the selected ids in selection order.
func (s *Set) Current() []string {
	return append([]string(nil), s.ids...)
}

// Len is the number of selected ids.
func (s *Set) Len() int { return len(s.ids) }

// Single returns the id when exactly one element is selected.
func (s *Set) Single() (string, bool) {
	if len(s.ids) != 1 {
		return "", false
	}
	return s.ids[0], true
}

// Contains reports whether id is selected.
func (s *Set) Contains(id string) bool { return s.index(id) >= 0 }

// Prune drops ids for which keep returns false, e.g. after a delete or an
// undo removed them from the store.
func (s *Set) Prune(keep func(id string) bool) {
	out := s.ids[:0]
	for _, id := range s.ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	s.ids = out
}

func (s *Set) index(id string) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}
