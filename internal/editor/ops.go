package editor

import (
	"fmt"

	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/history"
)

// Coalescing fields.
const (
	FieldContent = "content"
	FieldName    = "name"
)

// Add inserts a copy of el on top of the stack, selects it and records
// add_element. An empty ID is filled in on el so the caller can find the copy.
func (e *Editor) Add(el element.Element) error {
	if b := el.Base(); b.ID == "" {
		b.ID = element.NewID()
	}
	el = el.Clone()
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	g, isGroup := el.(*element.Group)
	if isGroup {
		if _, err := element.NewGroup(e.store, g.Name, g.Children); err != nil {
			return fmt.Errorf("add group: %w", err)
		}
	}
	if err := e.store.Insert(el); err != nil {
		return err
	}
	if isGroup {
		for _, c := range g.Children {
			e.store.Get(c).Base().GroupID = g.ID
		}
	}
	e.sel.Select(el.Base().ID, false)
	e.commitLocked(history.OpAddElement)
	return nil
}

// Delete removes ids, or the selection when ids is empty, as one step.
// Deleting a group leaves its children in place.
func (e *Editor) Delete(ids ...string) error {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(ids) == 0 {
		ids = e.sel.Current()
	}
	if len(ids) == 0 {
		return ErrNoSelection
	}
	removed := 0
	for _, id := range ids {
		el, err := e.store.Remove(id)
		if err != nil {
			e.logf("delete: %v", err)
			continue
		}
		if g, ok := el.(*element.Group); ok {
			e.detachLocked(g)
		}
		removed++
	}
	if removed == 0 {
		return fmt.Errorf("delete: %w", element.ErrNotFound)
	}
	e.sel.Prune(func(id string) bool { return e.store.Get(id) != nil })
	e.commitLocked(history.OpDeleteElement)
	return nil
}

func (e *Editor) detachLocked(g *element.Group) {
	for _, c := range g.Children {
		if el := e.store.Get(c); el != nil && el.Base().GroupID == g.ID {
			el.Base().GroupID = ""
		}
	}
}

// Update applies fn to the live element and records update_element. The id
// cannot be changed by fn.
func (e *Editor) Update(id string, fn func(element.Element)) error {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	el := e.store.Get(id)
	if el == nil {
		return fmt.Errorf("update %s: %w", id, element.ErrNotFound)
	}
	fn(el)
	el.Base().ID = id
	e.commitLocked(history.OpUpdateElement)
	return nil
}

// SetText changes the literal content of a text element, or the placeholder
// of a label, immediately. The history entry is written once typing pauses.
func (e *Editor) SetText(id, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch el := e.store.Get(id).(type) {
	case *element.Text:
		el.Content = content
	case *element.Label:
		el.Placeholder = content
	case nil:
		return fmt.Errorf("set text %s: %w", id, element.ErrNotFound)
	default:
		return fmt.Errorf("set text %s: %s elements have no text", id, el.Kind())
	}
	e.debounceLocked(id, FieldContent, history.OpUpdateText)
	return nil
}

// Rename changes a layer name immediately and commits once edits pause.
func (e *Editor) Rename(id, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	el := e.store.Get(id)
	if el == nil {
		return fmt.Errorf("rename %s: %w", id, element.ErrNotFound)
	}
	el.Base().Name = name
	e.debounceLocked(id, FieldName, history.OpRenameLayer)
	return nil
}

func (e *Editor) debounceLocked(id, field string, op history.Op) {
	e.coal.Schedule(history.Key{ElementID: id, Field: field}, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.commitLocked(op)
	})
}

// ToggleVisibility flips an element's visibility. A group carries its
// children along.
func (e *Editor) ToggleVisibility(id string) error {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	el := e.store.Get(id)
	if el == nil {
		return fmt.Errorf("toggle %s: %w", id, element.ErrNotFound)
	}
	v := !el.Base().Visible
	el.Base().Visible = v
	if g, ok := el.(*element.Group); ok {
		for _, c := range g.Children {
			if ch := e.store.Get(c); ch != nil {
				ch.Base().Visible = v
			}
		}
	}
	e.commitLocked(history.OpToggleVisibility)
	return nil
}

// Reorder moves id one step up (delta > 0) or down in paint order. Nothing
// is recorded when it is already at the end.
func (e *Editor) Reorder(id string, delta int) (bool, error) {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	changed, err := e.store.Reorder(id, delta)
	if err != nil || !changed {
		return false, err
	}
	e.commitLocked(history.OpReorderLayer)
	return true, nil
}

// Group wraps the selected elements in a new group and selects it.
func (e *Editor) Group(name string) (string, error) {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	for _, id := range e.sel.Current() {
		if el := e.store.Get(id); el != nil && el.Kind() != element.KindGroup {
			ids = append(ids, id)
		}
	}
	if len(ids) < 2 {
		return "", fmt.Errorf("group: %w", ErrNoSelection)
	}
	if name == "" {
		name = fmt.Sprintf("Group %d", e.countGroupsLocked()+1)
	}
	g, err := element.NewGroup(e.store, name, ids)
	if err != nil {
		return "", err
	}
	if err := e.store.Insert(g); err != nil {
		return "", err
	}
	for _, id := range ids {
		e.store.Get(id).Base().GroupID = g.ID
	}
	e.sel.Select(g.ID, false)
	e.commitLocked(history.OpGroup)
	return g.ID, nil
}

func (e *Editor) countGroupsLocked() int {
	n := 0
	for _, el := range e.store.All() {
		if el.Kind() == element.KindGroup {
			n++
		}
	}
	return n
}

// Ungroup removes group id and selects its former children.
func (e *Editor) Ungroup(id string) error {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	el := e.store.Get(id)
	if el == nil {
		return fmt.Errorf("ungroup %s: %w", id, element.ErrNotFound)
	}
	g, ok := el.(*element.Group)
	if !ok {
		return fmt.Errorf("ungroup %s: %s is not a group", id, el.Kind())
	}
	children := append([]string(nil), g.Children...)
	e.detachLocked(g)
	if _, err := e.store.Remove(id); err != nil {
		return err
	}
	e.sel.Clear()
	for _, c := range children {
		if e.store.Get(c) != nil {
			e.sel.Add(c)
		}
	}
	e.commitLocked(history.OpUngroup)
	return nil
}

// Nudge shifts every selected framed element by (dx, dy) as one step.
// Selected groups move their children.
func (e *Editor) Nudge(dx, dy float64) error {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	moved := map[string]bool{}
	n := 0
	var move func(id string)
	move = func(id string) {
		if moved[id] {
			return
		}
		moved[id] = true
		switch el := e.store.Get(id).(type) {
		case *element.Group:
			for _, c := range el.Children {
				move(c)
			}
		case element.Framed:
			g := el.Geometry()
			g.X += dx
			g.Y += dy
			n++
		}
	}
	for _, id := range e.sel.Current() {
		move(id)
	}
	if n == 0 {
		return ErrNoSelection
	}
	e.commitLocked(history.OpNudge)
	return nil
}
