package editor

import (
	"sort"
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/example/labelcanvas/internal/interaction"
)

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// ShortcutList is a helper to satisfy KeyboardShortcuts.
type ShortcutList []KeyShortcut

func (s ShortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// Nudge distances in canvas units.
const (
	nudgeStep      = 1
	nudgeStepLarge = 10
)

type keymap struct {
	actions map[string]func() bool
	keys    map[KeyShortcut]string
}

// Register binds name to fn and the given shortcuts, replacing any earlier
// binding of the same keys. fn reports whether a repaint is needed.
func (e *Editor) Register(name string, keys KeyboardShortcuts, fn func() bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registerLocked(name, keys, fn)
}

func (e *Editor) registerLocked(name string, keys KeyboardShortcuts, fn func() bool) {
	if e.keys.actions == nil {
		e.keys = keymap{actions: map[string]func() bool{}, keys: map[KeyShortcut]string{}}
	}
	e.keys.actions[name] = fn
	if keys != nil {
		for _, sc := range keys.KeyboardShortcuts() {
			e.keys.keys[sc] = name
		}
	}
}

// Action runs a registered action by name.
func (e *Editor) Action(name string) (bool, bool) {
	e.mu.Lock()
	fn, ok := e.keys.actions[name]
	e.mu.Unlock()
	if !ok {
		return false, false
	}
	return fn(), true
}

// Actions lists the registered action names.
func (e *Editor) Actions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.keys.actions))
	for n := range e.keys.actions {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Key dispatches a key press to its registered action.
func (e *Editor) Key(ev key.Event) bool {
	if ev.Direction != key.DirPress && ev.Direction != key.DirNone {
		return false
	}
	ks := KeyShortcut{Rune: unicode.ToLower(ev.Rune), Code: ev.Code, Modifiers: ev.Modifiers}
	e.mu.Lock()
	name, ok := e.keys.keys[ks]
	if !ok {
		// Code-only bindings match regardless of the rune the platform sent.
		name, ok = e.keys.keys[KeyShortcut{Code: ev.Code, Modifiers: ev.Modifiers}]
	}
	fn := e.keys.actions[name]
	e.mu.Unlock()
	if !ok || fn == nil {
		return false
	}
	return fn()
}

func (e *Editor) registerDefaults() {
	nudge := func(dx, dy float64) func() bool {
		return func() bool { return e.Nudge(dx, dy) == nil }
	}
	tool := func(t interaction.Tool) func() bool {
		return func() bool { e.SetTool(t); return true }
	}
	e.registerLocked("undo", ShortcutList{{Rune: 'z', Modifiers: key.ModControl}}, e.Undo)
	e.registerLocked("redo", ShortcutList{
		{Rune: 'z', Modifiers: key.ModControl | key.ModShift},
		{Rune: 'y', Modifiers: key.ModControl},
	}, e.Redo)
	e.registerLocked("delete", ShortcutList{{Code: key.CodeDeleteForward}, {Code: key.CodeDeleteBackspace}}, func() bool {
		return e.Delete() == nil
	})
	e.registerLocked("deselect", ShortcutList{{Code: key.CodeEscape}}, func() bool {
		return e.Select("", false) == nil
	})
	e.registerLocked("group", ShortcutList{{Rune: 'g', Modifiers: key.ModControl}}, func() bool {
		_, err := e.Group("")
		return err == nil
	})
	e.registerLocked("ungroup", ShortcutList{{Rune: 'g', Modifiers: key.ModControl | key.ModShift}}, func() bool {
		for _, id := range e.Selection() {
			if e.Ungroup(id) == nil {
				return true
			}
		}
		return false
	})
	e.registerLocked("left", ShortcutList{{Code: key.CodeLeftArrow}}, nudge(-nudgeStep, 0))
	e.registerLocked("right", ShortcutList{{Code: key.CodeRightArrow}}, nudge(nudgeStep, 0))
	e.registerLocked("up", ShortcutList{{Code: key.CodeUpArrow}}, nudge(0, -nudgeStep))
	e.registerLocked("down", ShortcutList{{Code: key.CodeDownArrow}}, nudge(0, nudgeStep))
	e.registerLocked("left10", ShortcutList{{Code: key.CodeLeftArrow, Modifiers: key.ModShift}}, nudge(-nudgeStepLarge, 0))
	e.registerLocked("right10", ShortcutList{{Code: key.CodeRightArrow, Modifiers: key.ModShift}}, nudge(nudgeStepLarge, 0))
	e.registerLocked("up10", ShortcutList{{Code: key.CodeUpArrow, Modifiers: key.ModShift}}, nudge(0, -nudgeStepLarge))
	e.registerLocked("down10", ShortcutList{{Code: key.CodeDownArrow, Modifiers: key.ModShift}}, nudge(0, nudgeStepLarge))
	e.registerLocked("cursor", ShortcutList{{Rune: 'v'}}, tool(interaction.ToolCursor))
	e.registerLocked("pan", ShortcutList{{Rune: 'h'}}, tool(interaction.ToolPan))
	e.registerLocked("text", ShortcutList{{Rune: 't'}}, tool(interaction.ToolText))
	e.registerLocked("label", ShortcutList{{Rune: 'l'}}, tool(interaction.ToolLabel))
	e.registerLocked("forward", ShortcutList{{Rune: ']'}}, func() bool { return e.reorderSelection(1) })
	e.registerLocked("backward", ShortcutList{{Rune: '['}}, func() bool { return e.reorderSelection(-1) })
}

func (e *Editor) reorderSelection(delta int) bool {
	changed := false
	for _, id := range e.Selection() {
		if ok, _ := e.Reorder(id, delta); ok {
			changed = true
		}
	}
	return changed
}
