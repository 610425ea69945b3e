package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/labelcanvas/internal/clipboard"
	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/editor"
	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/history"
	"github.com/example/labelcanvas/internal/interaction"
	"github.com/example/labelcanvas/internal/render"
	"github.com/example/labelcanvas/internal/storage"
)

// session is one scripted editor. The interactive prompt and background
// sockets both drive it one line at a time.
type session struct {
	r  *root
	ed *editor.Editor

	path string
	data render.Data

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	hookMu   sync.Mutex
	store    *storage.Store
	autosave func(history.State)
}

func newSession(r *root) *session {
	s := &session{r: r, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	opts := r.editorOptions()
	opts.OnCommit = s.onCommit
	s.ed = editor.New(r.newDocument(), opts)
	return s
}

func (s *session) onCommit(st history.State) {
	s.hookMu.Lock()
	hook := s.autosave
	s.hookMu.Unlock()
	if hook != nil {
		hook(st)
	}
}

// withIO swaps the session streams and returns a func restoring them. Nil
// arguments keep the current stream.
func (s *session) withIO(in io.Reader, out, errW io.Writer) func() {
	prevIn, prevOut, prevErr := s.stdin, s.stdout, s.stderr
	if in != nil {
		s.stdin = in
	}
	if out != nil {
		s.stdout = out
	}
	if errW != nil {
		s.stderr = errW
	}
	return func() {
		s.stdin, s.stdout, s.stderr = prevIn, prevOut, prevErr
	}
}

// close releases the autosave store, committing pending edits first.
func (s *session) close() {
	s.ed.Flush()
	s.hookMu.Lock()
	store := s.store
	s.store, s.autosave = nil, nil
	s.hookMu.Unlock()
	if store != nil {
		closeWithLog("autosave", store)
	}
}

// run reads commands from stdin until exit or EOF.
func (s *session) run() error {
	defer s.close()
	if err := writeln(s.stdout, "Enter commands (type 'help' for a list, 'exit' to quit)"); err != nil {
		return err
	}
	scanner := bufio.NewScanner(s.stdin)
	for {
		fmt.Fprint(s.stdout, "> ")
		if !scanner.Scan() {
			break
		}
		done, err := s.executeLine(scanner.Text())
		if err != nil {
			fmt.Fprintln(s.stderr, err)
		}
		if done {
			break
		}
	}
	return scanner.Err()
}

type sessionCommand struct {
	usage string
	help  string
	run   func(s *session, args []string) error
}

var errExit = errors.New("exit")

var sessionCommands map[string]sessionCommand

func init() {
	sessionCommands = map[string]sessionCommand{
		"help":      {"help", "list commands", (*session).cmdHelp},
		"exit":      {"exit", "leave the session", func(*session, []string) error { return errExit }},
		"quit":      {"quit", "leave the session", func(*session, []string) error { return errExit }},
		"new":       {"new", "start an empty canvas (undoable)", (*session).cmdNew},
		"open":      {"open <file>", "load a JSON or YAML template (undoable)", (*session).cmdOpen},
		"save":      {"save [file]", "write the template", (*session).cmdSave},
		"export":    {"export <file.png> [grid]", "render to PNG", (*session).cmdExport},
		"data":      {"data <file.json>", "load sample data for labels", (*session).cmdData},
		"autosave":  {"autosave <name>|off", "autosave every change under name", (*session).cmdAutosave},
		"add":       {"add text|label|media|signature ...", "add an element", (*session).cmdAdd},
		"list":      {"list", "list elements in paint order", (*session).cmdList},
		"show":      {"show <id>", "print one element", (*session).cmdShow},
		"select":    {"select <id>... | none", "replace the selection", (*session).cmdSelect},
		"selection": {"selection", "print the selection", (*session).cmdSelection},
		"delete":    {"delete [id]...", "delete ids or the selection", (*session).cmdDelete},
		"tool":      {"tool cursor|pan|text|label", "switch tools", (*session).cmdTool},
		"down":      {"down <x> <y> [shift]", "pointer press", (*session).cmdDown},
		"move":      {"move <x> <y>", "pointer move", (*session).cmdMove},
		"up":        {"up", "pointer release", (*session).cmdUp},
		"leave":     {"leave", "pointer leaves the canvas", (*session).cmdLeave},
		"zoom":      {"zoom <scale> [x y]", "zoom about a screen point", (*session).cmdZoom},
		"nudge":     {"nudge <dx> <dy>", "move the selection", (*session).cmdNudge},
		"text":      {"text <id> <content...>", "set text (committed when typing pauses)", (*session).cmdText},
		"rename":    {"rename <id> <name...>", "rename a layer (committed when typing pauses)", (*session).cmdRename},
		"flush":     {"flush", "commit pending text and rename edits now", (*session).cmdFlush},
		"toggle":    {"toggle <id>", "toggle visibility", (*session).cmdToggle},
		"forward":   {"forward <id>", "bring one step forward", (*session).cmdForward},
		"backward":  {"backward <id>", "send one step backward", (*session).cmdBackward},
		"group":     {"group [name...]", "group the selection", (*session).cmdGroup},
		"ungroup":   {"ungroup <id>", "dissolve a group", (*session).cmdUngroup},
		"canvas":    {"canvas grid on|off | background <color> | mesh <color> | aspect <w:h>", "change canvas settings", (*session).cmdCanvas},
		"undo":      {"undo", "undo one step", (*session).cmdUndo},
		"redo":      {"redo", "redo one step", (*session).cmdRedo},
		"history":   {"history", "print the undo log", (*session).cmdHistory},
		"action":    {"action <name>", "run a keyboard action by name", (*session).cmdAction},
		"copy":      {"copy image|template", "copy the label or its template to the clipboard", (*session).cmdCopy},
		"paste":     {"paste image <x> <y> | template", "paste an image or a template from the clipboard", (*session).cmdPaste},
	}
}

// executeLine runs one command. done reports that the session should end.
func (s *session) executeLine(line string) (bool, error) {
	args := strings.Fields(strings.TrimSpace(line))
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return false, nil
	}
	cmd, ok := sessionCommands[strings.ToLower(args[0])]
	if !ok {
		return false, fmt.Errorf("unknown command %q (try help)", args[0])
	}
	if err := cmd.run(s, args[1:]); err != nil {
		if errors.Is(err, errExit) {
			return true, nil
		}
		return false, fmt.Errorf("%s: %w", args[0], err)
	}
	return false, nil
}

func usageErr(name string) error {
	return fmt.Errorf("usage: %s", sessionCommands[name].usage)
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = f
	}
	return out, nil
}

func (s *session) cmdHelp([]string) error {
	names := make([]string, 0, len(sessionCommands))
	for n := range sessionCommands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c := sessionCommands[n]
		if err := writef(s.stdout, "  %-44s %s\n", c.usage, c.help); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) cmdNew([]string) error {
	s.ed.Load(s.r.newDocument())
	s.path = ""
	return nil
}

func (s *session) cmdOpen(args []string) error {
	if len(args) != 1 {
		return usageErr("open")
	}
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}
	s.ed.Load(doc)
	s.path = args[0]
	return writef(s.stdout, "opened %s (%d elements)\n", args[0], len(doc.Elements))
}

func (s *session) cmdSave(args []string) error {
	path := s.path
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" || len(args) > 1 {
		return usageErr("save")
	}
	if err := writeDocument(path, s.ed.Snapshot()); err != nil {
		return err
	}
	s.path = path
	s.r.notifySave(path)
	return writef(s.stdout, "saved %s\n", path)
}

func (s *session) cmdExport(args []string) error {
	if len(args) < 1 || len(args) > 2 || (len(args) == 2 && args[1] != "grid") {
		return usageErr("export")
	}
	img, err := s.renderLabel(len(args) == 2)
	if err != nil {
		return err
	}
	if err := writePNG(args[0], img); err != nil {
		return err
	}
	s.r.notifyExport(args[0], img)
	return writef(s.stdout, "exported %s\n", args[0])
}

func (s *session) cmdData(args []string) error {
	if len(args) != 1 {
		return usageErr("data")
	}
	d, err := readData(args[0])
	if err != nil {
		return err
	}
	s.data = d
	return nil
}

func (s *session) cmdAutosave(args []string) error {
	if len(args) != 1 {
		return usageErr("autosave")
	}
	if args[0] == "off" {
		s.hookMu.Lock()
		store := s.store
		s.store, s.autosave = nil, nil
		s.hookMu.Unlock()
		if store != nil {
			closeWithLog("autosave", store)
		}
		return nil
	}
	store, err := s.r.openStore()
	if err != nil {
		return err
	}
	hook := store.Autosave(args[0], s.r.logger)
	// Save now so the name exists before the first edit.
	if err := store.Save(context.Background(), args[0], s.ed.Snapshot(), history.OpInit); err != nil {
		closeWithLog("autosave", store)
		return err
	}
	s.hookMu.Lock()
	prev := s.store
	s.store, s.autosave = store, hook
	s.hookMu.Unlock()
	if prev != nil {
		closeWithLog("autosave", prev)
	}
	return nil
}

func (s *session) cmdAdd(args []string) error {
	if len(args) < 1 {
		return usageErr("add")
	}
	var el element.Element
	switch kind, rest := strings.ToLower(args[0]), args[1:]; kind {
	case "text":
		if len(rest) < 2 {
			return errors.New("usage: add text <x> <y> [content...]")
		}
		xy, err := parseFloats(rest[:2])
		if err != nil {
			return err
		}
		content := "Text"
		if len(rest) > 2 {
			content = strings.Join(rest[2:], " ")
		}
		el = element.NewText(xy[0], xy[1], content)
	case "label":
		if len(rest) < 3 {
			return errors.New("usage: add label <x> <y> <key> [placeholder...]")
		}
		xy, err := parseFloats(rest[:2])
		if err != nil {
			return err
		}
		el = element.NewLabel(xy[0], xy[1], rest[2], strings.Join(rest[3:], " "))
	case "media":
		if len(rest) != 3 && len(rest) != 5 {
			return errors.New("usage: add media <x> <y> [w h] <file>")
		}
		nums, err := parseFloats(rest[:len(rest)-1])
		if err != nil {
			return err
		}
		var w, h float64
		if len(nums) == 4 {
			w, h = nums[2], nums[3]
		}
		m, err := mediaFromFile(rest[len(rest)-1], nums[0], nums[1], w, h)
		if err != nil {
			return err
		}
		el = m
	case "signature":
		if len(rest) != 5 {
			return errors.New("usage: add signature <x> <y> <w> <h> <file.svg>")
		}
		nums, err := parseFloats(rest[:4])
		if err != nil {
			return err
		}
		svg, err := os.ReadFile(rest[4])
		if err != nil {
			return err
		}
		el = element.NewSignature(nums[0], nums[1], nums[2], nums[3], string(svg), "")
	default:
		return fmt.Errorf("unknown element kind %q", kind)
	}
	if err := s.ed.Add(el); err != nil {
		return err
	}
	return writeln(s.stdout, el.Base().ID)
}

func describe(e element.Element) string {
	b := e.Base()
	vis := ""
	if !b.Visible {
		vis = " hidden"
	}
	if f, ok := element.AsFramed(e); ok {
		g := f.Geometry()
		return fmt.Sprintf("%s %s %q at %g,%g size %gx%g rot %g%s", b.ID, e.Kind(), element.DisplayName(e),
			g.X, g.Y, g.Width, g.Height, g.Rotation, vis)
	}
	g := e.(*element.Group)
	return fmt.Sprintf("%s %s %q children %s%s", b.ID, e.Kind(), element.DisplayName(e), strings.Join(g.Children, ","), vis)
}

func (s *session) cmdList([]string) error {
	els := s.ed.Elements()
	if len(els) == 0 {
		return writeln(s.stdout, "no elements")
	}
	for _, e := range els {
		if err := writeln(s.stdout, describe(e)); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) cmdShow(args []string) error {
	if len(args) != 1 {
		return usageErr("show")
	}
	e, ok := s.ed.Element(args[0])
	if !ok {
		return fmt.Errorf("%s: %w", args[0], element.ErrNotFound)
	}
	return writeln(s.stdout, describe(e))
}

func (s *session) cmdSelect(args []string) error {
	if len(args) == 0 {
		return usageErr("select")
	}
	if len(args) == 1 && args[0] == "none" {
		return s.ed.Select("", false)
	}
	for i, id := range args {
		if err := s.ed.Select(id, i > 0); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) cmdSelection([]string) error {
	sel := s.ed.Selection()
	if len(sel) == 0 {
		return writeln(s.stdout, "nothing selected")
	}
	return writeln(s.stdout, strings.Join(sel, " "))
}

func (s *session) cmdDelete(args []string) error {
	return s.ed.Delete(args...)
}

func (s *session) cmdTool(args []string) error {
	if len(args) != 1 {
		return usageErr("tool")
	}
	t, err := interaction.ParseTool(args[0])
	if err != nil {
		return err
	}
	s.ed.SetTool(t)
	return nil
}

func (s *session) point(args []string, name string) (r2.Vec, error) {
	if len(args) != 2 {
		return r2.Vec{}, usageErr(name)
	}
	xy, err := parseFloats(args)
	if err != nil {
		return r2.Vec{}, err
	}
	return r2.Vec{X: xy[0], Y: xy[1]}, nil
}

func (s *session) cmdDown(args []string) error {
	shift := len(args) == 3 && args[2] == "shift"
	if shift {
		args = args[:2]
	}
	p, err := s.point(args, "down")
	if err != nil {
		return err
	}
	s.ed.Press(p, shift)
	return writef(s.stdout, "mode %s\n", s.ed.Mode())
}

func (s *session) cmdMove(args []string) error {
	p, err := s.point(args, "move")
	if err != nil {
		return err
	}
	s.ed.Move(p)
	return nil
}

func (s *session) cmdUp([]string) error {
	s.ed.Release()
	return nil
}

func (s *session) cmdLeave([]string) error {
	s.ed.Leave()
	return nil
}

func (s *session) cmdZoom(args []string) error {
	if len(args) != 1 && len(args) != 3 {
		return usageErr("zoom")
	}
	nums, err := parseFloats(args)
	if err != nil {
		return err
	}
	var anchor r2.Vec
	if len(nums) == 3 {
		anchor = r2.Vec{X: nums[1], Y: nums[2]}
	}
	s.ed.ZoomAbout(anchor, nums[0])
	return writef(s.stdout, "zoom %g\n", s.ed.Viewport().Scale)
}

func (s *session) cmdNudge(args []string) error {
	d, err := s.point(args, "nudge")
	if err != nil {
		return err
	}
	return s.ed.Nudge(d.X, d.Y)
}

func (s *session) cmdText(args []string) error {
	if len(args) < 1 {
		return usageErr("text")
	}
	return s.ed.SetText(args[0], strings.Join(args[1:], " "))
}

func (s *session) cmdRename(args []string) error {
	if len(args) < 2 {
		return usageErr("rename")
	}
	return s.ed.Rename(args[0], strings.Join(args[1:], " "))
}

func (s *session) cmdFlush([]string) error {
	n := s.ed.Flush()
	return writef(s.stdout, "committed %d pending edit(s)\n", n)
}

func (s *session) cmdToggle(args []string) error {
	if len(args) != 1 {
		return usageErr("toggle")
	}
	return s.ed.ToggleVisibility(args[0])
}

func (s *session) reorder(args []string, name string, delta int) error {
	if len(args) != 1 {
		return usageErr(name)
	}
	changed, err := s.ed.Reorder(args[0], delta)
	if err != nil {
		return err
	}
	if !changed {
		return writeln(s.stdout, "already at the end")
	}
	return nil
}

func (s *session) cmdForward(args []string) error  { return s.reorder(args, "forward", 1) }
func (s *session) cmdBackward(args []string) error { return s.reorder(args, "backward", -1) }

func (s *session) cmdGroup(args []string) error {
	id, err := s.ed.Group(strings.Join(args, " "))
	if err != nil {
		return err
	}
	return writeln(s.stdout, id)
}

func (s *session) cmdUngroup(args []string) error {
	if len(args) != 1 {
		return usageErr("ungroup")
	}
	return s.ed.Ungroup(args[0])
}

func (s *session) cmdCanvas(args []string) error {
	if len(args) != 2 {
		return usageErr("canvas")
	}
	st := s.ed.Settings()
	switch strings.ToLower(args[0]) {
	case "grid":
		switch strings.ToLower(args[1]) {
		case "on", "true", "1":
			st.ShowGrid = true
		case "off", "false", "0":
			st.ShowGrid = false
		default:
			return usageErr("canvas")
		}
	case "background":
		if _, err := element.ParseColor(args[1]); err != nil {
			return err
		}
		st.BackgroundColor = args[1]
	case "mesh":
		if _, err := element.ParseColor(args[1]); err != nil {
			return err
		}
		st.MeshColor = args[1]
	case "aspect":
		ar, err := document.ParseAspectRatio(args[1])
		if err != nil {
			return err
		}
		st.AspectRatio = ar
	default:
		return usageErr("canvas")
	}
	s.ed.SetSettings(st)
	return nil
}

func (s *session) cmdUndo([]string) error {
	if !s.ed.Undo() {
		return writeln(s.stdout, "nothing to undo")
	}
	return nil
}

func (s *session) cmdRedo([]string) error {
	if !s.ed.Redo() {
		return writeln(s.stdout, "nothing to redo")
	}
	return nil
}

func (s *session) cmdHistory([]string) error {
	for i, e := range s.ed.History() {
		mark := " "
		if e.Current {
			mark = "*"
		}
		if err := writef(s.stdout, "%s %3d %s\n", mark, i, e.Op); err != nil {
			return err
		}
	}
	if s.ed.Pending() {
		return writeln(s.stdout, "  (edits pending)")
	}
	return nil
}

func (s *session) cmdAction(args []string) error {
	if len(args) != 1 {
		return usageErr("action")
	}
	if _, ok := s.ed.Action(args[0]); !ok {
		return fmt.Errorf("unknown action %q (have %s)", args[0], strings.Join(s.ed.Actions(), ", "))
	}
	return nil
}

func (s *session) renderLabel(grid bool) (*image.RGBA, error) {
	img, err := render.Render(s.ed.Snapshot(), render.Options{
		BaseWidth: s.r.cfg().Canvas.BaseWidth,
		HideGrid:  !grid,
		Data:      s.data,
	})
	if img == nil {
		return nil, err
	}
	if err != nil {
		fmt.Fprintln(s.stderr, err)
	}
	return img, nil
}

func (s *session) cmdCopy(args []string) error {
	if len(args) != 1 {
		return usageErr("copy")
	}
	switch args[0] {
	case "image":
		img, err := s.renderLabel(false)
		if err != nil {
			return err
		}
		if err := clipboard.WriteImage(img); err != nil {
			return err
		}
		s.r.notifyCopy("label image")
	case "template":
		b, err := document.EncodeBytes(s.ed.Snapshot(), document.FormatJSON)
		if err != nil {
			return err
		}
		if err := clipboard.WriteText(string(b)); err != nil {
			return err
		}
		s.r.notifyCopy("label template")
	default:
		return usageErr("copy")
	}
	return writeln(s.stdout, "copied "+args[0])
}

func (s *session) cmdPaste(args []string) error {
	switch {
	case len(args) == 1 && args[0] == "template":
		text, err := clipboard.ReadText()
		if err != nil {
			return err
		}
		doc, err := document.DecodeBytes([]byte(text), document.FormatJSON)
		if err != nil {
			return err
		}
		s.ed.Load(doc)
		return writef(s.stdout, "pasted template (%d elements)\n", len(doc.Elements))
	case len(args) == 3 && args[0] == "image":
		xy, err := parseFloats(args[1:])
		if err != nil {
			return err
		}
		b, err := clipboard.ReadPNG()
		if err != nil {
			return err
		}
		m, err := rasterMedia(b, "clipboard.png", xy[0], xy[1], 0, 0)
		if err != nil {
			return err
		}
		if err := s.ed.Add(m); err != nil {
			return err
		}
		return writeln(s.stdout, m.ID)
	}
	return usageErr("paste")
}
