package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/storage"
)

type testSession struct {
	t   *testing.T
	s   *session
	out bytes.Buffer
	err bytes.Buffer
}

func newTestSession(t *testing.T) *testSession {
	t.Helper()
	ts := &testSession{t: t, s: newSession(testRoot(t))}
	ts.s.withIO(nil, &ts.out, &ts.err)
	t.Cleanup(ts.s.close)
	return ts
}

// exec runs one line and returns its trimmed output.
func (ts *testSession) exec(line string) string {
	ts.t.Helper()
	ts.out.Reset()
	if _, err := ts.s.executeLine(line); err != nil {
		ts.t.Fatalf("%s: %v", line, err)
	}
	return strings.TrimSpace(ts.out.String())
}

func TestSessionAddSelectAndDrag(t *testing.T) {
	ts := newTestSession(t)
	id := ts.exec("add text 10 10 hello world")
	if id == "" {
		t.Fatalf("expected an element id")
	}
	if got := ts.exec("show " + id); !strings.Contains(got, "text") || !strings.Contains(got, "at 10,10 size 200x50") {
		t.Fatalf("unexpected element %q", got)
	}
	if got := ts.exec("down 50 30"); got != "mode pending-drag" {
		t.Fatalf("expected pending drag, got %q", got)
	}
	ts.exec("move 80 60")
	ts.exec("up")
	if got := ts.exec("show " + id); !strings.Contains(got, "at 40,40") {
		t.Fatalf("expected dragged element, got %q", got)
	}
	if got := ts.exec("selection"); got != id {
		t.Fatalf("expected %s selected, got %q", id, got)
	}
	hist := ts.exec("history")
	if !strings.Contains(hist, "add_element") || !strings.Contains(hist, "* ") || !strings.HasSuffix(hist, "move_element") {
		t.Fatalf("unexpected history %q", hist)
	}

	ts.exec("undo")
	if got := ts.exec("show " + id); !strings.Contains(got, "at 10,10") {
		t.Fatalf("expected undo to restore position, got %q", got)
	}
	ts.exec("redo")
	if got := ts.exec("show " + id); !strings.Contains(got, "at 40,40") {
		t.Fatalf("expected redo to reapply drag, got %q", got)
	}
	if got := ts.exec("redo"); got != "nothing to redo" {
		t.Fatalf("unexpected redo output %q", got)
	}
}

func TestSessionPressWithoutMoveKeepsHistory(t *testing.T) {
	ts := newTestSession(t)
	id := ts.exec("add text 10 10")
	before := ts.exec("history")
	ts.exec("down 20 20")
	ts.exec("up")
	if got := ts.exec("history"); got != before {
		t.Fatalf("click without movement changed history:\n%s\nwant\n%s", got, before)
	}
	if got := ts.exec("selection"); got != id {
		t.Fatalf("expected click to select %s, got %q", id, got)
	}
	if got := ts.exec("down 700 500"); got != "mode idle" {
		t.Fatalf("expected empty-canvas press to stay idle, got %q", got)
	}
	ts.exec("up")
	if got := ts.exec("selection"); got != "nothing selected" {
		t.Fatalf("expected empty-canvas press to clear selection, got %q", got)
	}
}

func TestSessionTextIsCommittedOnFlush(t *testing.T) {
	ts := newTestSession(t)
	id := ts.exec("add text 0 0 a")
	ts.exec("text " + id + " ab")
	ts.exec("text " + id + " abc")
	if got := ts.exec("history"); !strings.HasSuffix(got, "(edits pending)") {
		t.Fatalf("expected pending edits, got %q", got)
	}
	if got := ts.exec("flush"); got != "committed 1 pending edit(s)" {
		t.Fatalf("unexpected flush output %q", got)
	}
	hist := ts.exec("history")
	if strings.Contains(hist, "pending") || !strings.HasSuffix(hist, "update_text") {
		t.Fatalf("unexpected history %q", hist)
	}
	ts.exec("undo")
	el, _ := ts.s.ed.Element(id)
	if got := el.(*element.Text).Content; got != "a" {
		t.Fatalf("expected one undo to revert the typing burst, got %q", got)
	}
}

func TestSessionGroupAndCanvas(t *testing.T) {
	ts := newTestSession(t)
	a := ts.exec("add text 0 0 a")
	b := ts.exec("add label 0 100 sku SKU")
	ts.exec("select " + a + " " + b)
	g := ts.exec("group badge")
	if got := ts.exec("show " + g); !strings.Contains(got, "group") || !strings.Contains(got, a) || !strings.Contains(got, b) {
		t.Fatalf("unexpected group %q", got)
	}
	ts.exec("ungroup " + g)
	if got := ts.exec("list"); strings.Contains(got, g) {
		t.Fatalf("expected group to be dissolved, got %q", got)
	}
	ts.exec("canvas aspect 2:1")
	ts.exec("canvas grid off")
	if st := ts.s.ed.Settings(); st.ShowGrid || st.AspectRatio.Width != 2 || st.AspectRatio.Height != 1 {
		t.Fatalf("canvas settings not applied: %+v", st)
	}
	if got := ts.exec("history"); !strings.HasSuffix(got, "update_canvas") {
		t.Fatalf("expected update_canvas entry, got %q", got)
	}
}

func TestSessionErrors(t *testing.T) {
	ts := newTestSession(t)
	if _, err := ts.s.executeLine("bogus 1 2"); err == nil || !strings.Contains(err.Error(), `unknown command "bogus"`) {
		t.Fatalf("expected unknown command error, got %v", err)
	}
	if _, err := ts.s.executeLine("show nope"); err == nil || !strings.Contains(err.Error(), "show: nope") {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}
	if _, err := ts.s.executeLine("canvas background notacolor"); err == nil {
		t.Fatalf("expected colour error")
	}
	if done, err := ts.s.executeLine("# comment"); done || err != nil {
		t.Fatalf("comment should be ignored, got %v %v", done, err)
	}
	if done, err := ts.s.executeLine("exit"); !done || err != nil {
		t.Fatalf("exit should end the session, got %v %v", done, err)
	}
}

func TestSessionSaveExportAndAutosave(t *testing.T) {
	ts := newTestSession(t)
	dir := t.TempDir()
	ts.exec("autosave draft")
	ts.exec("add text 5 5 saved")

	tmpl := filepath.Join(dir, "out.json")
	if got := ts.exec("save " + tmpl); got != "saved "+tmpl {
		t.Fatalf("unexpected save output %q", got)
	}
	doc, err := readDocument(tmpl)
	if err != nil || len(doc.Elements) != 1 {
		t.Fatalf("expected saved template with one element, got %v %v", doc, err)
	}
	png := filepath.Join(dir, "out.png")
	ts.exec("export " + png)
	if _, err := os.Stat(png); err != nil {
		t.Fatalf("expected exported PNG: %v", err)
	}
	ts.exec("autosave off")

	store, err := storage.Open(ts.s.r.dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	saved, err := store.Load(context.Background(), "draft")
	if err != nil {
		t.Fatalf("load autosave: %v", err)
	}
	if len(saved.Elements) != 1 {
		t.Fatalf("expected autosave to follow the edit, got %d elements", len(saved.Elements))
	}
}

func TestInteractiveExecCommands(t *testing.T) {
	var out, errW bytes.Buffer
	cli := &interactiveCLI{
		r:      testRoot(t),
		execs:  commandList{"add text 1 2 x", "list", "exit", "list"},
		stdout: &out,
		stderr: &errW,
	}
	if err := cli.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Count(out.String(), "at 1,2"); got != 1 {
		t.Fatalf("expected commands after exit to be skipped, got output %q", out.String())
	}
}
