package main

import (
	"bytes"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// shortSocketDir keeps unix socket paths under the platform length limit.
func shortSocketDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "lc")
	if err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func startTestServer(t *testing.T, dir, name string) chan error {
	t.Helper()
	path := socketPath(dir, name)
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}
	srv := newSocketServer(ln, path, newSession(testRoot(t)))
	done := make(chan error, 1)
	go func() { done <- srv.serve() }()
	t.Cleanup(srv.shutdown)
	return done
}

func TestSocketRoundTrip(t *testing.T) {
	dir := shortSocketDir(t)
	done := startTestServer(t, dir, "main")

	if err := pingSocket(socketPath(dir, "main")); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var out, errW bytes.Buffer
	if err := runSocketCommands(dir, "main", []string{"add text 3 4 hi", "list"}, &out, &errW); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], lines[0]) || !strings.Contains(lines[1], "at 3,4") {
		t.Fatalf("unexpected output %q", out.String())
	}

	// A second connection sees the same editor.
	out.Reset()
	if err := runSocketCommands(dir, "main", []string{"history"}, &out, &errW); err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out.String(), "add_element") {
		t.Fatalf("expected shared session history, got %q", out.String())
	}

	err := runSocketCommands(dir, "main", []string{"bogus"}, &out, &errW)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected remote error, got %v", err)
	}

	if err := stopSocket(dir, "main"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
	if _, err := os.Stat(socketPath(dir, "main")); !os.IsNotExist(err) {
		t.Fatalf("expected socket file removed, got %v", err)
	}
}

func TestAttachSocketContinuesAfterErrors(t *testing.T) {
	dir := shortSocketDir(t)
	startTestServer(t, dir, "main")

	in := strings.NewReader("bogus\nadd text 1 1\nexit\nlist\n")
	var out, errW bytes.Buffer
	if err := attachSocket(dir, "main", in, &out, &errW); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if !strings.Contains(errW.String(), "unknown command") {
		t.Fatalf("expected error on stderr, got %q", errW.String())
	}
	if strings.Contains(out.String(), "at 1,1") {
		t.Fatalf("commands after exit should not run, got %q", out.String())
	}
}

func TestSocketListAndClean(t *testing.T) {
	dir := shortSocketDir(t)
	startTestServer(t, dir, "live")
	if err := os.WriteFile(socketPath(dir, "stale"), nil, 0o600); err != nil {
		t.Fatalf("write stale socket: %v", err)
	}

	var out bytes.Buffer
	if err := printSocketList(dir, &out); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "  live\n") || !strings.Contains(out.String(), "stale (dead:") {
		t.Fatalf("unexpected list %q", out.String())
	}
	if name, err := selectRunningSocket(dir, ""); err != nil || name != "live" {
		t.Fatalf("expected the live session, got %q %v", name, err)
	}

	out.Reset()
	if err := cleanSocketDir(dir, &out); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if !strings.Contains(out.String(), "removed 1 dead session(s): stale") {
		t.Fatalf("unexpected clean output %q", out.String())
	}
	if _, err := os.Stat(socketPath(dir, "live")); err != nil {
		t.Fatalf("live socket removed: %v", err)
	}
}

func TestNextSocketName(t *testing.T) {
	got := nextSocketName([]socketStatus{{name: "2"}, {name: "work"}, {name: "7"}})
	if got != "8" {
		t.Fatalf("expected 8, got %s", got)
	}
	if got := nextSocketName(nil); got != "1" {
		t.Fatalf("expected 1, got %s", got)
	}
}

func TestTaggedWriterSplitsLines(t *testing.T) {
	var buf bytes.Buffer
	w := &taggedWriter{mu: new(sync.Mutex), w: &buf, tag: "OUT "}
	if _, err := w.Write([]byte("one\ntwo\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := w.Write([]byte("three")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if want := "OUT one\nOUT two\nOUT three\n"; buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}
