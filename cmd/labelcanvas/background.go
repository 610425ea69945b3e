package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"
)

type commandList []string

func (c *commandList) String() string {
	return strings.Join(*c, ";")
}

func (c *commandList) Set(value string) error {
	*c = append(*c, value)
	return nil
}

// backgroundOps lists the operations and which of them take a session name.
var backgroundOps = map[string]bool{
	"start":  true,
	"stop":   true,
	"attach": true,
	"run":    true,
	"serve":  true,
	"list":   false,
	"clean":  false,
}

type backgroundCmd struct {
	*root
	fs *flag.FlagSet

	op      string
	name    string
	dir     string
	help    bool
	runArgs []string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func parseBackgroundCmd(args []string, r *root) (*backgroundCmd, error) {
	b := &backgroundCmd{root: r, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if len(args) == 0 {
		b.fs = flag.NewFlagSet("background", flag.ExitOnError)
		return nil, &UsageError{of: b}
	}
	b.op = strings.ToLower(args[0])
	b.fs = flag.NewFlagSet("background "+b.op, flag.ContinueOnError)
	b.fs.SetOutput(io.Discard)
	named, known := backgroundOps[b.op]
	if !known {
		return nil, &UsageError{of: b}
	}
	if named {
		b.fs.StringVar(&b.name, "name", "", "session name")
	}
	b.fs.StringVar(&b.dir, "dir", "", "directory that stores labelcanvas sockets")
	b.fs.BoolVar(&b.help, "help", false, "show this help message and exit")
	if err := b.fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &UsageError{of: b}
		}
		return nil, err
	}
	if b.help {
		return nil, &UsageError{of: b}
	}

	rest := b.fs.Args()
	take := func(dst *string) {
		if *dst == "" && len(rest) > 0 {
			*dst = rest[0]
			rest = rest[1:]
		}
	}
	if b.op == "run" {
		b.runArgs, rest = rest, nil
		if len(b.runArgs) == 0 {
			return nil, errors.New("background run requires a command")
		}
	} else {
		if named {
			take(&b.name)
		}
		take(&b.dir)
	}
	if len(rest) > 0 {
		return nil, &UsageError{of: b}
	}
	if b.op == "serve" && b.name == "" {
		return nil, errors.New("serve requires a session name")
	}
	return b, nil
}

func (b *backgroundCmd) Program() string {
	return b.root.Program() + " background"
}

func (b *backgroundCmd) FlagSet() *flag.FlagSet {
	return b.fs
}

func (b *backgroundCmd) Template() string {
	return "background.txt"
}

func (b *backgroundCmd) Run() error {
	dir, err := resolveSocketDir(b.dir)
	if err != nil {
		return err
	}
	switch b.op {
	case "list":
		return printSocketList(dir, b.stdout)
	case "clean":
		return cleanSocketDir(dir, b.stdout)
	case "start":
		name, err := startBackgroundServer(dir, b.name)
		if err != nil {
			return err
		}
		return writef(b.stdout, "started background session %s at %s\n", name, socketPath(dir, name))
	case "stop":
		name, err := selectSocketForStop(dir, b.name)
		if err != nil {
			return err
		}
		if err := stopSocket(dir, name); err != nil {
			return err
		}
		return writef(b.stdout, "stop requested for %s\n", name)
	case "attach":
		name, err := selectRunningSocket(dir, b.name)
		if err != nil {
			return err
		}
		return attachSocket(dir, name, b.stdin, b.stdout, b.stderr)
	case "run":
		name, command, err := resolveRunTarget(dir, b.name, b.runArgs)
		if err != nil {
			return err
		}
		return runSocketCommands(dir, name, []string{strings.Join(command, " ")}, b.stdout, b.stderr)
	case "serve":
		return runSocketServer(dir, b.name, b.root)
	}
	return &UsageError{of: b}
}

func resolveSocketDir(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if dir := os.Getenv("LABELCANVAS_SOCKET_DIR"); dir != "" {
		return dir, nil
	}
	if runtime.GOOS != "windows" {
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			return filepath.Join(dir, "labelcanvas"), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".labelcanvas", "sockets"), nil
}

type socketStatus struct {
	name string
	file string
	err  error
}

func (s socketStatus) alive() bool { return s.err == nil }

func collectSocketStatuses(dir string) ([]socketStatus, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var statuses []socketStatus
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()
		if entry.Type()&os.ModeSocket == 0 && !strings.HasSuffix(file, ".sock") {
			continue
		}
		st := socketStatus{name: strings.TrimSuffix(file, ".sock"), file: file}
		if err := pingSocket(filepath.Join(dir, file)); err != nil {
			st.err = normalizeSocketError(err)
		}
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].name < statuses[j].name })
	return statuses, nil
}

func aliveNames(statuses []socketStatus) []string {
	var names []string
	for _, st := range statuses {
		if st.alive() {
			names = append(names, st.name)
		}
	}
	return names
}

func printSocketList(dir string, out io.Writer) error {
	statuses, err := collectSocketStatuses(dir)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		return writeln(out, "no sessions found")
	}
	if err := writeln(out, "sessions:"); err != nil {
		return err
	}
	for _, st := range statuses {
		if st.alive() {
			err = writef(out, "  %s\n", st.name)
		} else {
			err = writef(out, "  %s (dead: %v)\n", st.name, st.err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func cleanSocketDir(dir string, out io.Writer) error {
	statuses, err := collectSocketStatuses(dir)
	if err != nil {
		return err
	}
	var removed []string
	for _, st := range statuses {
		if st.alive() {
			continue
		}
		err := os.Remove(filepath.Join(dir, st.file))
		switch {
		case err == nil:
			removed = append(removed, st.name)
		case errors.Is(err, os.ErrNotExist):
		default:
			if err := writef(out, "failed to remove %s: %v\n", st.name, err); err != nil {
				return err
			}
		}
	}
	if len(removed) == 0 {
		return writeln(out, "no dead sessions found")
	}
	return writef(out, "removed %d dead session(s): %s\n", len(removed), strings.Join(removed, ", "))
}

func socketPath(dir, name string) string {
	if !strings.HasSuffix(name, ".sock") {
		name += ".sock"
	}
	return filepath.Join(dir, name)
}

// startBackgroundServer re-executes this binary as "background serve" and
// waits until the new session answers a ping.
func startBackgroundServer(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	statuses, err := collectSocketStatuses(dir)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = nextSocketName(statuses)
	}
	for _, st := range statuses {
		if st.name != name {
			continue
		}
		if st.alive() {
			return "", fmt.Errorf("session %s already running", name)
		}
		if err := os.Remove(filepath.Join(dir, st.file)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	cmd := exec.Command(exe, "background", "serve", "--name", name, "--dir", dir)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return "", err
	}
	if err := cmd.Process.Release(); err != nil {
		return "", err
	}
	socket := socketPath(dir, name)
	lastErr := errors.New("unknown startup failure")
	for deadline := time.Now().Add(3 * time.Second); time.Now().Before(deadline); time.Sleep(50 * time.Millisecond) {
		if err := pingSocket(socket); err != nil {
			lastErr = normalizeSocketError(err)
			continue
		}
		return name, nil
	}
	return "", fmt.Errorf("session %s did not become ready: %v", name, lastErr)
}

// nextSocketName picks one more than the highest numeric session name.
func nextSocketName(statuses []socketStatus) string {
	highest := 0
	for _, st := range statuses {
		if n, err := strconv.Atoi(st.name); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

func selectRunningSocket(dir, preferred string) (string, error) {
	statuses, err := collectSocketStatuses(dir)
	if err != nil {
		return "", err
	}
	alive := aliveNames(statuses)
	if preferred != "" {
		for _, name := range alive {
			if name == preferred {
				return preferred, nil
			}
		}
		return "", fmt.Errorf("session %s is not running", preferred)
	}
	return onlyOne(alive)
}

func onlyOne(alive []string) (string, error) {
	switch len(alive) {
	case 0:
		return "", errors.New("no background sessions running")
	case 1:
		return alive[0], nil
	}
	return "", fmt.Errorf("multiple background sessions running; specify a session name (%s)", strings.Join(alive, ", "))
}

func selectSocketForStop(dir, preferred string) (string, error) {
	if preferred != "" {
		return preferred, nil
	}
	statuses, err := collectSocketStatuses(dir)
	if err != nil {
		return "", err
	}
	switch len(statuses) {
	case 0:
		return "", errors.New("no background sessions found")
	case 1:
		return statuses[0].name, nil
	}
	if alive := aliveNames(statuses); len(alive) == 1 {
		return alive[0], nil
	}
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = st.name
	}
	return "", fmt.Errorf("multiple background sessions found; specify a session name (%s)", strings.Join(names, ", "))
}

// resolveRunTarget splits "run" arguments into a session and a command. The
// first argument names the session when it matches a running one.
func resolveRunTarget(dir, preferred string, args []string) (string, []string, error) {
	statuses, err := collectSocketStatuses(dir)
	if err != nil {
		return "", nil, err
	}
	alive := aliveNames(statuses)
	isAlive := func(name string) bool {
		for _, n := range alive {
			if n == name {
				return true
			}
		}
		return false
	}
	name, rest := preferred, args
	if name == "" && len(rest) > 0 && isAlive(rest[0]) {
		name, rest = rest[0], rest[1:]
	}
	if len(rest) == 0 {
		return "", nil, errors.New("background run requires a command")
	}
	if name == "" {
		name, err = onlyOne(alive)
		if err != nil {
			return "", nil, err
		}
	} else if !isAlive(name) {
		return "", nil, fmt.Errorf("session %s is not running", name)
	}
	return name, rest, nil
}
