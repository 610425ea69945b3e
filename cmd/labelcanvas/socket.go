package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

// Socket protocol, one line per message:
//
//	server: READY
//	client: PING              server: PONG
//	client: EXEC <command>    server: OUT <line>... ERR <line>... DONE OK|DONE ERR <msg>|DONE OK CLOSE
//	client: SHUTDOWN          server: DONE OK CLOSE
const (
	msgReady    = "READY"
	msgPing     = "PING"
	msgPong     = "PONG"
	msgExec     = "EXEC "
	msgShutdown = "SHUTDOWN"
	msgOut      = "OUT "
	msgErr      = "ERR "
	msgDoneOK   = "DONE OK"
	msgDoneErr  = "DONE ERR "
	msgClose    = "DONE OK CLOSE"
)

var errSocketClosed = errors.New("socket closed by server")

// remoteError is a command failure reported by the session. The connection
// stays usable after one.
type remoteError struct{ msg string }

func (e *remoteError) Error() string { return e.msg }

func normalizeSocketError(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return errors.New("missing socket file")
	case errors.Is(err, os.ErrPermission):
		return errors.New("permission denied")
	}
	return err
}

// taggedWriter prefixes every write with a protocol tag. Session output is
// written a line at a time so each write becomes one tagged line.
type taggedWriter struct {
	mu  *sync.Mutex
	w   io.Writer
	tag string
}

func (t *taggedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var b strings.Builder
	for _, line := range strings.SplitAfter(string(p), "\n") {
		if line == "" {
			continue
		}
		b.WriteString(t.tag)
		b.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			b.WriteByte('\n')
		}
	}
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

type socketServer struct {
	session  *session
	path     string
	listener net.Listener
	execMu   sync.Mutex
	stopOnce sync.Once
	stopCh   chan struct{}
}

func runSocketServer(dir, name string, r *root) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := socketPath(dir, name)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	s := newSocketServer(ln, path, newSession(r))
	return s.serve()
}

func newSocketServer(ln net.Listener, path string, sess *session) *socketServer {
	return &socketServer{session: sess, path: path, listener: ln, stopCh: make(chan struct{})}
}

func (s *socketServer) serve() error {
	defer s.session.close()
	defer removeWithLog(s.path)
	defer s.shutdown()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *socketServer) handleConn(conn net.Conn) {
	defer closeWithLog("socket connection", conn)
	var writeMu sync.Mutex
	send := func(line string) bool {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := writeln(conn, line); err != nil {
			log.Printf("socket write %q: %v", line, err)
			return false
		}
		return true
	}
	if !send(msgReady) {
		return
	}
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == msgPing:
			if !send(msgPong) {
				return
			}
		case line == msgShutdown:
			send(msgClose)
			s.shutdown()
			return
		case strings.HasPrefix(line, msgExec):
			done, err := s.exec(strings.TrimPrefix(line, msgExec), &writeMu, conn)
			switch {
			case err != nil:
				if !send(msgDoneErr + strings.ReplaceAll(err.Error(), "\n", `\n`)) {
					return
				}
			case done:
				send(msgClose)
				return
			default:
				if !send(msgDoneOK) {
					return
				}
			}
		default:
			if !send(msgErr + "unknown request") {
				return
			}
		}
	}
}

// exec runs one command line against the shared session. Commands from
// different connections never interleave.
func (s *socketServer) exec(command string, mu *sync.Mutex, conn io.Writer) (bool, error) {
	s.execMu.Lock()
	defer s.execMu.Unlock()
	restore := s.session.withIO(nil, &taggedWriter{mu: mu, w: conn, tag: msgOut}, &taggedWriter{mu: mu, w: conn, tag: msgErr})
	defer restore()
	return s.session.executeLine(command)
}

func (s *socketServer) shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		closeWithLog("socket listener", s.listener)
	})
}

// socketClient is one connection to a background session.
type socketClient struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func dialSocket(path string, timeout time.Duration) (*socketClient, error) {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, err
	}
	c := &socketClient{conn: conn, scanner: bufio.NewScanner(conn)}
	greeting, err := c.readLine()
	if err != nil {
		c.Close()
		return nil, err
	}
	if greeting != msgReady {
		c.Close()
		return nil, fmt.Errorf("unexpected greeting: %s", greeting)
	}
	return c, nil
}

func (c *socketClient) Close() error {
	return c.conn.Close()
}

func (c *socketClient) readLine() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", errSocketClosed
	}
	return c.scanner.Text(), nil
}

func (c *socketClient) send(line string) error {
	return writeln(c.conn, line)
}

// exec sends one command and copies its output until the DONE line.
func (c *socketClient) exec(command string, stdout, stderr io.Writer) error {
	if err := c.send(msgExec + command); err != nil {
		return err
	}
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		switch {
		case strings.HasPrefix(line, msgOut):
			err = writeln(stdout, strings.TrimPrefix(line, msgOut))
		case strings.HasPrefix(line, msgErr):
			err = writeln(stderr, strings.TrimPrefix(line, msgErr))
		case line == msgClose:
			return errSocketClosed
		case line == msgDoneOK:
			return nil
		case strings.HasPrefix(line, msgDoneErr):
			return &remoteError{msg: strings.ReplaceAll(strings.TrimPrefix(line, msgDoneErr), `\n`, "\n")}
		default:
			err = writeln(stdout, line)
		}
		if err != nil {
			return err
		}
	}
}

func pingSocket(path string) error {
	c, err := dialSocket(path, time.Second)
	if err != nil {
		return err
	}
	defer closeWithLog("ping socket", c)
	if err := c.conn.SetDeadline(time.Now().Add(2 * time.Second)); err != nil {
		return err
	}
	if err := c.send(msgPing); err != nil {
		return err
	}
	reply, err := c.readLine()
	if err != nil {
		return err
	}
	if reply != msgPong {
		return fmt.Errorf("unexpected response: %s", reply)
	}
	return nil
}

func runSocketCommands(dir, name string, commands []string, stdout, stderr io.Writer) error {
	c, err := dialSocket(socketPath(dir, name), 5*time.Second)
	if err != nil {
		return err
	}
	defer closeWithLog("socket client", c)
	for _, cmd := range commands {
		if err := c.exec(cmd, stdout, stderr); err != nil {
			if errors.Is(err, errSocketClosed) {
				return nil
			}
			return err
		}
	}
	return nil
}

// attachSocket forwards stdin lines to the session until it closes or the
// input ends. Command errors are reported and the prompt continues.
func attachSocket(dir, name string, stdin io.Reader, stdout, stderr io.Writer) error {
	c, err := dialSocket(socketPath(dir, name), 5*time.Second)
	if err != nil {
		return err
	}
	defer closeWithLog("socket client", c)
	input := bufio.NewScanner(stdin)
	for {
		if _, err := fmt.Fprint(stdout, "> "); err != nil {
			return err
		}
		if !input.Scan() {
			return input.Err()
		}
		err := c.exec(input.Text(), stdout, stderr)
		var rerr *remoteError
		switch {
		case errors.Is(err, errSocketClosed):
			return nil
		case errors.As(err, &rerr):
			if werr := writeln(stderr, rerr.msg); werr != nil {
				return werr
			}
		case err != nil:
			return err
		}
	}
}

func stopSocket(dir, name string) error {
	path := socketPath(dir, name)
	c, err := dialSocket(path, time.Second)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		// Nothing is listening; drop the stale file.
		if rmErr := os.Remove(path); rmErr == nil || errors.Is(rmErr, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer closeWithLog("socket client", c)
	if err := c.send(msgShutdown); err != nil {
		return err
	}
	for {
		line, err := c.readLine()
		if errors.Is(err, errSocketClosed) || strings.HasPrefix(line, "DONE ") {
			break
		}
		if err != nil {
			return err
		}
	}
	removeWithLog(path)
	return nil
}
