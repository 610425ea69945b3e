package main

import (
	"flag"
	"io"
	"os"
)

type interactiveCLI struct {
	r  *root
	fs *flag.FlagSet

	execs       commandList
	sessionName string
	socketDir   string
	autosave    string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func parseInteractiveCmd(args []string, r *root) (*interactiveCLI, error) {
	fs := flag.NewFlagSet("interactive", flag.ExitOnError)
	cli := &interactiveCLI{r: r, fs: fs, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	fs.Usage = usageFunc(cli)
	fs.Var(&cli.execs, "e", "execute a command in immediate mode (may be specified multiple times)")
	fs.StringVar(&cli.sessionName, "name", "", "background session name")
	fs.StringVar(&cli.socketDir, "dir", "", "directory that stores labelcanvas sockets")
	fs.StringVar(&cli.autosave, "autosave", "", "autosave every change under this name")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: cli}
	}
	return cli, nil
}

func (c *interactiveCLI) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *interactiveCLI) Program() string {
	return c.r.Program() + " interactive"
}

func (c *interactiveCLI) Run() error {
	if c.sessionName != "" {
		dir, err := resolveSocketDir(c.socketDir)
		if err != nil {
			return err
		}
		if len(c.execs) > 0 {
			commands := make([]string, len(c.execs))
			copy(commands, c.execs)
			return runSocketCommands(dir, c.sessionName, commands, c.stdout, c.stderr)
		}
		return attachSocket(dir, c.sessionName, c.stdin, c.stdout, c.stderr)
	}

	s := newSession(c.r)
	defer s.close()
	restore := s.withIO(c.stdin, c.stdout, c.stderr)
	defer restore()
	if c.autosave != "" {
		if _, err := s.executeLine("autosave " + c.autosave); err != nil {
			return err
		}
	}
	if len(c.execs) > 0 {
		for _, cmd := range c.execs {
			done, err := s.executeLine(cmd)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		return nil
	}
	return s.run()
}
