package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/storage"
)

type autosaveCmd struct {
	*root
	fs *flag.FlagSet

	op     string
	name   string
	output string
	force  bool

	stdout io.Writer
}

func parseAutosaveCmd(args []string, r *root) (*autosaveCmd, error) {
	fs := flag.NewFlagSet("autosave", flag.ExitOnError)
	a := &autosaveCmd{root: r, fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.output, "o", "", "template file written by restore")
	fs.BoolVar(&a.force, "f", false, "overwrite an existing file on restore")
	if len(args) == 0 {
		return nil, &UsageError{of: a}
	}
	a.op = strings.ToLower(args[0])
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	rest := fs.Args()
	switch a.op {
	case "list":
		if len(rest) != 0 {
			return nil, &UsageError{of: a}
		}
	case "show", "restore", "delete":
		if len(rest) != 1 {
			return nil, fmt.Errorf("autosave %s requires a document name", a.op)
		}
		a.name = rest[0]
	default:
		return nil, &UsageError{of: a}
	}
	if a.op == "restore" && a.output == "" {
		return nil, errors.New("autosave restore requires -o")
	}
	return a, nil
}

func (a *autosaveCmd) Program() string {
	return a.root.Program() + " autosave"
}

func (a *autosaveCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func (a *autosaveCmd) Run() error {
	store, err := a.root.openStore()
	if err != nil {
		return fmt.Errorf("failed to open autosave database: %w", err)
	}
	defer closeWithLog("autosave", store)
	return a.run(context.Background(), store)
}

func (a *autosaveCmd) run(ctx context.Context, store *storage.Store) error {
	switch a.op {
	case "list":
		entries, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return writeln(a.stdout, "no autosaved documents")
		}
		for _, e := range entries {
			if err := writef(a.stdout, "%s\t%d element(s)\t%s\t%s\n",
				e.Name, e.Elements, e.LastOp, e.SavedAt.Format(time.RFC3339)); err != nil {
				return err
			}
		}
		return nil
	case "show":
		doc, err := store.Load(ctx, a.name)
		if err != nil {
			return err
		}
		return document.Encode(a.stdout, doc, document.FormatJSON)
	case "restore":
		if !a.force {
			if _, err := os.Stat(a.output); err == nil {
				return fmt.Errorf("%s exists; use -f to overwrite", a.output)
			}
		}
		doc, err := store.Load(ctx, a.name)
		if err != nil {
			return err
		}
		if err := writeDocument(a.output, doc); err != nil {
			return fmt.Errorf("failed to write %s: %w", a.output, err)
		}
		a.root.notifySave(a.output)
		return writef(a.stdout, "restored %s to %s\n", a.name, a.output)
	case "delete":
		if err := store.Delete(ctx, a.name); err != nil {
			return err
		}
		return writef(a.stdout, "deleted %s\n", a.name)
	default:
		return &UsageError{of: a}
	}
}
