package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/example/labelcanvas/internal/config"
	"github.com/example/labelcanvas/internal/editor"
	"github.com/example/labelcanvas/internal/interaction"
	"github.com/example/labelcanvas/internal/notify"
	"github.com/example/labelcanvas/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs           *flag.FlagSet
	program      string
	notifier     *notify.Notifier
	config       *config.Config
	exportAlerts bool
	saveAlerts   bool
	copyAlerts   bool
	themeName    string
	activeTheme  *theme.Theme
	dbPath       string
	verbose      bool
	logger       *log.Logger
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences(os.Getenv)
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("labelcanvas", flag.ExitOnError),
		program:  "labelcanvas",
		notifier: notify.New(prefs),
		config:   cfg,
	}
	r.fs.BoolVar(&r.exportAlerts, "notify-export", cfg.Notify.Export, "show a desktop notification after exporting an image")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving a template")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.StringVar(&r.dbPath, "db", "", "autosave database path")
	r.fs.BoolVar(&r.verbose, "v", false, "log gestures and history commits")

	// Precedence: CLI > Env > Config > Default. The flag defaults to "" and
	// Run falls back when it stays empty.
	r.fs.StringVar(&r.themeName, "theme", "", "viewer theme to use ("+strings.Join(theme.Names(), ", ")+")")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventExport, r.exportAlerts)
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	}
	if r.verbose {
		r.logger = log.New(os.Stderr, "labelcanvas: ", log.LstdFlags)
	}
	r.activeTheme = r.loadTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "export":
		cmd, err = parseExportCmd(subArgs, r)
	case "view":
		cmd, err = parseViewCmd(subArgs, r)
	case "interactive":
		cmd, err = parseInteractiveCmd(subArgs, r)
	case "background":
		cmd, err = parseBackgroundCmd(subArgs, r)
	case "autosave":
		cmd, err = parseAutosaveCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// loadTheme resolves the viewer theme from the flag, the environment and
// the config file, in that order.
func (r *root) loadTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = r.config.Theme
	}
	if t, ok := r.config.Themes[name]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && name != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		}
		return theme.Default()
	}
	return t
}

// editorOptions maps the configuration onto a new editor.
func (r *root) editorOptions() editor.Options {
	cfg := r.config
	if cfg == nil {
		cfg = config.New()
	}
	opts := editor.Options{
		HistoryLimit: cfg.History.Limit,
		Debounce:     time.Duration(cfg.History.DebounceMS) * time.Millisecond,
		MinSize:      cfg.Interaction.MinSize,
		MinZoom:      cfg.Interaction.MinZoom,
		MaxZoom:      cfg.Interaction.MaxZoom,
		Logger:       r.logger,
	}
	if cfg.Interaction.HandleSize > 0 {
		opts.Hit = interaction.DefaultHitOptions()
		opts.Hit.HandleSize = cfg.Interaction.HandleSize
	}
	return opts
}

func (r *root) cfg() *config.Config {
	if r == nil || r.config == nil {
		return config.New()
	}
	return r.config
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func (r *root) notifyExport(path string, img image.Image) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Export(path, img)
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

func closeWithLog(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Printf("%s: close: %v", name, err)
	}
}

func removeWithLog(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("remove %s: %v", path, err)
	}
}
