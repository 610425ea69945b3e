package main

import (
	"flag"
	"strings"
	"testing"
)

func TestHelpTemplatesRender(t *testing.T) {
	r := testRoot(t)
	r.fs = flag.NewFlagSet("labelcanvas", flag.ContinueOnError)
	r.fs.String("theme", "", "viewer theme to use")

	export, err := parseExportCmd([]string{"x.json"}, r)
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	view, err := parseViewCmd(nil, r)
	if err != nil {
		t.Fatalf("parse view: %v", err)
	}
	interactive, err := parseInteractiveCmd(nil, r)
	if err != nil {
		t.Fatalf("parse interactive: %v", err)
	}
	background, err := parseBackgroundCmd([]string{"list"}, r)
	if err != nil {
		t.Fatalf("parse background: %v", err)
	}
	autosave, err := parseAutosaveCmd([]string{"list"}, r)
	if err != nil {
		t.Fatalf("parse autosave: %v", err)
	}

	cases := []struct {
		of   HelpData
		want []string
	}{
		{r, []string{"Usage: labelcanvas", "-theme"}},
		{export, []string{"labelcanvas export", "-scale", "-clipboard"}},
		{view, []string{"labelcanvas view", "-restore"}},
		{interactive, []string{"labelcanvas interactive", "-e"}},
		{background, []string{"labelcanvas background", "-dir"}},
		{autosave, []string{"labelcanvas autosave", "-o"}},
		{&versionCmd{r: r}, []string{"labelcanvas version"}},
	}
	for _, tc := range cases {
		help := (&UsageError{of: tc.of}).Error()
		for _, want := range tc.want {
			if !strings.Contains(help, want) {
				t.Errorf("%s help missing %q:\n%s", tc.of.Program(), want, help)
			}
		}
	}
}
