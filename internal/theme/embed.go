package theme

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

// EmbeddedThemes ships the built-in palettes.
//
//go:embed defaults/*.theme
var EmbeddedThemes embed.FS

// Names lists the built-in theme names.
func Names() []string {
	entries, err := fs.ReadDir(EmbeddedThemes, "defaults")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".theme"))
	}
	sort.Strings(out)
	return out
}
