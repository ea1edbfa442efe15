package assets

import (
	"embed"
	"strings"
)

//go:embed texts/*.html
var TextsFS embed.FS

// Text returns an embedded HTML text by name without extension, e.g. "start".
// It panics on unknown names since the set is fixed at build time.
func Text(name string) string {
	b, err := TextsFS.ReadFile("texts/" + name + ".html")
	if err != nil {
		panic("assets: unknown text " + name)
	}
	return strings.TrimSpace(string(b))
}

func List() []string {
	return []string{
		"start",
		"help",
	}
}
