package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// renderer is a package-level glamour renderer for step descriptions.
var renderer *glamour.TermRenderer

func init() {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(72),
	)
	if err == nil {
		renderer = r
	}
}

// renderMarkdown converts a markdown string to styled terminal output.
// Falls back to the raw input if glamour is unavailable or rendering fails.
func renderMarkdown(md string) string {
	if renderer == nil || strings.TrimSpace(md) == "" {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
