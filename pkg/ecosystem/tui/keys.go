package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds all TUI key bindings.
type keyMap struct {
	Next      key.Binding
	Back      key.Binding
	NextField key.Binding
	PrevField key.Binding
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Next: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "continue"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "select"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

func hint(k, desc string) string {
	return keyStyle.Render(k) + keyDescStyle.Render(":"+desc)
}

// keyBarText renders the context-sensitive key hint string.
func keyBarText(p phase, focused fieldKind) string {
	switch p {
	case phaseDashboard:
		return hint("↑↓", "select") + "  " + hint("enter", "start") + "  " + hint("ctrl+c", "quit")
	case phaseDone:
		return hint("enter", "continue") + "  " + hint("ctrl+c", "quit")
	}

	parts := []string{hint("enter", "continue"), hint("esc", "back"), hint("tab", "next field")}
	switch focused {
	case kindChoice:
		parts = append(parts, hint("↑↓", "choose"), hint("space", "select"))
	case kindBool:
		parts = append(parts, hint("space", "toggle"))
	case kindEvidence:
		parts = append(parts, hint("enter", "attach path"))
	}
	parts = append(parts, hint("ctrl+c", "quit"))
	return strings.Join(parts, "  ")
}
