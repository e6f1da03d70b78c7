package tui

import "github.com/charmbracelet/lipgloss"

// Field and status glyphs. They carry meaning without relying on color alone.
const (
	GlyphFocus     = "▸"
	GlyphChecked   = "☑"
	GlyphUnchecked = "☐"
	GlyphSelected  = "◉"
	GlyphOption    = "○"
	GlyphDone      = "✓"
	GlyphFailed    = "✗"
	GlyphNotice    = "!"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

// --- Header styles ---

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var roleBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorYellow).
	Padding(0, 1)

// --- Step and field styles ---

var (
	stepTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	fieldFocusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	optionHelpStyle = lipgloss.NewStyle().
			Faint(true)

	requiredStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

// --- Panel styles ---

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Foreground(colorRed).
			Bold(true).
			Padding(0, 1)
)

// --- Status styles ---

var (
	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

// tierStyle colors an enrichment tier.
func tierStyle(tier string) lipgloss.Style {
	switch tier {
	case "high":
		return okStyle
	case "medium":
		return lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	default:
		return errorStyle
	}
}

// --- Key bar styles ---

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	keyBarStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// --- Result banner ---

var bannerStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorCyan).
	Foreground(colorCyan).
	Bold(true).
	Padding(0, 2).
	Align(lipgloss.Center)
