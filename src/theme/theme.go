// Package theme holds the console colors and styles.
package theme

import "github.com/charmbracelet/lipgloss"

// Colors is a console color palette.
type Colors struct {
	Primary   lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

// CurrentTheme is the palette used by the console.
var CurrentTheme = Colors{
	Primary:   lipgloss.Color("#00ff00"),
	Text:      lipgloss.Color("#ffffff"),
	TextMuted: lipgloss.Color("#808080"),
	Warning:   lipgloss.Color("#ffff00"),
	Error:     lipgloss.Color("#ff5f5f"),
}

// Styles are the rendered styles derived from a palette.
type Styles struct {
	Banner  lipgloss.Style
	Text    lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles builds styles from the current theme. With plain set, every
// style renders text unchanged.
func NewStyles(plain bool) Styles {
	if plain {
		s := lipgloss.NewStyle()
		return Styles{Banner: s, Text: s, Muted: s, Warning: s, Error: s}
	}
	c := CurrentTheme
	return Styles{
		Banner: lipgloss.NewStyle().
			Foreground(c.Primary).
			Border(lipgloss.NormalBorder()).
			BorderForeground(c.Primary).
			Align(lipgloss.Center).
			Padding(0, 1),
		Text:    lipgloss.NewStyle().Foreground(c.Primary),
		Muted:   lipgloss.NewStyle().Foreground(c.TextMuted),
		Warning: lipgloss.NewStyle().Foreground(c.Warning).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(c.Error),
	}
}

// RenderBanner renders title in a bordered box at least width cells wide.
func (s Styles) RenderBanner(title string, width int) string {
	style := s.Banner
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(title)
}
