// Package ui provides the visual styling for the careerpilot TUI.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Dark palette (default)
	DarkBackground = lipgloss.Color("#10182b")
	DarkForeground = lipgloss.Color("#f2f2f2")
	DarkPrimary    = lipgloss.Color("#64b5f6") // Blue
	DarkAccent     = lipgloss.Color("#81c784") // Green
	DarkMuted      = lipgloss.Color("#5c6b85")
	DarkBorder     = lipgloss.Color("#2a3850")

	// Light palette
	LightBackground = lipgloss.Color("#f4f5f6")
	LightForeground = lipgloss.Color("#101f38")
	LightPrimary    = lipgloss.Color("#1565c0")
	LightAccent     = lipgloss.Color("#2e7d32")
	LightMuted      = lipgloss.Color("#8a94a6")
	LightBorder     = lipgloss.Color("#dce0e5")

	// Semantic colors, same in both modes
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#81c784")
	Warning     = lipgloss.Color("#ffc107")
)

// Theme holds the current color scheme.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		IsDark:     false,
	}
}

// ThemeNamed maps the config value to a theme; anything but "light" is
// dark.
func ThemeNamed(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// Styles holds the styled components used by the chat and
// recommendations views.
type Styles struct {
	Theme Theme

	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style

	Title lipgloss.Style
	Body  lipgloss.Style
	Muted lipgloss.Style
	Bold  lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserInput      lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Banner  lipgloss.Style

	Card      lipgloss.Style
	CardTitle lipgloss.Style
	Badge     lipgloss.Style
}

// NewStyles creates a Styles instance for the given theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),
		Content: lipgloss.NewStyle().
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),
		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),
		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),
		Bold: lipgloss.NewStyle().
			Bold(true),

		UserLabel: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginTop(1),
		AssistantLabel: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			MarginTop(1),
		UserInput: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(Success),
		Banner: lipgloss.NewStyle().
			Foreground(theme.Background).
			Background(theme.Accent).
			Padding(0, 1),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1).
			MarginLeft(2),
		CardTitle: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),
		Badge: lipgloss.NewStyle().
			Foreground(theme.Background).
			Padding(0, 1).
			Bold(true),
	}
}

// TierColor maps a recommendation tier to its badge color.
func TierColor(tier string) lipgloss.Color {
	switch tier {
	case "strong":
		return Success
	case "good":
		return DarkPrimary
	case "fair":
		return Warning
	default:
		return Destructive
	}
}
