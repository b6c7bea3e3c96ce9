package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines colors for the UI.
type Theme struct {
	Name string

	Surface     string // Header and command bar
	SelectionBg string
	SelectionFg string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Header   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style
	Label    lipgloss.Style
	Key      lipgloss.Style

	PagerCurrent lipgloss.Style
	PagerPage    lipgloss.Style
	PagerGap     lipgloss.Style
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)).Bold(true),
		WarningText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		DangerText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Background(lipgloss.Color(t.Surface)).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionFg)),

		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Width(12),

		Key: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Width(12),

		PagerCurrent: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Accent)).
			Foreground(lipgloss.Color(t.SelectionFg)).
			Bold(true).
			Padding(0, 1),

		PagerPage: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		PagerGap: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Faint)).
			Padding(0, 1),
	}
}

// Theme definitions

var themes = map[string]Theme{
	"Paper": paperTheme(),
	"Night": nightTheme(),
	"Slate": slateTheme(),
}

var themeOrder = []string{"Paper", "Night", "Slate"}

// GetTheme returns a theme by name, or the first theme when unknown.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return paperTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func paperTheme() Theme {
	// Warm neutrals, readable on dark and light terminals alike.
	return Theme{
		Name:        "Paper",
		Surface:     "#3c3836",
		SelectionBg: "#d5c4a1",
		SelectionFg: "#282828",
		Border:      "#7c6f64",
		BorderFocus: "#d79921",
		Text:        "#ebdbb2",
		Muted:       "#a89984",
		Faint:       "#7c6f64",
		Accent:      "#d79921",
		Success:     "#98971a",
		Warning:     "#fabd2f",
		Danger:      "#cc241d",
	}
}

func nightTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name:        "Night",
		Surface:     "#192330",
		SelectionBg: "#2b3b51",
		SelectionFg: "#cdcecf",
		Border:      "#39506d",
		BorderFocus: "#719cd6",
		Text:        "#cdcecf",
		Muted:       "#738091",
		Faint:       "#71839b",
		Accent:      "#719cd6",
		Success:     "#81b29a",
		Warning:     "#dbc074",
		Danger:      "#c94f6d",
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name:        "Slate",
		Surface:     "#0f172a",
		SelectionBg: "#0284c7",
		SelectionFg: "#f8fafc",
		Border:      "#334155",
		BorderFocus: "#38bdf8",
		Text:        "#f1f5f9",
		Muted:       "#94a3b8",
		Faint:       "#64748b",
		Accent:      "#38bdf8",
		Success:     "#22c55e",
		Warning:     "#f59e0b",
		Danger:      "#ef4444",
	}
}
