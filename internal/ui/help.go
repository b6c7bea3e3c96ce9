package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// helpSectionTitles label the groups returned by keyMap.FullHelp.
var helpSectionTitles = []string{"List", "Pages", "Detail", "Form", "Log", "General"}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder

	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	sections := helpSections(m.keys)
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")

		for _, item := range section.items {
			b.WriteString(styles.Key.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}

		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(40)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
	)
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

// helpSections builds the overlay content from the key bindings.
func helpSections(keys keyMap) []helpSection {
	groups := keys.FullHelp()
	sections := make([]helpSection, 0, len(groups))
	for i, group := range groups {
		title := ""
		if i < len(helpSectionTitles) {
			title = helpSectionTitles[i]
		}
		sections = append(sections, helpSection{title: title, items: helpItems(group)})
	}
	return sections
}

func helpItems(bindings []key.Binding) []helpItem {
	items := make([]helpItem, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		if h.Key == "" {
			continue
		}
		items = append(items, helpItem{key: h.Key, desc: h.Desc})
	}
	return items
}
