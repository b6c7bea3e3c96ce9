package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderBox draws content in a rounded border with the title set into the
// top edge. width and height include the border.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	if width < 4 || height < 3 {
		return content
	}
	color := lipgloss.Color(m.theme.Border)
	if focused {
		color = lipgloss.Color(m.theme.BorderFocus)
	}
	border := lipgloss.RoundedBorder()
	inner := width - 2

	label := ""
	if title != "" {
		label = " " + truncate(title, inner-4) + " "
	}
	fill := max(0, inner-1-lipgloss.Width(label))
	top := lipgloss.NewStyle().Foreground(color).Render(
		border.TopLeft + border.Top + label + strings.Repeat(border.Top, fill) + border.TopRight)

	body := lipgloss.NewStyle().
		Border(border, false, true, true, true).
		BorderForeground(color).
		Padding(0, 1).
		Width(inner).
		Height(height - 2).
		MaxHeight(height - 1).
		Render(content)

	return top + "\n" + body
}

// fieldLine renders a "Label  value" pair.
func fieldLine(styles Styles, label, value string) string {
	if strings.TrimSpace(value) == "" {
		value = styles.FaintText.Render("-")
	} else {
		value = styles.Text.Render(value)
	}
	return styles.Label.Render(label) + value
}
