package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// goToPageMsg asks the list to load a specific page.
type goToPageMsg struct {
	page int
}

// jumpModal prompts for a page number.
type jumpModal struct {
	input      textinput.Model
	totalPages int
	err        string
}

func newJumpModal(current, totalPages int) jumpModal {
	ti := textinput.New()
	ti.Placeholder = strconv.Itoa(current)
	ti.CharLimit = 6
	ti.Width = 10
	ti.Prompt = ""
	ti.Validate = func(s string) error {
		for _, r := range s {
			if r < '0' || r > '9' {
				return fmt.Errorf("digits only")
			}
		}
		return nil
	}
	ti.Focus()
	return jumpModal{input: ti, totalPages: totalPages}
}

func (j jumpModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Back):
			return j, nil, true
		case key.Matches(msg, keys.Confirm):
			value := strings.TrimSpace(j.input.Value())
			if value == "" {
				return j, nil, true
			}
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 || n > j.totalPages {
				j.err = fmt.Sprintf("Enter a page between 1 and %d", j.totalPages)
				return j, nil, false
			}
			return j, func() tea.Msg { return goToPageMsg{page: n} }, true
		}
	}

	var cmd tea.Cmd
	j.input, cmd = j.input.Update(msg)
	j.err = ""
	return j, cmd, false
}

func (j jumpModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Go to page"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 24)))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("Page (1-%d): ", j.totalPages)))
	b.WriteString(j.input.View())
	if j.err != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.DangerText.Render(j.err))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("enter") + styles.MutedText.Render(":Go  "))
	b.WriteString(styles.AccentText.Render("esc") + styles.MutedText.Render(":Cancel"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(36).
		Render(b.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "))
}
