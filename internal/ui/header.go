package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bookshelf/internal/catalog"
)

// renderHeader renders the status bar: logo, backend and activity.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := styles.Header.GetBackground()
	sep := styles.Header.Padding(0).Render("  ")

	on := func(s lipgloss.Style) lipgloss.Style { return s.Background(bg) }

	parts := []string{on(styles.Logo).Render("bookshelf")}
	if m.connErr != nil {
		parts = append(parts, on(styles.DangerText).Render("● OFFLINE"))
	} else {
		parts = append(parts, on(styles.SuccessText).Render("● ON"))
	}
	if m.width >= LayoutCompactWidth {
		parts = append(parts, on(styles.MutedText).Render(truncateMiddle(m.apiURL(), 40)))
	}
	parts = append(parts, on(styles.Text).Render(m.screenTitle()))
	if m.busy() {
		parts = append(parts, on(styles.WarningText).Render(m.spinner.View()+"Loading"))
	}
	if m.connErr != nil && m.width >= LayoutCompactWidth {
		parts = append(parts, on(styles.DangerText).Render(catalog.Message(m.connErr)))
	}

	return styles.Header.Width(m.width).MaxHeight(1).Render(strings.Join(parts, sep))
}

// screenTitle names the current screen for the header.
func (m Model) screenTitle() string {
	switch m.route.Screen {
	case ScreenCreate:
		return "New book"
	case ScreenDetail:
		return "Book " + m.route.ISBN
	case ScreenEdit:
		return "Edit " + m.route.ISBN
	case ScreenLogs:
		return "Activity log"
	default:
		return "Books"
	}
}

func (m Model) apiURL() string {
	if c, ok := m.service.(*catalog.Client); ok {
		return c.BaseURL()
	}
	return m.config.APIURL
}

// isNetworkError reports whether err means the backend was unreachable.
func isNetworkError(err error) bool {
	return errors.Is(err, catalog.ErrNetwork)
}

// renderCommandBar renders the command hints bar for the current screen.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := styles.Header.GetBackground()

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.route.Screen {
	case ScreenDetail:
		commands = []cmd{
			{"e", "Edit"},
			{"r", "Reload"},
			{"j/k", "Scroll"},
			{"esc", "Back"},
			{"?", "More"},
		}
	case ScreenCreate, ScreenEdit:
		commands = []cmd{
			{"tab", "Next"},
			{"shift+tab", "Prev"},
			{"ctrl+s", "Save"},
			{"esc", "Cancel"},
		}
	case ScreenLogs:
		followLabel := "Pause"
		if !m.logs.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"g/G", "Top/Bottom"},
			{"esc", "Back"},
			{"?", "More"},
		}
	default:
		if m.list.searching {
			commands = []cmd{
				{"enter", "Done"},
				{"ctrl+x", "Clear"},
				{"esc", "Done"},
			}
			break
		}
		commands = []cmd{
			{"/", "Search"},
			{"h/l", "Page"},
			{":", "Go to"},
			{"enter", "Open"},
			{"n", "New"},
			{"L", "Log"},
			{"?", "More"},
		}
	}

	colon := styles.FaintText.Background(bg).Render(":")
	sep := styles.Text.Background(bg).Render("  ")

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			styles.AccentText.Background(bg).Render(c.key)+colon+styles.MutedText.Background(bg).Render(c.desc))
	}

	// Theme indicator
	segments = append(segments,
		styles.AccentText.Background(bg).Render("T")+colon+styles.FaintText.Background(bg).Render(m.theme.Name))

	return styles.Header.Width(m.width).MaxHeight(1).Render(strings.Join(segments, sep))
}
