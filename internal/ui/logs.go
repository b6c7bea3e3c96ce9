package ui

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bookshelf/internal/logtail"
)

// logState holds the activity log screen.
type logState struct {
	tail     *logtail.Tailer
	watcher  *logtail.Watcher
	session  int
	lines    []string
	follow   bool
	err      error
	returnTo Route
	viewport viewport.Model
}

func newLogState() logState {
	return logState{follow: true, viewport: viewport.New(0, 0)}
}

// logLinesMsg carries lines read from the log file.
type logLinesMsg struct {
	session int
	lines   []string
	err     error
}

// logChangedMsg signals that the log file was written.
type logChangedMsg struct {
	session int
}

// openLogs starts tailing the log file, preferring change notifications
// and falling back to polling.
func (m *Model) openLogs() tea.Cmd {
	m.stopLogs()
	m.logs.session++
	m.logs.lines = nil
	m.logs.err = nil
	m.logs.follow = true
	m.logs.tail = logtail.New(m.config.LogFile, LogBacklogLines)

	w, err := logtail.Watch(m.config.LogFile)
	if err != nil {
		log.Printf("ui: watch log file failed, polling instead: %v", err)
	} else {
		m.logs.watcher = w
	}
	m.updateLogViewport()
	return pollLogCmd(m.logs.tail, m.logs.session)
}

// stopLogs stops watching and invalidates in-flight reads.
func (m *Model) stopLogs() {
	if m.logs.watcher != nil {
		if err := m.logs.watcher.Close(); err != nil {
			log.Printf("ui: close log watcher: %v", err)
		}
		m.logs.watcher = nil
	}
	m.logs.session++
}

func pollLogCmd(tail *logtail.Tailer, session int) tea.Cmd {
	if tail == nil {
		return nil
	}
	return func() tea.Msg {
		lines, err := tail.Poll()
		return logLinesMsg{session: session, lines: lines, err: err}
	}
}

func waitLogCmd(w *logtail.Watcher, session int) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.Changes():
			return logChangedMsg{session: session}
		case <-w.Done():
			return nil
		}
	}
}

func logTickCmd(session int) tea.Cmd {
	return tea.Tick(LogPollInterval, func(time.Time) tea.Msg {
		return logChangedMsg{session: session}
	})
}

// handleLogLines appends new lines and waits for the next change. Reads
// from an earlier session are dropped.
func (m *Model) handleLogLines(msg logLinesMsg) tea.Cmd {
	if msg.session != m.logs.session || m.route.Screen != ScreenLogs {
		return nil
	}
	m.logs.err = msg.err
	if len(msg.lines) > 0 {
		m.logs.lines = append(m.logs.lines, msg.lines...)
		m.logs.lines = trimLogBuffer(m.logs.lines, LogBufferLimit)
		m.updateLogViewport()
	}
	if m.logs.watcher != nil {
		return waitLogCmd(m.logs.watcher, m.logs.session)
	}
	return logTickCmd(m.logs.session)
}

// handleLogsKey processes keyboard input for the log screen.
func (m *Model) handleLogsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			m.logs.viewport.GotoBottom()
		}
		return nil
	case key.Matches(msg, m.keys.Top):
		m.logs.follow = false
		m.logs.viewport.GotoTop()
		return nil
	case key.Matches(msg, m.keys.Bottom):
		m.logs.follow = true
		m.logs.viewport.GotoBottom()
		return nil
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logs.follow = false
		m.logs.viewport.HalfViewUp()
		return nil
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logs.viewport.HalfViewDown()
		return nil
	}

	var cmd tea.Cmd
	m.logs.viewport, cmd = m.logs.viewport.Update(msg)
	if !m.logs.viewport.AtBottom() {
		m.logs.follow = false
	}
	return cmd
}

func (m *Model) resizeLogs() {
	m.logs.viewport.Width = max(10, m.width-4)
	m.logs.viewport.Height = max(1, m.contentHeight()-2)
	m.updateLogViewport()
}

// updateLogViewport re-renders the log lines, keeping the tail in view
// while following.
func (m *Model) updateLogViewport() {
	m.logs.viewport.SetContent(m.renderLogContent())
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

func (m Model) renderLogContent() string {
	styles := m.theme.Styles()
	if len(m.logs.lines) == 0 {
		return styles.FaintText.Render("No activity yet.")
	}
	width := m.logs.viewport.Width
	var b strings.Builder
	for i, raw := range m.logs.lines {
		if i > 0 {
			b.WriteString("\n")
		}
		entry := parseLogLine(raw)
		line := truncate(formatLogEntry(entry), width)
		switch entry.Level {
		case "ERROR":
			b.WriteString(styles.DangerText.Render(line))
		case "WARN":
			b.WriteString(styles.WarningText.Render(line))
		default:
			b.WriteString(styles.Text.Render(line))
		}
	}
	return b.String()
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	title := "Activity log"
	if m.logs.tail != nil {
		title += "  " + truncateMiddle(m.logs.tail.Path(), max(10, m.width/2))
	}
	return m.renderBox(title, m.logs.viewport.View(), m.width, m.contentHeight(), true)
}

// logStatus shows follow mode and read errors.
func (m Model) logStatus(styles Styles) string {
	if m.logs.err != nil {
		return styles.DangerText.Render(truncate("Cannot read log: "+m.logs.err.Error(), m.width))
	}
	mode := styles.SuccessText.Render("following")
	if !m.logs.follow {
		mode = styles.WarningText.Render("paused")
	}
	source := "watching"
	if m.logs.watcher == nil {
		source = fmt.Sprintf("polling every %s", LogPollInterval)
	}
	return mode + styles.MutedText.Render(fmt.Sprintf("  %d lines  %s", len(m.logs.lines), source))
}

// trimLogBuffer trims the log buffer to the limit by removing oldest entries.
func trimLogBuffer(lines []string, limit int) []string {
	if overflow := len(lines) - limit; overflow > 0 {
		return append([]string(nil), lines[overflow:]...)
	}
	return lines
}
