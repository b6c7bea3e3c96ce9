package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/five82/bookshelf/internal/book"
	"github.com/five82/bookshelf/internal/catalog"
)

// detailState holds the single book screen.
type detailState struct {
	isbn     string
	book     *book.Book
	loading  bool
	err      error
	seq      int
	cancel   context.CancelFunc
	viewport viewport.Model
}

func newDetailState() detailState {
	return detailState{viewport: viewport.New(0, 0)}
}

// stop cancels any in-flight lookup.
func (d *detailState) stop() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.seq++
	d.loading = false
}

// bookLoadedMsg carries a lookup result to the screen that asked for it.
type bookLoadedMsg struct {
	screen Screen
	seq    int
	isbn   string
	book   book.Book
	err    error
}

// fetchBookCmd looks up one book by ISBN.
func fetchBookCmd(ctx context.Context, svc catalog.Service, screen Screen, seq int, isbn string) tea.Cmd {
	return func() tea.Msg {
		b, err := svc.FetchByISBN(ctx, isbn)
		return bookLoadedMsg{screen: screen, seq: seq, isbn: isbn, book: b, err: err}
	}
}

func (m *Model) openDetail(isbn string) tea.Cmd {
	m.detail.stop()
	ctx, cancel := context.WithCancel(m.ctx)
	m.detail.cancel = cancel
	m.detail.isbn = isbn
	m.detail.book = nil
	m.detail.err = nil
	m.detail.loading = true
	m.detail.viewport.GotoTop()
	return fetchBookCmd(ctx, m.service, ScreenDetail, m.detail.seq, isbn)
}

// handleBookLoaded routes a lookup result to the detail or edit screen,
// dropping results for screens that have since moved on.
func (m *Model) handleBookLoaded(msg bookLoadedMsg) tea.Cmd {
	switch msg.screen {
	case ScreenDetail:
		if m.route.Screen != ScreenDetail || msg.seq != m.detail.seq || msg.isbn != m.detail.isbn {
			return nil
		}
		m.detail.loading = false
		m.detail.cancel = nil
		m.noteResult(msg.err)
		if msg.err != nil {
			m.detail.err = msg.err
			m.updateDetailViewport()
			return nil
		}
		b := msg.book
		m.detail.book = &b
		m.updateDetailViewport()
	case ScreenEdit:
		return m.handleFormBookLoaded(msg)
	}
	return nil
}

// handleDetailKey processes keyboard input for the detail screen.
func (m *Model) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Edit):
		if m.detail.book != nil {
			return m.navigate(Route{Screen: ScreenEdit, ISBN: m.detail.book.ISBN})
		}
		return nil
	case key.Matches(msg, m.keys.Refresh):
		return tea.Batch(m.openDetail(m.detail.isbn), m.startSpinner())
	case key.Matches(msg, m.keys.HalfPageDown):
		m.detail.viewport.HalfViewDown()
		return nil
	case key.Matches(msg, m.keys.HalfPageUp):
		m.detail.viewport.HalfViewUp()
		return nil
	}
	var cmd tea.Cmd
	m.detail.viewport, cmd = m.detail.viewport.Update(msg)
	return cmd
}

func (m *Model) resizeDetail() {
	m.detail.viewport.Width = max(10, m.width-4)
	m.detail.viewport.Height = max(1, m.contentHeight()-2)
	m.updateDetailViewport()
}

func (m *Model) updateDetailViewport() {
	m.detail.viewport.SetContent(m.renderDetailContent())
}

// renderDetailContent renders the book fields and wrapped abstract.
func (m Model) renderDetailContent() string {
	styles := m.theme.Styles()
	d := m.detail

	if d.err != nil {
		if errors.Is(d.err, catalog.ErrNotFound) {
			return styles.DangerText.Render("Book not found") + "\n\n" +
				styles.MutedText.Render(fmt.Sprintf("No book has ISBN %s.", d.isbn))
		}
		return styles.DangerText.Render(catalog.Message(d.err)) + "\n\n" +
			styles.MutedText.Render("Press r to retry.")
	}
	if d.book == nil {
		return ""
	}

	b := d.book
	var sb strings.Builder
	sb.WriteString(styles.Text.Bold(true).Render(b.Title))
	sb.WriteString("\n")
	if b.Subtitle != "" {
		sb.WriteString(styles.MutedText.Render(b.Subtitle))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	lines := []struct{ label, value string }{
		{"Author", b.Author},
		{"Publisher", b.Publisher},
		{"ISBN", b.ISBN},
		{"Pages", pagesLabel(b.NumPages)},
		{"Price", b.Price},
		{"Cover", b.Cover},
		{"ID", b.ID.String()},
	}
	for _, l := range lines {
		sb.WriteString(fieldLine(styles, l.label, l.value))
		sb.WriteString("\n")
	}

	if abstract := strings.TrimSpace(b.Abstract); abstract != "" {
		width := max(20, m.detail.viewport.Width-2)
		sb.WriteString("\n")
		sb.WriteString(styles.AccentText.Bold(true).Render("Abstract"))
		sb.WriteString("\n")
		sb.WriteString(styles.Text.Render(wordwrap.String(abstract, width)))
	}
	return sb.String()
}

func pagesLabel(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}

// renderDetail renders the detail screen.
func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	title := "Book " + m.detail.isbn
	if m.detail.book != nil {
		title = m.detail.book.DisplayTitle()
	}
	content := m.detail.viewport.View()
	if m.detail.loading {
		content = m.spinner.View() + styles.MutedText.Render(" Loading book...")
	}
	return m.renderBox(title, content, m.width, m.contentHeight(), true)
}
