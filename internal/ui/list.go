package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bookshelf/internal/book"
	"github.com/five82/bookshelf/internal/catalog"
	"github.com/five82/bookshelf/internal/listing"
)

// listState holds the book list screen.
type listState struct {
	ctl       listing.Model
	open      bool
	search    textinput.Model
	searching bool
	selected  int

	// Position restored when the list is opened again.
	lastTerm string
	lastPage int
}

func newListState() listState {
	ti := textinput.New()
	ti.Placeholder = "Search by title, author, ISBN..."
	ti.CharLimit = 120
	ti.Prompt = ""
	return listState{search: ti, lastPage: 1}
}

// openList creates a fresh list controller at the remembered position.
func (m *Model) openList() tea.Cmd {
	if m.list.open {
		m.closeList()
	}
	m.list.ctl = listing.New(m.service, listing.Options{
		Context:  m.ctx,
		PageSize: m.config.PageSize,
		Debounce: m.config.Debounce,
		Term:     m.list.lastTerm,
		Page:     m.list.lastPage,
	})
	m.list.open = true
	m.list.search.SetValue(m.list.lastTerm)
	return m.list.ctl.Init()
}

// closeList remembers the position and stops all list activity.
func (m *Model) closeList() {
	m.list.lastTerm = m.list.ctl.Term()
	m.list.lastPage = m.list.ctl.Page()
	m.list.ctl.Close()
	m.list.open = false
	m.list.searching = false
	m.list.search.Blur()
}

// handleSearchKey feeds the search box while it has focus.
func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Confirm):
		m.list.searching = false
		m.list.search.Blur()
		return nil
	case key.Matches(msg, m.keys.ClearSearch):
		return m.clearSearch()
	}

	before := m.list.search.Value()
	var cmd tea.Cmd
	m.list.search, cmd = m.list.search.Update(msg)
	if value := m.list.search.Value(); value != before {
		return tea.Batch(cmd, m.list.ctl.SetSearchText(value))
	}
	return cmd
}

func (m *Model) clearSearch() tea.Cmd {
	m.list.search.SetValue("")
	m.list.selected = 0
	return tea.Batch(m.list.ctl.ClearSearch(), m.startSpinner())
}

// handleListKey processes keyboard input for the list screen.
func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	items := m.list.ctl.Items()
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Search):
		m.list.searching = true
		m.list.search.CursorEnd()
		return m.list.search.Focus()
	case key.Matches(msg, m.keys.ClearSearch):
		return m.clearSearch()
	case key.Matches(msg, m.keys.Down):
		if m.list.selected < len(items)-1 {
			m.list.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.list.selected > 0 {
			m.list.selected--
		}
	case key.Matches(msg, m.keys.Open):
		if b, ok := m.selectedBook(); ok {
			return m.navigate(Route{Screen: ScreenDetail, ISBN: b.ISBN})
		}
	case key.Matches(msg, m.keys.Create):
		return m.navigate(Route{Screen: ScreenCreate})
	case key.Matches(msg, m.keys.NextPage):
		cmd = m.list.ctl.Next()
	case key.Matches(msg, m.keys.PrevPage):
		cmd = m.list.ctl.Previous()
	case key.Matches(msg, m.keys.FirstPage):
		cmd = m.list.ctl.First()
	case key.Matches(msg, m.keys.LastPage):
		cmd = m.list.ctl.Last()
	case key.Matches(msg, m.keys.JumpToPage):
		if total := m.list.ctl.TotalPages(); total > 1 {
			m.modal = newJumpModal(m.list.ctl.Page(), total)
		}
	case key.Matches(msg, m.keys.Refresh):
		cmd = m.list.ctl.Refetch()
	}

	if cmd != nil {
		m.list.selected = 0
		return tea.Batch(cmd, m.startSpinner())
	}
	return nil
}

// goToPage handles a page picked in the jump dialog.
func (m *Model) goToPage(page int) tea.Cmd {
	if m.route.Screen != ScreenList || !m.list.open {
		return nil
	}
	cmd := m.list.ctl.GoToPage(page)
	if cmd == nil {
		return nil
	}
	m.list.selected = 0
	return tea.Batch(cmd, m.startSpinner())
}

// afterPageLoaded keeps selection and connection state in step with a result.
func (m *Model) afterPageLoaded(msg listing.PageLoadedMsg) {
	if m.route.Screen != ScreenList {
		return
	}
	if n := len(m.list.ctl.Items()); m.list.selected >= n {
		m.list.selected = max(0, n-1)
	}
	if !m.list.ctl.Loading() {
		m.noteResult(msg.Err)
	}
}

func (m Model) selectedBook() (book.Book, bool) {
	items := m.list.ctl.Items()
	if m.list.selected < 0 || m.list.selected >= len(items) {
		return book.Book{}, false
	}
	return items[m.list.selected], true
}

// renderList renders the search box, book rows and pager.
func (m Model) renderList() string {
	styles := m.theme.Styles()
	ctl := m.list.ctl
	var b strings.Builder

	label := styles.MutedText.Render("Search  ")
	if m.list.searching {
		label = styles.AccentText.Render("Search  ")
	}
	b.WriteString(" " + label + m.list.search.View())
	if ctl.Term() != "" && ctl.Term() != strings.TrimSpace(ctl.RawText()) {
		b.WriteString(styles.FaintText.Render("  (showing " + fmt.Sprintf("%q", ctl.Term()) + ")"))
	}
	b.WriteString("\n")

	height := m.contentHeight() - 1
	pager := m.renderPagerBlock(styles)
	if pager != "" {
		height -= 2
	}

	var body string
	switch items := ctl.Items(); {
	case len(items) == 0 && ctl.Loading():
		body = "\n " + m.spinner.View() + styles.MutedText.Render(" Loading books...")
	case len(items) == 0:
		body = m.renderEmptyList(styles)
	default:
		body = m.renderRows(styles, items)
	}

	title := "Books"
	if ctl.TotalItems() > 0 {
		title = fmt.Sprintf("Books (%d)", ctl.TotalItems())
	}
	b.WriteString(m.renderBox(title, body, m.width, height, !m.list.searching))
	if pager != "" {
		b.WriteString("\n")
		b.WriteString(pager)
	}
	return b.String()
}

func (m Model) renderEmptyList(styles Styles) string {
	if m.list.ctl.Err() != nil {
		return "\n " + styles.DangerText.Render("Could not load books") + "\n " +
			styles.MutedText.Render(catalog.Message(m.list.ctl.Err()))
	}
	if m.list.ctl.Searching() {
		return "\n " + styles.Text.Render("No books match your search") + "\n " +
			styles.MutedText.Render("Try different search terms or clear the search (ctrl+x)")
	}
	return "\n " + styles.Text.Render("No books available") + "\n " +
		styles.MutedText.Render("Press n to add the first one")
}

// listColumns returns the widths of title, author, ISBN and price.
func listColumns(width int) (title, author, isbn, price int) {
	inner := width - 4
	isbn = 18
	if width < LayoutCompactWidth {
		return max(10, inner-isbn-1), 0, isbn, 0
	}
	author = 24
	price = 10
	title = max(10, inner-author-isbn-price-3)
	return title, author, isbn, price
}

func (m Model) renderRows(styles Styles, items []book.Book) string {
	titleW, authorW, isbnW, priceW := listColumns(m.width)
	row := func(title, author, isbn, price string) string {
		cols := []string{pad(title, titleW)}
		if authorW > 0 {
			cols = append(cols, pad(author, authorW))
		}
		cols = append(cols, pad(isbn, isbnW))
		if priceW > 0 {
			cols = append(cols, pad(price, priceW))
		}
		return strings.Join(cols, " ")
	}

	var b strings.Builder
	b.WriteString(styles.FaintText.Render(row("Title", "Author", "ISBN", "Price")))
	for i, bk := range items {
		b.WriteString("\n")
		line := row(bk.DisplayTitle(), bk.Author, bk.ISBN, bk.Price)
		if i == m.list.selected {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
	}
	return b.String()
}

// renderPagerBlock returns the pager and summary, or "" for a single page.
func (m Model) renderPagerBlock(styles Styles) string {
	ctl := m.list.ctl
	if ctl.TotalPages() <= 1 {
		return ""
	}
	return " " + renderPager(styles, ctl.Window(), ctl.Page(), ctl.HasPrevious(), ctl.HasNext()) +
		"\n " + styles.MutedText.Render(ctl.Summary())
}

// pagerLabels turns a page window into display labels.
func pagerLabels(pages []int) []string {
	labels := make([]string, 0, len(pages))
	for _, p := range pages {
		if listing.IsGap(p) {
			labels = append(labels, "…")
			continue
		}
		labels = append(labels, fmt.Sprintf("%d", p))
	}
	return labels
}

// renderPager renders previous/next arrows around the page window with the
// current page highlighted.
func renderPager(styles Styles, pages []int, current int, hasPrev, hasNext bool) string {
	parts := make([]string, 0, len(pages)+2)
	if hasPrev {
		parts = append(parts, styles.PagerPage.Render("‹"))
	} else {
		parts = append(parts, styles.PagerGap.Render("‹"))
	}
	for i, label := range pagerLabels(pages) {
		switch {
		case listing.IsGap(pages[i]):
			parts = append(parts, styles.PagerGap.Render(label))
		case pages[i] == current:
			parts = append(parts, styles.PagerCurrent.Render(label))
		default:
			parts = append(parts, styles.PagerPage.Render(label))
		}
	}
	if hasNext {
		parts = append(parts, styles.PagerPage.Render("›"))
	} else {
		parts = append(parts, styles.PagerGap.Render("›"))
	}
	return strings.Join(parts, "")
}

// listStatus shows refresh failures for the list.
func (m Model) listStatus(styles Styles) string {
	err := m.list.ctl.Err()
	if err == nil || len(m.list.ctl.Items()) == 0 {
		return ""
	}
	return styles.DangerText.Render(truncate("Could not refresh: "+catalog.Message(err)+" (r to retry)", m.width))
}
