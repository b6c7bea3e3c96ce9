package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bookshelf/internal/book"
	"github.com/five82/bookshelf/internal/catalog"
)

const (
	DefaultPageSize = 10
	DefaultDebounce = 300 * time.Millisecond
)

// Fetcher loads one page of a filtered listing.
type Fetcher interface {
	FetchPage(ctx context.Context, page, pageSize int, term string) (catalog.Page, error)
}

// Options configures a Model. Zero values use defaults. Term and Page
// restore a previous position, e.g. when returning to the list.
type Options struct {
	Context  context.Context
	PageSize int
	Debounce time.Duration
	Term     string
	Page     int
}

// PageLoadedMsg carries the outcome of a page fetch back into Update.
type PageLoadedMsg struct {
	ID     int
	Gen    int
	Page   int
	Term   string
	Result catalog.Page
	Err    error
}

// debounceMsg fires when the search box has been quiet for the debounce
// interval. Only the one carrying the latest tag commits.
type debounceMsg struct {
	id   int
	tag  int
	text string
}

var lastID atomic.Int64

func nextID() int {
	return int(lastID.Add(1))
}

// Model keeps a filtered, paginated book list in step with the backend.
// It is owned by a single view; every state change that needs data returns
// a tea.Cmd for the caller to run.
type Model struct {
	id       int
	ctx      context.Context
	fetcher  Fetcher
	debounce time.Duration

	rawText    string
	term       string
	page       int
	pageSize   int
	totalItems int
	items      []book.Book
	loading    bool
	err        error

	gen         int
	debounceTag int
	cancel      context.CancelFunc
	closed      bool
}

// New returns a Model positioned at opts.Term and opts.Page, by default
// page 1 with no search term.
func New(fetcher Fetcher, opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return Model{
		id:       nextID(),
		ctx:      ctx,
		fetcher:  fetcher,
		debounce: debounce,
		rawText:  opts.Term,
		term:     opts.Term,
		page:     max(1, opts.Page),
		pageSize: pageSize,
	}
}

// Init starts the first load.
func (m *Model) Init() tea.Cmd {
	return m.Refetch()
}

// Update applies debounce ticks and fetch results. Messages from superseded
// fetches, stale debounce ticks and anything arriving after Close are dropped.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case debounceMsg:
		if m.closed || msg.id != m.id || msg.tag != m.debounceTag {
			return m, nil
		}
		return m, m.commit(msg.text)

	case PageLoadedMsg:
		if m.closed || msg.ID != m.id || msg.Gen != m.gen {
			return m, nil
		}
		m.loading = false
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		switch {
		case msg.Err == nil:
			m.items = msg.Result.Items
			m.totalItems = max(0, msg.Result.Total)
			m.err = nil
		case errors.Is(msg.Err, catalog.ErrNotFound):
			m.items = nil
			m.totalItems = 0
			m.err = nil
		default:
			log.Printf("listing: fetch page %d (term %q) failed: %v", msg.Page, msg.Term, msg.Err)
			m.err = msg.Err
		}
	}
	return m, nil
}

// SetSearchText records text as typed and restarts the debounce timer.
func (m *Model) SetSearchText(text string) tea.Cmd {
	if m.closed {
		return nil
	}
	m.rawText = text
	m.debounceTag++
	id, tag := m.id, m.debounceTag
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return debounceMsg{id: id, tag: tag, text: text}
	})
}

// ClearSearch drops both the typed and committed text and reloads page 1.
func (m *Model) ClearSearch() tea.Cmd {
	if m.closed {
		return nil
	}
	m.debounceTag++
	m.rawText = ""
	m.term = ""
	m.page = 1
	return m.Refetch()
}

func (m *Model) commit(text string) tea.Cmd {
	if text == m.term {
		return nil
	}
	m.term = text
	m.page = 1
	return m.Refetch()
}

// GoToPage moves to page n. Requests outside 1..TotalPages are ignored.
func (m *Model) GoToPage(n int) tea.Cmd {
	if m.closed || n < 1 || n > m.TotalPages() || n == m.page {
		return nil
	}
	m.page = n
	return m.Refetch()
}

func (m *Model) Next() tea.Cmd { return m.GoToPage(m.page + 1) }
func (m *Model) Previous() tea.Cmd { return m.GoToPage(m.page - 1) }
func (m *Model) First() tea.Cmd { return m.GoToPage(1) }
func (m *Model) Last() tea.Cmd { return m.GoToPage(m.TotalPages()) }

// Refetch supersedes any in-flight request and loads the current page for
// the committed term.
func (m *Model) Refetch() tea.Cmd {
	if m.closed || m.fetcher == nil {
		return nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.gen++
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.loading = true

	fetcher := m.fetcher
	id, gen, page, size, term := m.id, m.gen, m.page, m.pageSize, m.term
	return func() tea.Msg {
		result, err := fetcher.FetchPage(ctx, page, size, term)
		return PageLoadedMsg{ID: id, Gen: gen, Page: page, Term: term, Result: result, Err: err}
	}
}

// Close tears the model down. The in-flight request is cancelled and no
// later message changes state.
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.loading = false
	m.debounceTag++
	m.gen++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m Model) RawText() string { return m.rawText }
func (m Model) Term() string { return m.term }
func (m Model) Page() int { return m.page }
func (m Model) PageSize() int { return m.pageSize }
func (m Model) TotalItems() int { return m.totalItems }
func (m Model) Items() []book.Book { return m.items }
func (m Model) Loading() bool { return m.loading }
func (m Model) Err() error { return m.err }
func (m Model) Closed() bool { return m.closed }
func (m Model) HasPrevious() bool { return m.page > 1 }
func (m Model) HasNext() bool { return m.page < m.TotalPages() }
func (m Model) TotalPages() int { return TotalPages(m.totalItems, m.pageSize) }
func (m Model) Window() []int { return Window(m.page, m.TotalPages()) }
func (m Model) Searching() bool { return m.rawText != "" }

// Summary describes the current position, e.g. "Page 2 of 5 (43 total items)".
func (m Model) Summary() string {
	return fmt.Sprintf("Page %d of %d (%d total items)", m.page, m.TotalPages(), m.totalItems)
}
