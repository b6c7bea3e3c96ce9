package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bookshelf/internal/book"
	"github.com/five82/bookshelf/internal/catalog"
)

type fetchCall struct {
	page     int
	pageSize int
	term     string
	ctxErr   error
}

type fakeFetcher struct {
	mu    sync.Mutex
	total int
	err   error
	calls []fetchCall
}

func (f *fakeFetcher) FetchPage(ctx context.Context, page, pageSize int, term string) (catalog.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{page: page, pageSize: pageSize, term: term, ctxErr: ctx.Err()})
	if f.err != nil {
		return catalog.Page{}, f.err
	}
	items := []book.Book{{ID: book.ID(fmt.Sprint(page)), Draft: book.Draft{Title: fmt.Sprintf("%s page %d", term, page)}}}
	return catalog.Page{Items: items, Total: f.total}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) lastCall() fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// apply runs cmd and feeds its message back into m.
func apply(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	var next tea.Cmd
	*m, next = m.Update(run(t, cmd))
	return next
}

func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	return cmd()
}

// loaded returns a model that has finished its first load.
func loaded(t *testing.T, f *fakeFetcher) Model {
	t.Helper()
	m := New(f, Options{PageSize: 10, Debounce: 5 * time.Millisecond})
	apply(t, &m, m.Init())
	if m.Loading() {
		t.Fatal("model still loading after first page")
	}
	return m
}

func TestNew_Defaults(t *testing.T) {
	m := New(&fakeFetcher{}, Options{})
	if m.Page() != 1 {
		t.Fatalf("Page() = %d, want 1", m.Page())
	}
	if m.PageSize() != DefaultPageSize {
		t.Fatalf("PageSize() = %d, want %d", m.PageSize(), DefaultPageSize)
	}
	if m.debounce != DefaultDebounce {
		t.Fatalf("debounce = %v, want %v", m.debounce, DefaultDebounce)
	}
	if m.TotalPages() != 0 || len(m.Window()) != 0 {
		t.Fatalf("empty model should have no pages, got %d %v", m.TotalPages(), m.Window())
	}
}

func TestInit_LoadsFirstPage(t *testing.T) {
	f := &fakeFetcher{total: 43}
	m := New(f, Options{PageSize: 10})
	cmd := m.Init()
	if !m.Loading() {
		t.Fatal("Loading() = false after Init, want true")
	}
	apply(t, &m, cmd)

	call := f.lastCall()
	if call.page != 1 || call.pageSize != 10 || call.term != "" {
		t.Fatalf("fetch call = %+v, want page 1 size 10 no term", call)
	}
	if m.TotalItems() != 43 || m.TotalPages() != 5 {
		t.Fatalf("TotalItems/TotalPages = %d/%d, want 43/5", m.TotalItems(), m.TotalPages())
	}
	if got := m.Summary(); got != "Page 1 of 5 (43 total items)" {
		t.Fatalf("Summary() = %q", got)
	}
	if len(m.Items()) != 1 || m.Items()[0].ID != "1" {
		t.Fatalf("Items() = %+v, want page 1 item", m.Items())
	}
}

func TestGoToPage_OutOfRangeIgnored(t *testing.T) {
	f := &fakeFetcher{total: 30}
	m := loaded(t, f)
	before := f.callCount()

	for _, n := range []int{0, -1, 4, 100, 1} {
		if cmd := m.GoToPage(n); cmd != nil {
			t.Errorf("GoToPage(%d) returned a command, want nil", n)
		}
		if m.Page() != 1 {
			t.Fatalf("GoToPage(%d) moved to page %d", n, m.Page())
		}
	}
	if f.callCount() != before {
		t.Fatalf("fetch calls = %d, want %d", f.callCount(), before)
	}
}

func TestNavigation(t *testing.T) {
	f := &fakeFetcher{total: 30}
	m := loaded(t, f)

	if cmd := m.Previous(); cmd != nil {
		t.Fatal("Previous on first page should be a no-op")
	}
	if cmd := m.First(); cmd != nil {
		t.Fatal("First on first page should be a no-op")
	}

	apply(t, &m, m.Next())
	if m.Page() != 2 || f.lastCall().page != 2 {
		t.Fatalf("after Next page = %d, fetched %d, want 2", m.Page(), f.lastCall().page)
	}

	apply(t, &m, m.Last())
	if m.Page() != 3 || !m.HasPrevious() || m.HasNext() {
		t.Fatalf("after Last page = %d, HasPrevious=%v HasNext=%v", m.Page(), m.HasPrevious(), m.HasNext())
	}
	if cmd := m.Next(); cmd != nil {
		t.Fatal("Next on last page should be a no-op")
	}

	apply(t, &m, m.Previous())
	if m.Page() != 2 {
		t.Fatalf("after Previous page = %d, want 2", m.Page())
	}
	apply(t, &m, m.First())
	if m.Page() != 1 {
		t.Fatalf("after First page = %d, want 1", m.Page())
	}
}

func TestPageChangeKeepsTerm(t *testing.T) {
	f := &fakeFetcher{total: 30}
	m := loaded(t, f)
	cmd := apply(t, &m, m.SetSearchText("go"))
	apply(t, &m, cmd)

	apply(t, &m, m.GoToPage(3))
	if call := f.lastCall(); call.page != 3 || call.term != "go" {
		t.Fatalf("fetch call = %+v, want page 3 term go", call)
	}
}

func TestSearchCommitResetsPage(t *testing.T) {
	f := &fakeFetcher{total: 100}
	m := loaded(t, f)
	apply(t, &m, m.GoToPage(5))
	if m.Page() != 5 {
		t.Fatalf("Page() = %d, want 5", m.Page())
	}

	cmd := apply(t, &m, m.SetSearchText("angular"))
	if m.Page() != 1 || m.Term() != "angular" {
		t.Fatalf("after commit page=%d term=%q, want 1 angular", m.Page(), m.Term())
	}
	apply(t, &m, cmd)
	if call := f.lastCall(); call.page != 1 || call.term != "angular" {
		t.Fatalf("fetch call = %+v, want page 1 term angular", call)
	}
}

func TestSearchTyping_DebouncesToOneFetch(t *testing.T) {
	f := &fakeFetcher{total: 5}
	m := loaded(t, f)
	before := f.callCount()

	var ticks []tea.Cmd
	for _, text := range []string{"a", "ab", "abc"} {
		ticks = append(ticks, m.SetSearchText(text))
		if m.RawText() != text {
			t.Fatalf("RawText() = %q, want %q", m.RawText(), text)
		}
		if m.Term() != "" {
			t.Fatalf("Term() = %q before the quiet period ended", m.Term())
		}
	}

	var fetches []tea.Cmd
	for _, tick := range ticks {
		if cmd := apply(t, &m, tick); cmd != nil {
			fetches = append(fetches, cmd)
		}
	}
	if len(fetches) != 1 {
		t.Fatalf("commits = %d, want 1", len(fetches))
	}
	if m.Term() != "abc" {
		t.Fatalf("Term() = %q, want abc", m.Term())
	}

	apply(t, &m, fetches[0])
	if got := f.callCount() - before; got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}
	if f.lastCall().term != "abc" {
		t.Fatalf("fetched term = %q, want abc", f.lastCall().term)
	}
}

func TestSearchCommit_SameTermDoesNotRefetch(t *testing.T) {
	f := &fakeFetcher{total: 5}
	m := loaded(t, f)
	before := f.callCount()

	m.SetSearchText("x")
	cmd := apply(t, &m, m.SetSearchText(""))
	if cmd != nil {
		t.Fatal("returning to the committed term should not refetch")
	}
	if f.callCount() != before {
		t.Fatalf("fetch calls = %d, want %d", f.callCount(), before)
	}
}

func TestClearSearch(t *testing.T) {
	f := &fakeFetcher{total: 30}
	m := loaded(t, f)
	cmd := apply(t, &m, m.SetSearchText("go"))
	apply(t, &m, cmd)
	apply(t, &m, m.GoToPage(2))

	pending := m.SetSearchText("gopher")
	apply(t, &m, m.ClearSearch())
	if m.RawText() != "" || m.Term() != "" || m.Page() != 1 {
		t.Fatalf("after ClearSearch raw=%q term=%q page=%d", m.RawText(), m.Term(), m.Page())
	}
	if call := f.lastCall(); call.term != "" || call.page != 1 {
		t.Fatalf("fetch call = %+v, want unfiltered page 1", call)
	}

	cmd = apply(t, &m, pending)
	if cmd != nil || m.Term() != "" {
		t.Fatal("debounce tick from before ClearSearch should be ignored")
	}
}

func TestOutOfOrderResultsKeepNewest(t *testing.T) {
	f := &fakeFetcher{total: 30}
	m := loaded(t, f)

	first := m.Refetch()
	second := m.GoToPage(2)

	apply(t, &m, second)
	apply(t, &m, first)

	if m.Page() != 2 {
		t.Fatalf("Page() = %d, want 2", m.Page())
	}
	if items := m.Items(); len(items) != 1 || items[0].ID != "2" {
		t.Fatalf("Items() = %+v, want page 2 result", items)
	}
	if m.Loading() {
		t.Fatal("Loading() = true after newest result applied")
	}
}

func TestSupersededRequestIsCancelled(t *testing.T) {
	f := &fakeFetcher{total: 30}
	m := loaded(t, f)

	first := m.Refetch()
	_ = m.GoToPage(2)
	run(t, first)

	if err := f.lastCall().ctxErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("superseded fetch ctx err = %v, want context.Canceled", err)
	}
}

func TestFetchErrorKeepsPreviousItems(t *testing.T) {
	f := &fakeFetcher{total: 30}
	m := loaded(t, f)
	prev := m.Items()

	f.err = fmt.Errorf("fetch page: %w", catalog.ErrServer)
	apply(t, &m, m.Refetch())

	if m.Loading() {
		t.Fatal("Loading() = true after failure")
	}
	if !errors.Is(m.Err(), catalog.ErrServer) {
		t.Fatalf("Err() = %v, want ErrServer", m.Err())
	}
	if m.TotalItems() != 30 || len(m.Items()) != len(prev) || m.Items()[0].ID != prev[0].ID {
		t.Fatalf("stale data cleared: total=%d items=%+v", m.TotalItems(), m.Items())
	}

	f.err = nil
	apply(t, &m, m.Refetch())
	if m.Err() != nil {
		t.Fatalf("Err() = %v after recovery, want nil", m.Err())
	}
}

func TestNotFoundIsEmptyResult(t *testing.T) {
	f := &fakeFetcher{total: 30}
	m := loaded(t, f)

	f.err = catalog.ErrNotFound
	apply(t, &m, m.Refetch())

	if m.Err() != nil {
		t.Fatalf("Err() = %v, want nil", m.Err())
	}
	if m.TotalItems() != 0 || len(m.Items()) != 0 || m.TotalPages() != 0 {
		t.Fatalf("want empty result, got total=%d items=%d", m.TotalItems(), len(m.Items()))
	}
}

func TestClose_IgnoresLateMessages(t *testing.T) {
	f := &fakeFetcher{total: 30}
	m := New(f, Options{Debounce: time.Millisecond})
	fetch := m.Init()
	tick := m.SetSearchText("late")

	m.Close()
	if m.Loading() {
		t.Fatal("Loading() = true after Close")
	}

	cmd := apply(t, &m, fetch)
	if cmd != nil || len(m.Items()) != 0 || m.TotalItems() != 0 {
		t.Fatal("fetch result applied after Close")
	}
	if !errors.Is(f.lastCall().ctxErr, context.Canceled) {
		t.Fatalf("in-flight ctx err = %v, want context.Canceled", f.lastCall().ctxErr)
	}

	cmd = apply(t, &m, tick)
	if cmd != nil || m.Term() != "" {
		t.Fatal("debounce tick applied after Close")
	}

	if m.SetSearchText("x") != nil || m.ClearSearch() != nil || m.Refetch() != nil {
		t.Fatal("actions after Close should return nil commands")
	}
}

func TestMessagesForOtherModelsIgnored(t *testing.T) {
	f := &fakeFetcher{total: 30}
	a := loaded(t, f)
	b := New(f, Options{})

	msg := run(t, b.Init())
	a2, _ := a.Update(msg)
	if a2.TotalItems() != a.TotalItems() || a2.Page() != a.Page() {
		t.Fatal("model applied a message addressed to another model")
	}
}

func TestNew_RestoresPosition(t *testing.T) {
	f := &fakeFetcher{total: 50}
	m := New(f, Options{Term: "go", Page: 3})
	if m.RawText() != "go" || m.Term() != "go" || m.Page() != 3 {
		t.Fatalf("restored raw=%q term=%q page=%d", m.RawText(), m.Term(), m.Page())
	}
	apply(t, &m, m.Init())
	if call := f.lastCall(); call.page != 3 || call.term != "go" {
		t.Fatalf("fetch call = %+v, want page 3 term go", call)
	}

	if got := New(f, Options{Page: -2}).Page(); got != 1 {
		t.Fatalf("Page() = %d for negative restore, want 1", got)
	}
}
