package ui

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bookshelf/internal/catalog"
	"github.com/five82/bookshelf/internal/config"
	"github.com/five82/bookshelf/internal/listing"
	"github.com/five82/bookshelf/internal/prefs"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Service   catalog.Service
	Config    config.Config
	Prefs     *prefs.Store
	ThemeName string
	// Route is the path of the first screen, e.g. "/books/978-0-13-468599-1".
	Route string
	// ConnErr is the result of the startup connectivity check.
	ConnErr error
	// Health delivers later reachability changes; nil disables them.
	Health <-chan error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx     context.Context
	service catalog.Service
	config  config.Config
	prefs   *prefs.Store
	keys    keyMap

	// UI state
	theme    Theme
	route    Route
	width    int
	height   int
	ready    bool
	showHelp bool
	modal    Modal

	spinner  spinner.Model
	spinning bool

	// connErr is the most recent transport failure, cleared by the next
	// successful response.
	connErr error
	health  <-chan error

	flash   string
	flashID int

	// Per-screen state
	list   listState
	detail detailState
	form   formState
	logs   logState

	initCmd tea.Cmd
}

// New creates the root model and starts loading the first screen.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg.PageSize <= 0 {
		cfg = config.Default()
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.DefaultTheme
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:     ctx,
		service: opts.Service,
		config:  cfg,
		prefs:   opts.Prefs,
		keys:    DefaultKeyMap(),
		theme:   GetTheme(themeName),
		route:   Route{Screen: ScreenList},
		spinner: sp,
		connErr: opts.ConnErr,
		health:  opts.Health,
		list:    newListState(),
		detail:  newDetailState(),
		logs:    newLogState(),
	}
	m.initCmd = m.navigate(ParseRoute(opts.Route))
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initCmd, waitHealthCmd(m.health))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case healthMsg:
		m.connErr = msg.err
		return m, waitHealthCmd(m.health)

	case flashExpiredMsg:
		if msg.id == m.flashID {
			m.flash = ""
		}
		return m, nil

	case goToPageMsg:
		return m, m.goToPage(msg.page)

	case listing.PageLoadedMsg:
		var cmd tea.Cmd
		m.list.ctl, cmd = m.list.ctl.Update(msg)
		m.afterPageLoaded(msg)
		return m, cmd

	case bookLoadedMsg:
		return m, m.handleBookLoaded(msg)

	case savedMsg:
		return m, m.handleSaved(msg)

	case logLinesMsg:
		return m, m.handleLogLines(msg)

	case logChangedMsg:
		if msg.session != m.logs.session {
			return m, nil
		}
		return m, pollLogCmd(m.logs.tail, m.logs.session)
	}

	// Debounce ticks for the list controller, cursor blinks for inputs.
	var cmd tea.Cmd
	m.list.ctl, cmd = m.list.ctl.Update(msg)
	return m, tea.Batch(cmd, m.updateFocusedInput(msg))
}

// updateFocusedInput forwards non-key messages to the input that has focus.
func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.route.Screen {
	case ScreenList:
		if m.list.searching {
			m.list.search, cmd = m.list.search.Update(msg)
		}
	case ScreenCreate, ScreenEdit:
		f := &m.form
		if !f.ready {
			return nil
		}
		if f.focus == len(f.inputs) {
			f.abstract, cmd = f.abstract.Update(msg)
		} else {
			f.inputs[f.focus].input, cmd = f.inputs[f.focus].input.Update(msg)
		}
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if msg.String() == "ctrl+c" {
		m.shutdown()
		return m, tea.Quit
	}

	// Text entry owns the keyboard while active.
	if m.typing() {
		switch m.route.Screen {
		case ScreenList:
			return m, m.handleSearchKey(msg)
		case ScreenCreate, ScreenEdit:
			return m, m.handleFormKey(msg)
		}
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.ViewLog):
		if m.route.Screen != ScreenLogs {
			return m, m.navigate(Route{Screen: ScreenLogs})
		}
		return m, nil

	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Back):
		if m.route.Screen == ScreenList {
			if key.Matches(msg, m.keys.Quit) {
				m.shutdown()
				return m, tea.Quit
			}
			return m, nil
		}
		return m, m.back()
	}

	switch m.route.Screen {
	case ScreenList:
		return m, m.handleListKey(msg)
	case ScreenDetail:
		return m, m.handleDetailKey(msg)
	case ScreenCreate, ScreenEdit:
		return m, m.handleFormKey(msg)
	case ScreenLogs:
		return m, m.handleLogsKey(msg)
	}
	return m, nil
}

// typing reports whether a text field currently has focus.
func (m Model) typing() bool {
	switch m.route.Screen {
	case ScreenList:
		return m.list.searching
	case ScreenCreate, ScreenEdit:
		return m.form.ready && !m.form.saving
	}
	return false
}

// navigate switches screens, releasing whatever the old screen held.
func (m *Model) navigate(to Route) tea.Cmd {
	from := m.route
	if from.Screen == ScreenList && m.list.open && to.Screen != ScreenList {
		m.closeList()
	}
	if from.Screen == ScreenDetail && to != from {
		m.detail.stop()
	}
	if (from.Screen == ScreenCreate || from.Screen == ScreenEdit) && to != from {
		m.form.stop()
	}
	if from.Screen == ScreenLogs && to.Screen != ScreenLogs {
		m.stopLogs()
	}

	if to.Screen != ScreenLogs {
		m.logs.returnTo = to
	}
	m.route = to
	log.Printf("ui: navigate %s", to.Path())

	var cmd tea.Cmd
	switch to.Screen {
	case ScreenList:
		cmd = m.openList()
	case ScreenDetail:
		cmd = m.openDetail(to.ISBN)
	case ScreenCreate:
		cmd = m.openCreate()
	case ScreenEdit:
		cmd = m.openEdit(to.ISBN)
	case ScreenLogs:
		cmd = m.openLogs()
	}
	m.resize()
	return tea.Batch(cmd, m.startSpinner())
}

// back leaves the current screen for its parent.
func (m *Model) back() tea.Cmd {
	switch m.route.Screen {
	case ScreenEdit:
		return m.navigate(Route{Screen: ScreenDetail, ISBN: m.route.ISBN})
	case ScreenLogs:
		return m.navigate(m.logs.returnTo)
	default:
		return m.navigate(Route{Screen: ScreenList})
	}
}

// shutdown releases everything that outlives a screen.
func (m *Model) shutdown() {
	if m.list.open {
		m.closeList()
	}
	m.detail.stop()
	m.form.stop()
	m.stopLogs()
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.refreshViewports()
	if m.prefs == nil {
		return
	}
	name := m.theme.Name
	if _, err := m.prefs.Update(func(p *prefs.Prefs) { p.Theme = name }); err != nil {
		log.Printf("ui: save theme preference: %v", err)
	}
}

// busy reports whether the current screen is waiting on the backend.
func (m Model) busy() bool {
	switch m.route.Screen {
	case ScreenList:
		return m.list.ctl.Loading()
	case ScreenDetail:
		return m.detail.loading
	case ScreenCreate, ScreenEdit:
		return m.form.loading || m.form.saving
	}
	return false
}

// startSpinner starts the spinner tick loop if a request is in flight.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinning || !m.busy() {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

// setFlash shows a transient status message.
func (m *Model) setFlash(text string) tea.Cmd {
	m.flashID++
	m.flash = text
	id := m.flashID
	return tea.Tick(FlashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{id: id}
	})
}

// noteResult tracks backend reachability from request outcomes.
func (m *Model) noteResult(err error) {
	switch {
	case err == nil:
		m.connErr = nil
	case isNetworkError(err):
		m.connErr = err
	}
}

// resize applies the terminal size to every sized component.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	m.list.search.Width = max(10, m.width-14)
	m.resizeDetail()
	m.resizeForm()
	m.resizeLogs()
}

// refreshViewports re-renders cached viewport content after a theme change.
func (m *Model) refreshViewports() {
	m.updateDetailViewport()
	m.updateLogViewport()
}

// contentHeight is the height left for the active screen.
func (m Model) contentHeight() int {
	return max(3, m.height-chromeHeight)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())

	return b.String()
}

// renderContent renders the main content area based on current screen.
func (m Model) renderContent() string {
	var content string
	switch m.route.Screen {
	case ScreenList:
		content = m.renderList()
	case ScreenDetail:
		content = m.renderDetail()
	case ScreenCreate, ScreenEdit:
		content = m.renderForm()
	case ScreenLogs:
		content = m.renderLogs()
	}
	return lipgloss.NewStyle().MaxHeight(m.contentHeight()).Height(m.contentHeight()).Render(content)
}

// renderStatusLine shows the flash message or the screen's status.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	if m.flash != "" {
		return styles.SuccessText.Render(truncate(m.flash, m.width))
	}
	var line string
	switch m.route.Screen {
	case ScreenList:
		line = m.listStatus(styles)
	case ScreenLogs:
		line = m.logStatus(styles)
	}
	return line
}

// Messages

type flashExpiredMsg struct {
	id int
}

// healthMsg reports a change in backend reachability.
type healthMsg struct {
	err error
}

// Commands

func waitHealthCmd(health <-chan error) tea.Cmd {
	if health == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-health
		if !ok {
			return nil
		}
		return healthMsg{err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, progOpts...)
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.shutdown()
	} else {
		m.shutdown()
	}
	return err
}
