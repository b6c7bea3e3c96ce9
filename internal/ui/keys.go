package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Back       key.Binding
	ViewLog    key.Binding
	Refresh    key.Binding

	// List
	Search      key.Binding
	ClearSearch key.Binding
	PrevPage    key.Binding
	NextPage    key.Binding
	FirstPage   key.Binding
	LastPage    key.Binding
	JumpToPage  key.Binding
	Up          key.Binding
	Down        key.Binding
	Open        key.Binding
	Create      key.Binding

	// Detail
	Edit key.Binding

	// Form
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding

	// Log
	ToggleFollow key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Search/input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit / back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		ViewLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Activity log"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		ClearSearch: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "Clear search"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("h/left", "Previous page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("l/right", "Next page"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "First page"),
		),
		LastPage: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "Last page"),
		),
		JumpToPage: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "Go to page"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open book"),
		),
		Create: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New book"),
		),

		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Edit book"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.ClearSearch, k.Up, k.Down, k.Open, k.Create},
		{k.PrevPage, k.NextPage, k.FirstPage, k.LastPage, k.JumpToPage},
		{k.Edit, k.Refresh},
		{k.NextField, k.PrevField, k.Submit},
		{k.ToggleFollow, k.Top, k.Bottom, k.HalfPageUp, k.HalfPageDown},
		{k.ViewLog, k.CycleTheme, k.Help, k.Back, k.Quit},
	}
}
