// Package ui provides the terminal user interface for bookshelf.
//
// # Architecture Overview
//
// The UI is a single Bubble Tea program. Model is the root state container;
// each screen keeps its own state struct inside it and is rendered by a
// render* method. Backend calls never run inside Update: they are returned
// as tea.Cmd values and their results come back as messages.
//
// # Screens
//
// Screens are addressed by Route, which mirrors a path:
//
//   - List ("/"): searchable, paginated book list driven by listing.Model
//   - Create ("/books/create"): form for a new book
//   - Detail ("/books/{isbn}"): one book, with its abstract wrapped to fit
//   - Edit ("/books/{isbn}/edit"): the create form prefilled, ISBN locked
//   - Activity log ("/log"): live tail of the application log file
//
// Leaving the list closes its controller, so late page results and pending
// search ticks are dropped. Returning to the list restores the last search
// term and page.
//
// # Stale Results
//
// Every request carries the sequence number or generation of the screen
// that issued it. Results whose sequence no longer matches, or that arrive
// after the screen was left, are ignored.
//
// # Package Structure
//
//   - app.go: Model, navigation, message routing and Run
//   - list.go: list screen, search box and pager
//   - detail.go: detail screen and book lookups
//   - form.go: create and edit forms
//   - logs.go, log_format.go: activity log screen
//   - header.go, help.go, modal.go: chrome, help overlay and page prompt
//   - theme.go, keys.go, routes.go: themes, key bindings and routes
//
// # Usage
//
//	err := ui.Run(ui.Options{
//		Context: ctx,
//		Service: client,
//		Config:  cfg,
//		Prefs:   store,
//		Route:   "/",
//	})
package ui
