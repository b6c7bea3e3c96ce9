package ui

import (
	"net/url"
	"strings"
)

// Screen identifies a top-level view.
type Screen int

const (
	ScreenList Screen = iota
	ScreenCreate
	ScreenDetail
	ScreenEdit
	ScreenLogs
)

// Route is a screen plus the ISBN it is about, if any.
type Route struct {
	Screen Screen
	ISBN   string
}

// ParseRoute maps a path onto a route:
//
//	/                    list
//	/books/create        create
//	/books/{isbn}        detail
//	/books/{isbn}/edit   edit
//	/log                 activity log
//
// Anything else falls back to the list.
func ParseRoute(path string) Route {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })

	switch {
	case len(parts) == 0:
		return Route{Screen: ScreenList}
	case len(parts) == 1 && parts[0] == "log":
		return Route{Screen: ScreenLogs}
	case parts[0] != "books":
		return Route{Screen: ScreenList}
	}

	switch len(parts) {
	case 2:
		if parts[1] == "create" {
			return Route{Screen: ScreenCreate}
		}
		if isbn := unescape(parts[1]); isbn != "" {
			return Route{Screen: ScreenDetail, ISBN: isbn}
		}
	case 3:
		if parts[2] == "edit" {
			if isbn := unescape(parts[1]); isbn != "" {
				return Route{Screen: ScreenEdit, ISBN: isbn}
			}
		}
	}
	return Route{Screen: ScreenList}
}

// Path renders the route back into its canonical path.
func (r Route) Path() string {
	switch r.Screen {
	case ScreenCreate:
		return "/books/create"
	case ScreenDetail:
		return "/books/" + url.PathEscape(r.ISBN)
	case ScreenEdit:
		return "/books/" + url.PathEscape(r.ISBN) + "/edit"
	case ScreenLogs:
		return "/log"
	default:
		return "/"
	}
}

func unescape(segment string) string {
	s, err := url.PathUnescape(segment)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
