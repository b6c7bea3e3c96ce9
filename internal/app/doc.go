// Package app provides the orchestration layer for the bookshelf application.
//
// # Overview
//
// This package wires together configuration, logging, preferences, the
// catalog client and the UI. It is the composition root where all
// dependencies are initialized and connected.
//
// # Startup
//
//  1. Load settings from ~/.config/bookshelf/config.toml, .env and BOOKSHELF_* variables
//  2. Redirect the standard logger to the log file (the terminal belongs to the UI)
//  3. Load UI preferences such as the theme
//  4. Create the catalog client with its timeout and rate limit
//  5. Ping the catalog once; a failure is logged and shown, not fatal
//  6. Launch the health poller and start the TUI, blocking until exit
//
// # Health Polling
//
// StartHealthPoller pings the catalog in the background and reports only
// changes in reachability, so the header can show when the backend goes
// away or comes back while the user is idle. Consecutive failures double
// the interval up to a cap.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Invalid configuration file or environment override
//   - Log file cannot be created
//   - Malformed API URL
//
// Recoverable errors (logged, the UI keeps running):
//   - Catalog unreachable at startup or later
//   - Preferences file missing or unreadable
//
// # Usage Example
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := app.Run(ctx, app.Options{Route: "/"}); err != nil {
//		log.Fatal(err)
//	}
package app
