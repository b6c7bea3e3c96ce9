// Package logtail follows the bookshelf activity log for display in the TUI.
//
// # Overview
//
// A Tailer remembers the byte offset it has read up to. The first Poll
// returns the last lines already in the file; every later Poll returns only
// complete lines appended since, holding back a trailing partial line until
// its newline arrives. A file that shrinks is treated as rotated and read
// from the start again.
//
// Example usage:
//
//	tail := logtail.New(cfg.LogFile, 500)
//	lines, err := tail.Poll()
//	if err != nil {
//		log.Printf("failed to read log: %v", err)
//	}
//
// # Following
//
// Watch uses fsnotify on the file's directory, so it keeps working when the
// file is created later or replaced. Changes() carries one signal per burst;
// callers Poll after each signal. When a watch cannot be set up callers can
// fall back to polling on a timer.
//
// # Error Handling
//
// Poll returns nil, nil for a missing file. Other errors (permission denied,
// I/O errors) are returned wrapped.
package logtail
