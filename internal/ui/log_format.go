package ui

import (
	"strings"
	"time"
)

// logEntry is one line of the activity log split into its parts.
type logEntry struct {
	Time      time.Time
	Component string
	Message   string
	Level     string
}

const logTimeLayout = "2006/01/02 15:04:05"

// parseLogLine splits a standard log line ("2006/01/02 15:04:05 catalog: ...")
// into timestamp, component and message. Lines in other shapes are kept
// whole as the message.
func parseLogLine(line string) logEntry {
	entry := logEntry{Message: line, Level: "INFO"}
	if len(line) > len(logTimeLayout) {
		if ts, err := time.ParseInLocation(logTimeLayout, line[:len(logTimeLayout)], time.Local); err == nil {
			entry.Time = ts
			entry.Message = strings.TrimSpace(line[len(logTimeLayout):])
		}
	}
	if component, rest, ok := strings.Cut(entry.Message, ": "); ok && isComponent(component) {
		entry.Component = component
		entry.Message = rest
	}
	entry.Level = logLevel(entry.Message)
	return entry
}

func isComponent(s string) bool {
	if s == "" || len(s) > 16 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// logLevel infers a level from message wording.
func logLevel(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "failed"), strings.Contains(lower, "error"), strings.Contains(lower, "panic"):
		return "ERROR"
	case strings.Contains(lower, "warning"), strings.Contains(lower, "retry"):
		return "WARN"
	default:
		return "INFO"
	}
}

// formatLogEntry renders an entry as "15:04:05 LEVEL [component] message".
func formatLogEntry(e logEntry) string {
	var parts []string
	if !e.Time.IsZero() {
		parts = append(parts, e.Time.Format("15:04:05"))
	}
	parts = append(parts, padLevel(e.Level))
	if e.Component != "" {
		parts = append(parts, "["+e.Component+"]")
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, " ")
}

func padLevel(level string) string {
	for len(level) < 5 {
		level += " "
	}
	return level
}
