package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// truncate shortens s to at most limit cells, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// truncateMiddle shortens s by removing runes from the middle, keeping
// more of the end. Used for URLs and file paths.
func truncateMiddle(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	keep := limit - 1
	suffix := keep * 2 / 3
	prefix := keep - suffix
	return string(runes[:prefix]) + "…" + string(runes[len(runes)-suffix:])
}

// pad fits s into exactly width cells.
func pad(s string, width int) string {
	s = truncate(s, width)
	if gap := width - lipgloss.Width(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}
