package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which author and price
	// columns are hidden.
	LayoutCompactWidth = 80

	// LayoutWideWidth is the minimum width to show the publisher column.
	LayoutWideWidth = 140
)

// Chrome lines around the content area: header, command bar, status line.
const chromeHeight = 3

// Log display limits.
const (
	// LogBacklogLines is how much of an existing log is shown on open.
	LogBacklogLines = 500

	// LogBufferLimit is the maximum number of log lines kept in memory.
	LogBufferLimit = 2000
)

// Timing constants.
const (
	// LogPollInterval is used when the log file cannot be watched.
	LogPollInterval = 2 * time.Second

	// FlashDuration is how long transient status messages stay visible.
	FlashDuration = 4 * time.Second
)
