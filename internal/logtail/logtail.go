package logtail

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxBacklogBytes bounds how much of an existing file the first Poll reads.
const maxBacklogBytes = 1 << 20

// Tailer reads lines appended to a file since the previous Poll.
type Tailer struct {
	path     string
	maxLines int
	offset   int64
	partial  string
	primed   bool
}

// New returns a Tailer for path. The first Poll yields at most maxLines of
// existing content; later polls yield only what was appended.
func New(path string, maxLines int) *Tailer {
	if maxLines <= 0 {
		maxLines = 500
	}
	return &Tailer{path: path, maxLines: maxLines}
}

// Path returns the followed file.
func (t *Tailer) Path() string {
	return t.path
}

// Poll returns complete lines written since the last call. A missing file
// yields nothing. A file that shrank is treated as rotated and read again
// from the start.
func (t *Tailer) Poll() ([]string, error) {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.reset()
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}
	size := info.Size()
	if size < t.offset {
		t.reset()
	}

	skipFirst := false
	if !t.primed {
		t.primed = true
		if size > maxBacklogBytes {
			t.offset = size - maxBacklogBytes
			skipFirst = true
		}
	}
	if size == t.offset {
		return nil, nil
	}

	if _, err := file.Seek(t.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(file, size-t.offset))
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	t.offset += int64(len(data))

	parts := strings.Split(t.partial+string(data), "\n")
	t.partial = parts[len(parts)-1]
	lines := parts[:len(parts)-1]
	if skipFirst && len(lines) > 0 {
		lines = lines[1:]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	if len(lines) > t.maxLines {
		lines = lines[len(lines)-t.maxLines:]
	}
	return lines, nil
}

func (t *Tailer) reset() {
	t.offset = 0
	t.partial = ""
}
