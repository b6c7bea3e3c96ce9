package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func appendFile(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func TestPoll_FirstCallReturnsBacklog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	appendFile(t, logPath, content.String())

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"read partial (5)", 5, expectedAll[5:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
		{"default limit (0)", 0, expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(logPath, tt.maxLines).Poll()
			if err != nil {
				t.Fatalf("Poll() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Poll() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPoll_ReturnsOnlyAppendedLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	appendFile(t, logPath, "one\ntwo\n")

	tail := New(logPath, 100)
	if _, err := tail.Poll(); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	got, err := tail.Poll()
	if err != nil || len(got) != 0 {
		t.Fatalf("Poll() without writes = %v, %v, want nothing", got, err)
	}

	appendFile(t, logPath, "three\nfour")
	got, err = tail.Poll()
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"three"}) {
		t.Fatalf("Poll() = %v, want [three] with the partial line held back", got)
	}

	appendFile(t, logPath, " done\r\n")
	got, _ = tail.Poll()
	if !reflect.DeepEqual(got, []string{"four done"}) {
		t.Fatalf("Poll() = %v, want [four done]", got)
	}
}

func TestPoll_MissingFileThenCreated(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "later.log")
	tail := New(logPath, 10)

	got, err := tail.Poll()
	if err != nil || got != nil {
		t.Fatalf("Poll() on missing file = %v, %v, want nil, nil", got, err)
	}

	appendFile(t, logPath, "hello\n")
	got, err = tail.Poll()
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"hello"}) {
		t.Fatalf("Poll() = %v, want [hello]", got)
	}
}

func TestPoll_TruncatedFileStartsOver(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	appendFile(t, logPath, "a long first line\nanother line\n")

	tail := New(logPath, 10)
	if _, err := tail.Poll(); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if err := os.WriteFile(logPath, []byte("fresh\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := tail.Poll()
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"fresh"}) {
		t.Fatalf("Poll() = %v, want [fresh]", got)
	}
}

func TestWatch_SignalsWrites(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "watched.log")

	w, err := Watch(logPath)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	appendFile(t, filepath.Join(dir, "other.log"), "ignored\n")
	appendFile(t, logPath, "line\n")

	select {
	case <-w.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("no change signalled for watched file")
	}
}

func TestWatch_CloseStopsLoop(t *testing.T) {
	w, err := Watch(filepath.Join(t.TempDir(), "x.log"))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}
