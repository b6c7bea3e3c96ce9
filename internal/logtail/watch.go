package logtail

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher signals when a single file is written, created or replaced.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	changes chan struct{}
	done    chan struct{}
}

// Watch starts watching path. The parent directory is watched so the file
// may be created or rotated after Watch returns.
func Watch(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve log path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w := &Watcher{
		watcher: fw,
		path:    abs,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes delivers one value per burst of changes. Pending signals are
// coalesced, so a slow reader sees at most one.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Done is closed once the watcher has stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				select {
				case w.changes <- struct{}{}:
				default:
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("logtail: watch error: %v", err)
		}
	}
}
