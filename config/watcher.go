package config

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher watches a scout config file for changes and invokes a reload
// callback. Rapid successive writes (editors often write twice) are debounced.
type Watcher struct {
	watcher    *fsnotify.Watcher
	path       string
	debounceMs int
	lastChange time.Time
	mu         sync.Mutex
	logger     *logrus.Entry
	onReload   func(path string)
}

// NewWatcher creates a Watcher for the given config file path.
// The debounceMs parameter controls how long to wait before processing rapid changes.
// The onReload callback is called when the config file changes.
func NewWatcher(path string, debounceMs int, logger *logrus.Entry, onReload func(string)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory rather than the file itself: editors that
	// rename-and-replace would otherwise orphan the watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	if debounceMs <= 0 {
		debounceMs = 100
	}

	return &Watcher{
		watcher:    watcher,
		path:       path,
		debounceMs: debounceMs,
		logger:     logger,
		onReload:   onReload,
	}, nil
}

// Start begins watching for config changes. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				if w.matches(event.Name) {
					w.handleChange(event.Name)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

// matches reports whether an event path refers to the watched config file.
func (w *Watcher) matches(name string) bool {
	if filepath.Clean(name) == filepath.Clean(w.path) {
		return true
	}
	// Some editors write through a temp file and rename; accept any
	// recognized config name in the watched directory.
	base := filepath.Base(name)
	for _, candidate := range configNames {
		if strings.EqualFold(base, candidate) {
			return true
		}
	}
	return false
}

// handleChange processes a config file change with debouncing.
func (w *Watcher) handleChange(file string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Debounce rapid writes
	elapsed := time.Since(w.lastChange)
	if elapsed < time.Duration(w.debounceMs)*time.Millisecond {
		w.logger.Debugf("Debounced: %s (only %v since last change)", filepath.Base(file), elapsed)
		return
	}
	w.lastChange = time.Now()

	w.logger.Infof("Config changed: %s", filepath.Base(file))

	if w.onReload != nil {
		w.onReload(w.path)
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
