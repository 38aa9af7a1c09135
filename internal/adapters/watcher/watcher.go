// Package watcher implements file system watching for watch mode.
package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// skipDirectories are directories that are never watched.
var skipDirectories = map[string]bool{
	".git":         true,
	".jj":          true,
	"node_modules": true,
}

const eventChannelBuffer = 100

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	logger    ports.Logger
	fsWatcher *fsnotify.Watcher
	events    chan ports.WatchEvent
}

// NewWatcher creates a file system watcher. No OS resources are acquired
// until Start.
func NewWatcher(logger ports.Logger) *Watcher {
	return &Watcher{
		logger: logger,
		events: make(chan ports.WatchEvent, eventChannelBuffer),
	}
}

// Start begins watching root recursively. Events are delivered until ctx is
// cancelled or Stop is called. A watcher can be started once.
func (w *Watcher) Start(ctx context.Context, root string) error {
	if w.fsWatcher != nil {
		return zerr.With(domain.ErrWatcherFailed, "reason", "already started")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatcherFailed.Error())
	}
	w.fsWatcher = fw

	for dir := range watchRecursively(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrWatcherFailed.Error()), "path", dir)
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	if w.fsWatcher == nil {
		return nil
	}
	return w.fsWatcher.Close()
}

// Events returns an iterator of file system events.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// watchRecursively yields root and every directory below it that is not skipped.
func watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skipDirectories[d.Name()] {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			watchEvent, ok := convertEvent(event)
			if !ok {
				continue
			}

			select {
			case w.events <- watchEvent:
			case <-ctx.Done():
				return
			}

			if watchEvent.Operation == ports.OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDirectories[info.Name()] {
					for dir := range watchRecursively(event.Name) {
						_ = w.fsWatcher.Add(dir)
					}
				}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error(zerr.Wrap(err, "file watcher error"))
		}
	}
}

// convertEvent maps an fsnotify event to a ports.WatchEvent. Chmod-only events are dropped.
func convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	switch {
	case event.Has(fsnotify.Write):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpWrite}, true
	case event.Has(fsnotify.Create):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpCreate}, true
	case event.Has(fsnotify.Remove):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpRemove}, true
	case event.Has(fsnotify.Rename):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpRename}, true
	default:
		return ports.WatchEvent{}, false
	}
}
