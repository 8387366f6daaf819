// Package watcher reports files arriving in watched directories.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Watcher emits the path of every file created or written in its directories.
// Duplicate events for one file are expected; consumers debounce.
type Watcher struct {
	fs     *fsnotify.Watcher
	events chan string
	stop   chan struct{}
	logger *slog.Logger
	dirs   []string
	once   sync.Once
}

// New creates a watcher for dirs. Nothing is watched until Start.
func New(dirs []string, logger *slog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fs:     fs,
		dirs:   append([]string(nil), dirs...),
		events: make(chan string, 64),
		stop:   make(chan struct{}),
		logger: logger,
	}, nil
}

// Start adds every directory and begins forwarding events.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.dirs {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.logger.Info("watching directory", "dir", dir)
	}
	go w.processEvents(ctx)
	return nil
}

// Events returns the channel of file paths. It is closed when the watcher stops.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Stop releases the underlying watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		_ = w.fs.Close()
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			select {
			case w.events <- event.Name:
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}
