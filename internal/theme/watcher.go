package theme

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the user theme file and reports changes. The watch is on
// the containing directory, so it also catches the file being created after
// startup.
type Watcher struct {
	mu     sync.Mutex
	logger *slog.Logger

	watcher   *fsnotify.Watcher
	themePath string

	onChange func()

	done    chan struct{}
	running bool
}

// NewWatcher creates a Watcher for the theme file at path. An empty path
// uses the default user location.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		var err error
		path, err = UserThemePath()
		if err != nil {
			return nil, err
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		logger:    logger,
		watcher:   fsw,
		themePath: path,
		done:      make(chan struct{}),
	}, nil
}

// SetChangeCallback sets the callback invoked when the theme file changes.
func (w *Watcher) SetChangeCallback(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// Start begins watching the theme file.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.themePath)); err != nil {
		return err
	}

	go w.watch()

	w.logger.Debug("theme watcher started", "path", w.themePath)
	return nil
}

func (w *Watcher) watch() {
	filename := filepath.Base(w.themePath)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.mu.Lock()
				callback := w.onChange
				w.mu.Unlock()
				if callback != nil {
					callback()
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("theme watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Stop stops watching the theme file.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.done)
	return w.watcher.Close()
}
