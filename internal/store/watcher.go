package store

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher refreshes a store's live queries when another process writes
// the database file or its write-ahead log.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	store   *Store
	logger  *slog.Logger
	done    chan struct{}
	mu      sync.Mutex
	running bool
}

// NewFileWatcher creates a watcher for the store's database file.
func NewFileWatcher(store *Store, logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		watcher: watcher,
		store:   store,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return nil
	}

	// Watch the directory: SQLite creates and removes the -wal file.
	if err := fw.watcher.Add(filepath.Dir(fw.store.Path())); err != nil {
		return err
	}
	fw.running = true

	go fw.watch()
	return nil
}

func (fw *FileWatcher) watch() {
	base := filepath.Base(fw.store.Path())
	names := map[string]bool{base: true, base + "-wal": true}

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !names[filepath.Base(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fw.logger.Debug("database changed on disk", "file", event.Name)
				fw.store.Changed()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "error", err)

		case <-fw.done:
			return
		}
	}
}

// Stop stops the watcher.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.running {
		return fw.watcher.Close()
	}

	fw.running = false
	close(fw.done)
	return fw.watcher.Close()
}
