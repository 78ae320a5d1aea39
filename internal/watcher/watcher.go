// Package watcher reports debounced changes to a SQLite database file and
// its write-ahead log.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/georgekorob/patterns-project/internal/log"
)

// Watcher monitors one database file for changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dbPath    string
	relevant  map[string]bool
	debounce  time.Duration
	logger    *log.Logger
	onChange  chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// Config holds watcher configuration options.
type Config struct {
	DBPath   string
	Debounce time.Duration
}

// DefaultConfig returns a 100ms debounce for dbPath.
func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:   dbPath,
		Debounce: 100 * time.Millisecond,
	}
}

// New creates a watcher. A nil logger discards watcher errors.
func New(cfg Config, logger *log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = log.Nop()
	}

	base := filepath.Base(cfg.DBPath)
	return &Watcher{
		fsWatcher: fsw,
		dbPath:    cfg.DBPath,
		relevant:  map[string]bool{base: true, base + "-wal": true},
		debounce:  cfg.Debounce,
		logger:    logger,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches the directory holding the database. The returned channel
// receives one signal per burst of writes.
func (w *Watcher) Start() (<-chan struct{}, error) {
	dir := filepath.Dir(w.dbPath)
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}
	w.logger.Debug(log.CatWatcher, "Watching database", "path", w.dbPath, "debounce", w.debounce)

	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources. It is safe to call
// more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var timer *time.Timer
	// fire is nil while no burst is pending.
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.onChange <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.ErrorErr(log.CatWatcher, "Watch error", err, "path", w.dbPath)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent reports writes or creates of the database or its WAL.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return w.relevant[filepath.Base(event.Name)]
}
