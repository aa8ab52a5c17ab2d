// Package watch reports changes to a set of source files, debounced into batches.
package watch

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Config holds watcher configuration options.
type Config struct {
	// Files are the paths whose changes are reported.
	Files []string
	// Debounce is how long the files must be quiet before a batch is sent.
	Debounce time.Duration
	// OnError receives watcher errors. Watching continues after an error.
	OnError func(error)
}

// Watcher monitors files for changes and sends batches of changed paths.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	files     map[string]bool
	debounce  time.Duration
	onError   func(error)
	changes   chan []string
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a watcher for cfg.Files.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	files := make(map[string]bool, len(cfg.Files))
	for _, f := range cfg.Files {
		files[filepath.Clean(f)] = true
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	onError := cfg.OnError
	if onError == nil {
		onError = func(error) {}
	}

	return &Watcher{
		fsWatcher: fsw,
		files:     files,
		debounce:  debounce,
		onError:   onError,
		changes:   make(chan []string, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches the directories holding the files. Editors often replace a file rather than
// write it, so directories are watched instead of the files themselves. The returned channel
// is closed after Stop.
func (w *Watcher) Start() (<-chan []string, error) {
	dirs := make([]string, 0, len(w.files))

	for f := range w.files {
		if dir := filepath.Dir(f); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}

	slices.Sort(dirs)

	for _, dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	go w.loop()

	return w.changes, nil
}

// Stop terminates the watcher and releases resources. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error

	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})

	return err
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	defer close(w.changes)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = map[string]bool{}
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			name := filepath.Clean(event.Name)
			if !w.isRelevant(name, event.Op) {
				continue
			}

			pending[name] = true

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}

			timerC = timer.C
		case <-timerC:
			timerC = nil

			if len(pending) == 0 {
				continue
			}

			batch := make([]string, 0, len(pending))
			for name := range pending {
				batch = append(batch, name)
			}

			slices.Sort(batch)
			clear(pending)

			select {
			case w.changes <- batch:
			case <-w.done:
				return
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}

			w.onError(err)
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}

			return
		}
	}
}

func (w *Watcher) isRelevant(name string, op fsnotify.Op) bool {
	if op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}

	return w.files[name]
}
