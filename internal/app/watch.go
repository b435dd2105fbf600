package app

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DocumentWatcher reports when the open document is changed on disk by
// something other than this process, such as the annotate CLI.
type DocumentWatcher struct {
	mu       sync.Mutex
	path     string
	dir      string
	baseline time.Time
	onChange func(path string)

	watcher *fsnotify.Watcher
	done    chan struct{}
	log     zerolog.Logger
}

// NewDocumentWatcher starts a watcher with nothing watched yet.
func NewDocumentWatcher(log zerolog.Logger) (*DocumentWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &DocumentWatcher{
		watcher: fw,
		done:    make(chan struct{}),
		log:     log.With().Str("component", "watch").Logger(),
	}
	go w.loop()
	return w, nil
}

// OnChange sets the callback invoked when the watched file changes. It
// runs on the watcher's goroutine.
func (w *DocumentWatcher) OnChange(callback func(path string)) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Watch switches to path. The containing directory is watched so that
// editors that save by renaming a temp file are still seen.
func (w *DocumentWatcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir != w.dir {
		if w.dir != "" {
			_ = w.watcher.Remove(w.dir)
		}
		if err := w.watcher.Add(dir); err != nil {
			w.dir = ""
			w.path = ""
			return err
		}
		w.dir = dir
	}
	w.path = abs
	w.baseline = modTime(abs)
	return nil
}

// Path returns the watched file, or "".
func (w *DocumentWatcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Quiet runs fn, which writes the watched file, without reporting the
// write as an outside change.
func (w *DocumentWatcher) Quiet(fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := fn()
	if w.path != "" {
		w.baseline = modTime(w.path)
	}
	return err
}

// Close stops the watcher.
func (w *DocumentWatcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	return w.watcher.Close()
}

func (w *DocumentWatcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Remove) {
				continue
			}
			w.check(ev.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("file watch error")
		}
	}
}

func (w *DocumentWatcher) check(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	if w.path == "" || abs != w.path {
		w.mu.Unlock()
		return
	}
	mt := modTime(abs)
	if !mt.After(w.baseline) {
		w.mu.Unlock()
		return
	}
	w.baseline = mt
	path, callback := w.path, w.onChange
	w.mu.Unlock()

	w.log.Info().Str("path", path).Msg("document changed on disk")
	if callback != nil {
		callback(path)
	}
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
