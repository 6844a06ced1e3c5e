// Package watcher watches the tag definition directory and reports, after a
// quiet period, which tag files changed.
package watcher

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/tagset/internal/log"
)

// Change lists the tag names whose files were written, created, removed or
// renamed since the previous notification.
type Change struct {
	Names []string
}

// Watcher monitors a tag directory for changes to definition files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	ext       string
	debounce  time.Duration
	onChange  chan Change
	done      chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool
}

// Config holds watcher configuration options.
type Config struct {
	Dir         string
	Extension   string
	DebounceDur time.Duration
}

// DefaultConfig watches *.json files in dir with a 250ms debounce.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		Extension:   ".json",
		DebounceDur: 250 * time.Millisecond,
	}
}

// New creates a new tag directory watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	ext := cfg.Extension
	if ext == "" {
		ext = ".json"
	}

	return &Watcher{
		fsWatcher: fsw,
		dir:       cfg.Dir,
		ext:       ext,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan Change, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

// Start begins watching the directory. The returned channel is closed when
// the watcher stops.
func (w *Watcher) Start() (<-chan Change, error) {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.dir, err)
	}

	w.started.Store(true)
	go w.loop()

	log.Debug(log.CatWatcher, "Watching tag directory", "dir", w.dir, "debounce", w.debounce)
	return w.onChange, nil
}

// Stop terminates the watcher and waits for its goroutine to exit. It is
// safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		if w.started.Load() {
			<-w.stopped
		}
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.stopped)
	defer close(w.onChange)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = map[string]struct{}{}
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		timerC = timer.C
	}

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			name, ok := w.tagName(event)
			if !ok {
				continue
			}
			pending[name] = struct{}{}
			arm()

		case <-timerC:
			timerC = nil
			if len(pending) == 0 {
				continue
			}
			names := make([]string, 0, len(pending))
			for n := range pending {
				names = append(names, n)
			}
			slices.Sort(names)

			select {
			case w.onChange <- Change{Names: names}:
				pending = map[string]struct{}{}
				log.Debug(log.CatWatcher, "Tag files changed", "names", strings.Join(names, ","))
			default:
				// Consumer still busy with the previous change; retry later.
				arm()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watcher error", err, "dir", w.dir)

		case <-w.done:
			return
		}
	}
}

// tagName maps a relevant event to the tag name it affects.
func (w *Watcher) tagName(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || filepath.Ext(base) != w.ext {
		return "", false
	}
	return strings.TrimSuffix(base, w.ext), true
}
