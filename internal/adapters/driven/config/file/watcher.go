package file

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/crosswire-labs/intelstream/internal/logger"
)

// debounceWindow coalesces the write bursts editors produce when
// saving a file.
const debounceWindow = 250 * time.Millisecond

// Watcher reloads a ConfigStore when its file changes on disk and
// notifies a callback with the fresh configuration.
type Watcher struct {
	store    *ConfigStore
	onReload func(Config)
	fsw      *fsnotify.Watcher
}

// NewWatcher creates a watcher for the store's config file. onReload
// may be nil when callers only need the store itself kept current.
func NewWatcher(store *ConfigStore, onReload func(Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory rather than the file: editors that replace
	// the file on save would otherwise drop the watch.
	if err := fsw.Add(filepath.Dir(store.Path())); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{store: store, onReload: onReload, fsw: fsw}, nil
}

// Run blocks handling filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.store.Path() {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			if err := w.store.Load(); err != nil {
				logger.Warn("config reload failed: %v", err)
				continue
			}
			logger.Debug("config reloaded from %s", w.store.Path())
			if w.onReload != nil {
				w.onReload(w.store.Config())
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher: %v", err)
		}
	}
}
