// Package watch is a host-process utility, not part of the protocol
// core: spec.md §9 is explicit that hot-reload "belongs to the host
// process that owns the server's lifecycle and restarts it, not to the
// protocol engine." cmd/httpd uses this to watch a TLS cert/key pair (or
// any other config file) and trigger a restart callback when either
// changes, the same fsnotify-watcher-plus-debounce shape used for
// config reloads across the example pack.
package watch

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher debounces fsnotify events across a set of paths and invokes
// onChange at most once per Debounce window.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange func()
	debounce time.Duration
	log      *zap.Logger
	done     chan struct{}
}

// New starts watching paths, calling onChange (debounced by debounce)
// whenever any of them is written or renamed over it (the common pattern
// for atomic config-file replacement).
func New(paths []string, debounce time.Duration, onChange func(), log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	w := &Watcher{fsw: fsw, onChange: onChange, debounce: debounce, log: log, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	var timer *time.Timer
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.onChange)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warn("watch: fsnotify error", zap.Error(err))
			}
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
