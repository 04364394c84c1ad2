package watcher

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// NotifyWatcher raises change signals from fsnotify events. It watches
// the target's parent directory rather than the file itself, because
// file-level watch handles become invalid when the file is replaced or
// rotated; events are filtered to the exact target path.
type NotifyWatcher struct {
	path    string
	fsw     *fsnotify.Watcher
	changes chan Signal
	errs    chan error
	done    chan struct{}
	once    sync.Once
}

var _ Watcher = (*NotifyWatcher)(nil)

// NewNotify establishes a watch for path. The parent directory must
// exist and be watchable; failure here is a fatal configuration error
// for the caller.
func NewNotify(path string) (*NotifyWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch directory %s: %w", filepath.Dir(abs), err)
	}

	w := &NotifyWatcher{
		path: abs,
		fsw:  fsw,
		// Capacity 1 plus non-blocking sends: rapid events coalesce into
		// one pending signal with no semantic loss.
		changes: make(chan Signal, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}

	go w.run()

	return w, nil
}

// run forwards directory events for the target path until the watch is
// lost or the watcher is closed.
func (w *NotifyWatcher) run() {
	defer close(w.changes)
	defer close(w.errs)

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			// Remove/Rename also signal: the following read observes the
			// missing or truncated file and the tailer recovers.
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				select {
				case w.changes <- Signal{}:
				default:
					// A signal is already pending; coalesce.
				}
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// Changes returns the coalesced signal channel.
func (w *NotifyWatcher) Changes() <-chan Signal {
	return w.changes
}

// Errors returns the channel of watch errors.
func (w *NotifyWatcher) Errors() <-chan error {
	return w.errs
}

// Close stops delivery and releases the fsnotify handle.
func (w *NotifyWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}
