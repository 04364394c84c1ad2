package watcher

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// PollWatcher raises change signals by periodically comparing the
// target's size and modification time. It is the fallback for
// filesystems where notification events are unreliable.
type PollWatcher struct {
	fs       afero.Fs
	path     string
	interval time.Duration
	changes  chan Signal
	errs     chan error
	done     chan struct{}
	once     sync.Once
}

var _ Watcher = (*PollWatcher)(nil)

// NewPoll creates a polling watcher over fs. The parent directory must
// exist so that a missing target is a transient condition rather than a
// configuration error.
func NewPoll(fs afero.Fs, path string, interval time.Duration) (*PollWatcher, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", interval)
	}

	w := &PollWatcher{
		fs:       fs,
		path:     path,
		interval: interval,
		changes:  make(chan Signal, 1),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}

	go w.run()

	return w, nil
}

// run polls until the watcher is closed.
func (w *PollWatcher) run() {
	defer close(w.changes)
	defer close(w.errs)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var lastSize int64 = -1 // -1 while the file is missing or unstatted
	var lastMod time.Time
	baselined := false // a baseline was ever established

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
		}

		info, err := w.fs.Stat(w.path)
		if err != nil {
			if os.IsNotExist(err) {
				// Transient; a recreated file signals on the next tick.
				lastSize = -1
				continue
			}
			select {
			case w.errs <- err:
			default:
			}
			continue
		}

		size, mod := info.Size(), info.ModTime()
		missing := lastSize < 0
		changed := !missing && (size != lastSize || !mod.Equal(lastMod))
		lastSize, lastMod = size, mod

		// The very first stat establishes the baseline without signaling,
		// so a pre-existing file does not produce a spurious change. A
		// reappearance after deletion does signal.
		if missing && !baselined {
			baselined = true
			continue
		}
		if !missing && !changed {
			continue
		}

		select {
		case w.changes <- Signal{}:
		default:
			// Coalesce with the pending signal.
		}
	}
}

// Changes returns the coalesced signal channel.
func (w *PollWatcher) Changes() <-chan Signal {
	return w.changes
}

// Errors returns the channel of watch errors.
func (w *PollWatcher) Errors() <-chan error {
	return w.errs
}

// Close stops polling.
func (w *PollWatcher) Close() error {
	w.once.Do(func() {
		close(w.done)
	})
	return nil
}
