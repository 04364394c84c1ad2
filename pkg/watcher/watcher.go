// Package watcher delivers change signals for a single watched file.
//
// Two backends are provided: a notification backend built on fsnotify
// and a polling backend for filesystems where change notification is
// unreliable (NFS and friends). Both coalesce rapid changes into a
// single pending signal; consumers must not assume one signal equals
// one write, since a subsequent read always captures all outstanding
// bytes.
package watcher

// Signal indicates the watched file may have new content.
type Signal struct{}

// Watcher is a cancellable stream of change signals for one file path.
type Watcher interface {
	// Changes returns the signal channel. It is closed when the watch is
	// lost or the watcher is closed.
	Changes() <-chan Signal

	// Errors returns the channel of non-fatal watch errors.
	Errors() <-chan error

	// Close stops delivery and releases platform resources. Safe to call
	// more than once.
	Close() error
}

// Factory creates a Watcher for a path. The monitor accepts a Factory
// so tests can inject a scripted watcher.
type Factory func(path string) (Watcher, error)
