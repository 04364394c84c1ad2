// Package monitor orchestrates log monitoring: it owns a change
// watcher, a file tailer, and a pattern extractor, and forwards each
// extracted ErrorRecord to a registered callback.
package monitor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/supporttools/log-doctor/pkg/extractor"
	"github.com/supporttools/log-doctor/pkg/tailer"
	"github.com/supporttools/log-doctor/pkg/types"
	"github.com/supporttools/log-doctor/pkg/watcher"
)

// Lifecycle misuse errors.
var (
	// ErrAlreadyRunning is returned by Start on a Running monitor.
	ErrAlreadyRunning = errors.New("monitor is already running")

	// ErrMonitorStopped is returned by Start on a Stopped monitor.
	// Stopped is terminal: construct a fresh instance instead, which
	// avoids ambiguous cursor and subscription reuse semantics.
	ErrMonitorStopped = errors.New("monitor is stopped and cannot be restarted")
)

// stopWait bounds how long Stop waits for the loop goroutine.
const stopWait = 30 * time.Second

// LogMonitor watches one log file and delivers ErrorRecords to its
// callback in file order. Lifecycle: Created -> Running -> Stopped.
type LogMonitor struct {
	// Configuration (immutable after New)
	path            string
	callback        types.ErrorCallback
	extract         *extractor.Extractor
	fs              afero.Fs
	newWatcher      watcher.Factory
	logger          types.Logger
	collector       types.Collector
	callbackTimeout time.Duration
	failFast        bool

	// Runtime state
	mu       sync.Mutex
	state    types.MonitorState
	stopping bool
	tail     *tailer.Tailer
	watch    watcher.Watcher
	stopChan chan struct{}
	wg       sync.WaitGroup
}

var _ types.Monitor = (*LogMonitor)(nil)

// Option configures a LogMonitor.
type Option func(*LogMonitor)

// WithExtractor replaces the built-in traceback grammar.
func WithExtractor(e *extractor.Extractor) Option {
	return func(m *LogMonitor) {
		if e != nil {
			m.extract = e
		}
	}
}

// WithFilesystem replaces the OS filesystem, for tests.
func WithFilesystem(fs afero.Fs) Option {
	return func(m *LogMonitor) {
		if fs != nil {
			m.fs = fs
		}
	}
}

// WithWatcherFactory replaces the change-detection backend. The default
// builds an fsnotify watcher on the target's parent directory.
func WithWatcherFactory(f watcher.Factory) Option {
	return func(m *LogMonitor) {
		if f != nil {
			m.newWatcher = f
		}
	}
}

// WithLogger attaches a logger. Without one, logging is skipped.
func WithLogger(l types.Logger) Option {
	return func(m *LogMonitor) {
		m.logger = l
	}
}

// WithCollector attaches an instrumentation collector.
func WithCollector(c types.Collector) Option {
	return func(m *LogMonitor) {
		if c != nil {
			m.collector = c
		}
	}
}

// WithCallbackTimeout bounds a single callback invocation. A timed-out
// callback is reported as a fault and the loop moves on; the callback
// goroutine itself is not interrupted. Zero disables the bound.
func WithCallbackTimeout(d time.Duration) Option {
	return func(m *LogMonitor) {
		m.callbackTimeout = d
	}
}

// WithFailFast stops the monitor on the first callback fault instead of
// isolating it and continuing.
func WithFailFast(failFast bool) Option {
	return func(m *LogMonitor) {
		m.failFast = failFast
	}
}

// New creates a monitor for path in the Created state. The callback is
// invoked once per detected error occurrence, synchronously, in file
// order.
func New(path string, onError types.ErrorCallback, opts ...Option) (*LogMonitor, error) {
	if path == "" {
		return nil, fmt.Errorf("watch path cannot be empty")
	}
	if onError == nil {
		return nil, fmt.Errorf("error callback cannot be nil")
	}

	m := &LogMonitor{
		path:      path,
		callback:  onError,
		extract:   extractor.New(),
		fs:        afero.NewOsFs(),
		collector: types.NopCollector{},
		state:     types.StateCreated,
		stopChan:  make(chan struct{}),
	}
	m.newWatcher = func(p string) (watcher.Watcher, error) {
		return watcher.NewNotify(p)
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// State reports the current lifecycle state.
func (m *LogMonitor) State() types.MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start validates the target, establishes the watch subscription, and
// launches the monitor loop. The target must exist and be readable, and
// the watch must be establishable, or Start fails and the monitor never
// enters Running. Reading resumes from the current end of file; prior
// content is never replayed.
func (m *LogMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case types.StateRunning:
		return ErrAlreadyRunning
	case types.StateStopped:
		return ErrMonitorStopped
	}

	f, err := m.fs.Open(m.path)
	if err != nil {
		return fmt.Errorf("watch target %s is not readable: %w", m.path, err)
	}
	f.Close()

	m.tail = tailer.New(m.fs, m.path, tailer.WithCollector(m.collector))
	if err := m.tail.SeekEnd(); err != nil {
		return fmt.Errorf("seek to end of %s: %w", m.path, err)
	}

	w, err := m.newWatcher(m.path)
	if err != nil {
		return fmt.Errorf("establish watch for %s: %w", m.path, err)
	}
	m.watch = w

	m.state = types.StateRunning
	m.collector.SetMonitorUp(true)

	m.wg.Add(1)
	go m.run()

	m.logInfof("monitor started for %s at offset %d", m.path, m.tail.Offset())

	return nil
}

// Stop requests cooperative shutdown: the loop observes the request at
// its next wait point, an in-flight callback is allowed to complete,
// and the watch subscription is released. Idempotent; a no-op once the
// monitor is Stopped.
func (m *LogMonitor) Stop() {
	m.mu.Lock()
	if m.state != types.StateRunning || m.stopping {
		m.mu.Unlock()
		return
	}
	m.stopping = true
	w := m.watch
	m.mu.Unlock()

	close(m.stopChan)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopWait):
		m.logWarnf("monitor for %s did not stop within %v", m.path, stopWait)
	}

	if err := w.Close(); err != nil {
		m.logWarnf("closing watcher for %s: %v", m.path, err)
	}

	m.mu.Lock()
	m.state = types.StateStopped
	m.mu.Unlock()
	m.collector.SetMonitorUp(false)

	m.logInfof("monitor stopped for %s", m.path)
}

// run is the monitor loop: block until a change signal, a watch error,
// or a stop request, whichever first. Signals are processed strictly in
// arrival order.
func (m *LogMonitor) run() {
	defer m.wg.Done()

	changes := m.watch.Changes()
	watchErrs := m.watch.Errors()

	for {
		select {
		case <-m.stopChan:
			return

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			// fsnotify errors are not fatal to the subscription; report
			// and keep watching.
			m.logErrorf("watch error for %s: %v", m.path, err)

		case _, ok := <-changes:
			if !ok {
				// The watch itself is gone; monitoring cannot continue.
				m.logErrorf("watch lost for %s, stopping monitor", m.path)
				m.terminate()
				return
			}
			m.collector.SignalReceived()
			if stop := m.process(); stop {
				m.terminate()
				return
			}
		}
	}
}

// terminate transitions to Stopped from inside the loop, for
// unrecoverable failures. A later Stop call is a no-op.
func (m *LogMonitor) terminate() {
	m.mu.Lock()
	if m.state == types.StateRunning {
		m.state = types.StateStopped
	}
	w := m.watch
	m.mu.Unlock()

	if err := w.Close(); err != nil {
		m.logWarnf("closing watcher for %s: %v", m.path, err)
	}
	m.collector.SetMonitorUp(false)
}

// process drains all new bytes, extracts error records, and dispatches
// them in order. It returns true when the monitor must stop (fail-fast
// callback fault).
func (m *LogMonitor) process() bool {
	text, err := m.tail.ReadNew()
	if err != nil {
		// Transient: the watch is independent of read success, so report
		// and wait for the next signal.
		m.collector.ReadError()
		m.logWarnf("read %s: %v", m.path, err)
		return false
	}
	if text == "" {
		return false
	}
	m.collector.BytesRead(len(text))

	start := time.Now()
	records := m.extract.Extract(text)
	m.collector.ObserveExtractSeconds(time.Since(start).Seconds())
	m.collector.RecordsExtracted(len(records))

	for _, record := range records {
		if err := m.dispatch(record); err != nil {
			m.collector.CallbackFault()
			m.logErrorf("callback fault for %s: %v", m.path, err)
			if m.failFast {
				return true
			}
			// One bad consumer invocation does not drop the remaining
			// records in the batch.
			continue
		}
		m.collector.RecordDelivered()
	}

	return false
}

// dispatch invokes the callback for one record, recovering panics and
// optionally bounding the invocation with the configured timeout.
func (m *LogMonitor) dispatch(record types.ErrorRecord) error {
	errChan := make(chan error, 1)
	invoke := func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("callback panicked: %v", r)
				return
			}
			errChan <- nil
		}()
		m.callback(record)
	}

	if m.callbackTimeout <= 0 {
		invoke()
		return <-errChan
	}

	timer := time.NewTimer(m.callbackTimeout)
	defer timer.Stop()

	go invoke()

	select {
	case err := <-errChan:
		return err
	case <-timer.C:
		return fmt.Errorf("callback timed out after %v", m.callbackTimeout)
	}
}

// Logging helpers tolerate an absent logger.

func (m *LogMonitor) logInfof(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Infof(format, args...)
	}
}

func (m *LogMonitor) logWarnf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Warnf(format, args...)
	}
}

func (m *LogMonitor) logErrorf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Errorf(format, args...)
	}
}
