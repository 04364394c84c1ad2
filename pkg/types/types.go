// Package types defines the core types and interfaces for Log Doctor.
package types

import "fmt"

// ErrorRecord is a single error occurrence extracted from the watched log.
// Records are immutable values: the extractor creates one per match and
// hands it to the callback, which then owns it.
type ErrorRecord struct {
	// SourceFile is the file path named by the error block (the file the
	// logged error originated from, not the watched log file).
	SourceFile string

	// LineNumber is the source line named by the error block (>= 1).
	LineNumber int

	// FunctionName is the enclosing function or context name.
	FunctionName string

	// ErrorType is the error classification (e.g. "ValueError").
	ErrorType string

	// ErrorMessage is the human-readable message following the type.
	ErrorMessage string
}

// String renders the record in a compact single-line form for logging.
func (r ErrorRecord) String() string {
	return fmt.Sprintf("%s:%d in %s: %s: %s",
		r.SourceFile, r.LineNumber, r.FunctionName, r.ErrorType, r.ErrorMessage)
}

// ErrorCallback receives each extracted ErrorRecord, in file order.
// Callbacks run synchronously inside the monitor loop; a callback that
// panics is recovered and reported, it does not stop the monitor unless
// fail-fast is configured.
type ErrorCallback func(record ErrorRecord)

// MonitorState is the lifecycle state of a monitor.
type MonitorState string

const (
	// StateCreated is the initial state before Start.
	StateCreated MonitorState = "Created"

	// StateRunning means the watch subscription is established and the
	// monitor loop is processing change signals.
	StateRunning MonitorState = "Running"

	// StateStopped is terminal. A stopped monitor cannot be restarted;
	// construct a fresh instance instead.
	StateStopped MonitorState = "Stopped"
)

// Monitor is the interface implemented by log monitors.
type Monitor interface {
	// Start establishes the filesystem subscription and begins processing
	// change signals. It fails if the target is unreadable, the watch
	// cannot be established, or the monitor is not in the Created state.
	Start() error

	// Stop cancels the subscription and terminates the monitor loop.
	// Safe to call more than once; a no-op once the monitor is Stopped.
	Stop()

	// State reports the current lifecycle state.
	State() MonitorState
}

// Logger provides optional logging for monitor components. When no
// logger is supplied, logging is silently skipped.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Collector receives instrumentation callouts from the monitor pipeline.
// The Prometheus exporter implements this interface; the default is
// NopCollector so the library works without a metrics backend.
type Collector interface {
	// SignalReceived counts one change signal taken off the watch queue.
	SignalReceived()

	// BytesRead counts bytes returned by an incremental read.
	BytesRead(n int)

	// RecordsExtracted counts records produced by one extraction pass.
	RecordsExtracted(n int)

	// RecordDelivered counts one successful callback invocation.
	RecordDelivered()

	// CallbackFault counts one recovered callback panic or timeout.
	CallbackFault()

	// ReadError counts one transient read failure.
	ReadError()

	// TruncationReset counts one cursor reset after file truncation.
	TruncationReset()

	// ObserveExtractSeconds records the duration of one extraction pass.
	ObserveExtractSeconds(seconds float64)

	// SetMonitorUp reflects whether the monitor loop is running.
	SetMonitorUp(up bool)
}

// NopCollector is a Collector that discards everything.
type NopCollector struct{}

func (NopCollector) SignalReceived()               {}
func (NopCollector) BytesRead(int)                 {}
func (NopCollector) RecordsExtracted(int)          {}
func (NopCollector) RecordDelivered()              {}
func (NopCollector) CallbackFault()                {}
func (NopCollector) ReadError()                    {}
func (NopCollector) TruncationReset()              {}
func (NopCollector) ObserveExtractSeconds(float64) {}
func (NopCollector) SetMonitorUp(bool)             {}

var _ Collector = NopCollector{}
