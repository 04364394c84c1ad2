// Package tailer tracks a read cursor into a single file and returns
// content appended since the last successful read.
package tailer

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/supporttools/log-doctor/pkg/types"
)

// Tailer owns the read cursor for one file. It has no knowledge of
// error semantics; it only reports new bytes. The cursor is mutated
// only from the monitor loop goroutine, so no locking is needed for a
// single-file, single-monitor deployment.
type Tailer struct {
	fs        afero.Fs
	path      string
	offset    int64
	collector types.Collector
}

// Option configures a Tailer.
type Option func(*Tailer)

// WithCollector attaches an instrumentation collector.
func WithCollector(c types.Collector) Option {
	return func(t *Tailer) {
		if c != nil {
			t.collector = c
		}
	}
}

// New creates a Tailer for path with the cursor at offset 0.
func New(fs afero.Fs, path string, opts ...Option) *Tailer {
	t := &Tailer{
		fs:        fs,
		path:      path,
		collector: types.NopCollector{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Offset reports the byte offset up to which the file has been consumed.
func (t *Tailer) Offset() int64 {
	return t.offset
}

// SeekEnd moves the cursor to the current end of file, so subsequent
// reads only return content appended afterwards. A missing file leaves
// the cursor at 0.
func (t *Tailer) SeekEnd() error {
	info, err := t.fs.Stat(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			t.offset = 0
			return nil
		}
		return fmt.Errorf("stat %s: %w", t.path, err)
	}
	t.offset = info.Size()
	return nil
}

// ReadNew returns the text appended since the last successful read and
// advances the cursor by the number of bytes actually read.
//
// If the file has shrunk below the cursor (rotation or truncation), the
// cursor resets to 0 before reading so tailing recovers over the new
// content. If the file does not exist, ReadNew returns empty text with
// no error; the condition is transient and the next change signal
// retries. Any other failure is returned with the cursor unchanged.
func (t *Tailer) ReadNew() (string, error) {
	info, err := t.fs.Stat(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("stat %s: %w", t.path, err)
	}

	size := info.Size()
	if size < t.offset {
		t.offset = 0
		t.collector.TruncationReset()
	}
	if size == t.offset {
		return "", nil
	}

	f, err := t.fs.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open %s: %w", t.path, err)
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek %s to %d: %w", t.path, t.offset, err)
	}

	// Bound the read at the size observed above; bytes appended while
	// reading are picked up by the next signal.
	data, err := io.ReadAll(io.LimitReader(f, size-t.offset))
	if err != nil {
		// Cursor unchanged: the next signal rereads the same range, so a
		// partial read never loses or duplicates delivered bytes.
		return "", fmt.Errorf("read %s: %w", t.path, err)
	}

	t.offset += int64(len(data))
	return string(data), nil
}
