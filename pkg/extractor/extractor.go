// Package extractor parses chunks of log text for stack-trace-style
// error blocks and produces structured ErrorRecords.
//
// An error block is a frame-location line
//
//	File "app.py", line 42, in compute
//
// terminated by an "ErrorType: message" line. Full tracebacks with
// several frames yield one record attributed to the deepest frame, the
// one immediately enclosing the raised error.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/supporttools/log-doctor/pkg/types"
)

// Extractor scans text against a compiled error-block grammar. It is
// pure computation: no I/O, no mutable state, safe for concurrent use.
type Extractor struct {
	frame       *regexp.Regexp
	terminator  *regexp.Regexp
	frameGroups map[string]int
	termGroups  map[string]int
}

// New returns an Extractor using the built-in traceback grammar.
func New() *Extractor {
	e, err := NewWithPatterns(DefaultFramePattern, DefaultErrorPattern)
	if err != nil {
		// The default patterns are compile-time constants; failing to
		// compile them is a programming error.
		panic(err)
	}
	return e
}

// NewWithPatterns returns an Extractor using a custom grammar. The frame
// pattern must define the named capture groups "file", "line" and
// "function"; the error pattern must define "type" and "message".
// Patterns are validated against length and backtracking safety limits.
func NewWithPatterns(framePattern, errorPattern string) (*Extractor, error) {
	frame, frameGroups, err := compilePattern(framePattern, groupFile, groupLine, groupFunction)
	if err != nil {
		return nil, err
	}
	terminator, termGroups, err := compilePattern(errorPattern, groupType, groupMessage)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		frame:       frame,
		terminator:  terminator,
		frameGroups: frameGroups,
		termGroups:  termGroups,
	}, nil
}

// pendingFrame holds the most recent frame line while scanning for the
// block's terminating error line.
type pendingFrame struct {
	file     string
	line     int
	function string
}

// Extract scans text line by line and returns one ErrorRecord per
// complete error block, in document order. It never fails: a marker with
// no well-formed structured fragment, or a fragment with an unparseable
// line number, yields no record and the scan continues.
//
// Known limitation: a block split across two reads (frame in one chunk,
// terminating error line in the next) is dropped rather than buffered
// across chunk boundaries.
func (e *Extractor) Extract(text string) []types.ErrorRecord {
	var records []types.ErrorRecord
	var pending *pendingFrame

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if match := e.frame.FindStringSubmatch(line); match != nil {
			// In a multi-frame traceback the deepest frame wins.
			n, err := strconv.Atoi(match[e.frameGroups[groupLine]])
			if err != nil || n < 1 {
				pending = nil
				continue
			}
			pending = &pendingFrame{
				file:     match[e.frameGroups[groupFile]],
				line:     n,
				function: match[e.frameGroups[groupFunction]],
			}
			continue
		}

		if pending == nil {
			continue
		}

		if match := e.terminator.FindStringSubmatch(line); match != nil {
			records = append(records, types.ErrorRecord{
				SourceFile:   pending.file,
				LineNumber:   pending.line,
				FunctionName: pending.function,
				ErrorType:    match[e.termGroups[groupType]],
				ErrorMessage: match[e.termGroups[groupMessage]],
			})
			pending = nil
		}
	}

	return records
}
