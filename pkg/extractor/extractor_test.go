package extractor

import (
	"reflect"
	"strings"
	"testing"

	"github.com/supporttools/log-doctor/pkg/types"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []types.ErrorRecord
	}{
		{
			name: "single block",
			text: "File \"app.py\", line 42, in compute\nValueError: bad input\n",
			want: []types.ErrorRecord{
				{
					SourceFile:   "app.py",
					LineNumber:   42,
					FunctionName: "compute",
					ErrorType:    "ValueError",
					ErrorMessage: "bad input",
				},
			},
		},
		{
			name: "two blocks in document order",
			text: strings.Join([]string{
				`File "app.py", line 42, in compute`,
				`ValueError: bad input`,
				`File "db.py", line 7, in connect`,
				`ConnectionError: refused`,
				``,
			}, "\n"),
			want: []types.ErrorRecord{
				{SourceFile: "app.py", LineNumber: 42, FunctionName: "compute", ErrorType: "ValueError", ErrorMessage: "bad input"},
				{SourceFile: "db.py", LineNumber: 7, FunctionName: "connect", ErrorType: "ConnectionError", ErrorMessage: "refused"},
			},
		},
		{
			name: "bare marker yields nothing",
			text: "Error\n",
			want: nil,
		},
		{
			name: "error line without preceding frame yields nothing",
			text: "ValueError: bad input\n",
			want: nil,
		},
		{
			name: "full traceback attributes to deepest frame",
			text: strings.Join([]string{
				`Traceback (most recent call last):`,
				`  File "main.py", line 10, in <module>`,
				`    run()`,
				`  File "app.py", line 42, in compute`,
				`    return 1 / x`,
				`ZeroDivisionError: division by zero`,
				``,
			}, "\n"),
			want: []types.ErrorRecord{
				{SourceFile: "app.py", LineNumber: 42, FunctionName: "compute", ErrorType: "ZeroDivisionError", ErrorMessage: "division by zero"},
			},
		},
		{
			name: "partial block at chunk boundary is dropped",
			text: "File \"app.py\", line 42, in compute\n",
			want: nil,
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "surrounding noise is ignored",
			text: strings.Join([]string{
				`2026-08-23 10:00:00 INFO worker started`,
				`File "app.py", line 42, in compute`,
				`ValueError: bad input`,
				`2026-08-23 10:00:01 INFO worker idle`,
				``,
			}, "\n"),
			want: []types.ErrorRecord{
				{SourceFile: "app.py", LineNumber: 42, FunctionName: "compute", ErrorType: "ValueError", ErrorMessage: "bad input"},
			},
		},
		{
			name: "CRLF line endings",
			text: "File \"app.py\", line 42, in compute\r\nValueError: bad input\r\n",
			want: []types.ErrorRecord{
				{SourceFile: "app.py", LineNumber: 42, FunctionName: "compute", ErrorType: "ValueError", ErrorMessage: "bad input"},
			},
		},
		{
			name: "line number overflow degrades to no match",
			text: "File \"app.py\", line 99999999999999999999, in compute\nValueError: bad input\n",
			want: nil,
		},
		{
			name: "empty message",
			text: "File \"app.py\", line 42, in compute\nKeyboardInterrupt: \n",
			want: []types.ErrorRecord{
				{SourceFile: "app.py", LineNumber: 42, FunctionName: "compute", ErrorType: "KeyboardInterrupt", ErrorMessage: ""},
			},
		},
		{
			name: "dotted error type",
			text: "File \"c.py\", line 3, in call\nsocket.timeout: timed out\n",
			want: []types.ErrorRecord{
				{SourceFile: "c.py", LineNumber: 3, FunctionName: "call", ErrorType: "socket.timeout", ErrorMessage: "timed out"},
			},
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	e := New()
	text := "File \"a.py\", line 1, in f\nTypeError: x\n"

	first := e.Extract(text)
	for i := 0; i < 10; i++ {
		if got := e.Extract(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d: Extract() = %+v, want %+v", i, got, first)
		}
	}
}

func TestNewWithPatterns(t *testing.T) {
	tests := []struct {
		name         string
		framePattern string
		errorPattern string
		wantErr      bool
	}{
		{
			name:         "defaults compile",
			framePattern: DefaultFramePattern,
			errorPattern: DefaultErrorPattern,
		},
		{
			name:         "custom grammar",
			framePattern: `^at (?P<function>\S+) \((?P<file>[^:]+):(?P<line>\d+)\)$`,
			errorPattern: `^(?P<type>\w+): (?P<message>.*)$`,
		},
		{
			name:         "frame pattern missing group",
			framePattern: `^File "(?P<file>[^"]+)", line (?P<line>\d+)$`,
			errorPattern: DefaultErrorPattern,
			wantErr:      true,
		},
		{
			name:         "error pattern missing group",
			framePattern: DefaultFramePattern,
			errorPattern: `^(?P<type>\w+):.*$`,
			wantErr:      true,
		},
		{
			name:         "invalid regex",
			framePattern: `([`,
			errorPattern: DefaultErrorPattern,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithPatterns(tt.framePattern, tt.errorPattern)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewWithPatterns() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtractWithCustomGrammar(t *testing.T) {
	e, err := NewWithPatterns(
		`^at (?P<function>\S+) \((?P<file>[^:]+):(?P<line>\d+)\)$`,
		`^(?P<type>\w+): (?P<message>.*)$`,
	)
	if err != nil {
		t.Fatalf("NewWithPatterns() failed: %v", err)
	}

	got := e.Extract("at handler (server.js:88)\nTypeError: undefined is not a function\n")
	want := []types.ErrorRecord{
		{SourceFile: "server.js", LineNumber: 88, FunctionName: "handler", ErrorType: "TypeError", ErrorMessage: "undefined is not a function"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %+v, want %+v", got, want)
	}
}
