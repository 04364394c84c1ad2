package extractor

import (
	"fmt"
	"regexp"
)

const (
	// Default grammar: Python-style traceback blocks. A frame line names
	// the source location and enclosing function; the block terminates
	// with an "ErrorType: message" line.
	DefaultFramePattern = `^\s*File "(?P<file>[^"]+)", line (?P<line>\d+), in (?P<function>\S+)\s*$`
	DefaultErrorPattern = `^(?P<type>[A-Za-z_][A-Za-z0-9_.]*):\s?(?P<message>.*)$`

	// Regex safety limit to prevent ReDoS from user-supplied patterns
	maxPatternLength = 1000
)

// Named capture groups the grammar must define.
const (
	groupFile     = "file"
	groupLine     = "line"
	groupFunction = "function"
	groupType     = "type"
	groupMessage  = "message"
)

// dangerousPatterns match nested quantifiers like (a+)+ that can cause
// catastrophic backtracking.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(\.\*\)\+`),    // (.*)+
	regexp.MustCompile(`\(\.\+\)\+`),    // (.+)+
	regexp.MustCompile(`\(\.\*\)\*`),    // (.*)*
	regexp.MustCompile(`\(\.\+\)\*`),    // (.+)*
	regexp.MustCompile(`\([^)]*\+\)\+`), // (x+)+
	regexp.MustCompile(`\([^)]*\*\)\+`), // (x*)+
}

// validatePatternSafety rejects patterns that are too long or contain
// quantifier nesting known to backtrack catastrophically.
func validatePatternSafety(pattern string) error {
	if len(pattern) > maxPatternLength {
		return fmt.Errorf("pattern exceeds maximum length of %d characters", maxPatternLength)
	}
	for _, dangerous := range dangerousPatterns {
		if dangerous.MatchString(pattern) {
			return fmt.Errorf("pattern contains nested quantifiers that could cause catastrophic backtracking")
		}
	}
	return nil
}

// compilePattern validates, compiles, and indexes a pattern, checking
// that every required named capture group is present.
func compilePattern(pattern string, required ...string) (*regexp.Regexp, map[string]int, error) {
	if err := validatePatternSafety(pattern); err != nil {
		return nil, nil, err
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	groups := map[string]int{}
	for _, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = re.SubexpIndex(name)
		}
	}
	for _, name := range required {
		if _, ok := groups[name]; !ok {
			return nil, nil, fmt.Errorf("pattern %q is missing required capture group %q", pattern, name)
		}
	}

	return re, groups, nil
}
