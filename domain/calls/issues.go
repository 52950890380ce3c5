package calls

import "fmt"

// Issues collects the non-fatal problems found while reading one batch.
// Errors are kept per occurrence; warnings are kept once per key.
// An Issues value belongs to a single pipeline run.
type Issues struct {
	errors   []string
	warnings []string
	seen     map[string]struct{}
}

// NewIssues returns an empty collector.
func NewIssues() *Issues {
	return &Issues{seen: map[string]struct{}{}}
}

// Errorf records one row-level problem.
func (is *Issues) Errorf(format string, args ...any) {
	is.errors = append(is.errors, fmt.Sprintf(format, args...))
}

// Warnf records a warning unless one with the same key was already recorded.
func (is *Issues) Warnf(key string, format string, args ...any) {
	if is.seen == nil {
		is.seen = map[string]struct{}{}
	}
	if _, dup := is.seen[key]; dup {
		return
	}
	is.seen[key] = struct{}{}
	is.warnings = append(is.warnings, fmt.Sprintf(format, args...))
}

// Errors returns a copy of the recorded errors in insertion order.
func (is *Issues) Errors() []string {
	return append([]string{}, is.errors...)
}

// Warnings returns a copy of the recorded warnings in insertion order.
func (is *Issues) Warnings() []string {
	return append([]string{}, is.warnings...)
}

// All returns errors followed by warnings.
func (is *Issues) All() []string {
	out := make([]string, 0, len(is.errors)+len(is.warnings))
	out = append(out, is.errors...)
	return append(out, is.warnings...)
}

// Len is the number of recorded errors and warnings.
func (is *Issues) Len() int { return len(is.errors) + len(is.warnings) }
