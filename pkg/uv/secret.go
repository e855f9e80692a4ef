// Package uv drives the external uv resolver: it builds the lock
// command line, runs the subprocess, and translates the uv.lock
// document into the internal dependency model.
package uv

import "strings"

// Arg is one command-line argument. Secret-bearing arguments (index
// URLs with embedded credentials) carry both a redacted display form
// and the real value; the real value is substituted only at the point
// of process execution and never appears in logs.
type Arg struct {
	value   string
	display string
}

// Plain wraps an argument with nothing to hide.
func Plain(s string) Arg {
	return Arg{value: s, display: s}
}

// Secret wraps an argument whose logged form differs from the value
// handed to the subprocess.
func Secret(value, display string) Arg {
	return Arg{value: value, display: display}
}

// String returns the redacted display form. This is what fmt verbs and
// logging see.
func (a Arg) String() string { return a.display }

// Value returns the real argument value for process execution.
func (a Arg) Value() string { return a.value }

// Values unwraps args into the argv handed to the subprocess.
func Values(args []Arg) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.Value()
	}
	return out
}

// Display renders args as a single loggable string, secrets redacted.
func Display(args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
