// Package diagnostic collects and formats compiler error, warning, and info
// messages (spec.md §4.6, §7).
package diagnostic

import (
	"fmt"
	"strings"
)

// Severity is the level of a diagnostic message.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic is a single compiler message.
type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int
	File     string
	Hint     string
}

// Diagnostics accumulates Diagnostic values for a single compilation phase.
type Diagnostics struct {
	items []Diagnostic
}

// New creates an empty Diagnostics collection.
func New() *Diagnostics {
	return &Diagnostics{}
}

// Errorf appends an error-severity diagnostic at the given line.
func (d *Diagnostics) Errorf(line int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{Severity: Error, Message: fmt.Sprintf(format, args...), Line: line})
}

// Warningf appends a warning-severity diagnostic at the given line.
func (d *Diagnostics) Warningf(line int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{Severity: Warning, Message: fmt.Sprintf(format, args...), Line: line})
}

// Infof appends an info-severity diagnostic at the given line.
func (d *Diagnostics) Infof(line int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{Severity: Info, Message: fmt.Sprintf(format, args...), Line: line})
}

// ErrorWithHint appends an error carrying a suggestion.
func (d *Diagnostics) ErrorWithHint(line int, msg, hint string) {
	d.items = append(d.items, Diagnostic{Severity: Error, Message: msg, Line: line, Hint: hint})
}

// ErrorfInFile appends an error attributed to a specific file, used by the
// module loader when reporting errors in imported modules.
func (d *Diagnostics) ErrorfInFile(file string, line int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{Severity: Error, Message: fmt.Sprintf(format, args...), Line: line, File: file})
}

// HasErrors reports whether any item is error-severity.
func (d *Diagnostics) HasErrors() bool {
	for _, it := range d.items {
		if it.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity items.
func (d *Diagnostics) Errors() []Diagnostic {
	var out []Diagnostic
	for _, it := range d.items {
		if it.Severity == Error {
			out = append(out, it)
		}
	}
	return out
}

// All returns every accumulated item regardless of severity.
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// Count returns the total number of accumulated items.
func (d *Diagnostics) Count() int {
	return len(d.items)
}

// Merge appends another Diagnostics collection's items onto this one.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.items = append(d.items, other.items...)
}

// Format renders every item as "severity[file:line]: message", falling back
// to the supplied filename when an item has no File set.
func (d *Diagnostics) Format(filename string) string {
	if len(d.items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, it := range d.items {
		file := filename
		if it.File != "" {
			file = it.File
		}
		fmt.Fprintf(&b, "%s[%s:%d]: %s", it.Severity, file, it.Line, it.Message)
		if it.Hint != "" {
			fmt.Fprintf(&b, "\n  hint: %s", it.Hint)
		}
		if i < len(d.items)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
