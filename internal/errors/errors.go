// Package errors provides structured error types for tilecfg.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for tilecfg.
const (
	// Persistence errors
	CodeNotFound Code = "NOT_FOUND"
	CodeIO       Code = "IO_ERROR"
	CodeParse    Code = "PARSE_ERROR"

	// Watcher errors
	CodeWatch Code = "WATCH_ERROR"

	// Editing errors
	CodeInvalidKey   Code = "INVALID_KEY"
	CodeInvalidValue Code = "INVALID_VALUE"

	// History errors
	CodeRevisionNotFound Code = "REVISION_NOT_FOUND"
)

// Severity tells the UI how loudly to surface an error.
type Severity int

const (
	// SeverityError is shown as a dismissible notification.
	SeverityError Severity = iota
	// SeverityInfo is expected during normal operation (e.g. first run) and
	// is not shown as an error banner.
	SeverityInfo
)

var codeSeverities = map[Code]Severity{
	CodeNotFound: SeverityInfo,
}

// Error is the structured error type for tilecfg.
type Error struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Path  string `json:"path,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *Error) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Notification returns the title and optional description shown in the
// editor's dismissible notification.
func (e *Error) Notification() (title, description string) {
	title = e.What
	switch {
	case e.Why != "" && e.Cause != nil:
		description = e.Why + ": " + e.Cause.Error()
	case e.Why != "":
		description = e.Why
	case e.Cause != nil:
		description = e.Cause.Error()
	}
	return title, description
}

// Severity returns how the error should be surfaced.
func (e *Error) Severity() Severity {
	if sev, ok := codeSeverities[e.Code]; ok {
		return sev
	}
	return SeverityError
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.Cause = err
	return &cp
}

// --- Error constructors ---

// ErrNotFound returns the informational error for a configuration file
// that does not exist yet.
func ErrNotFound(path string) *Error {
	return &Error{
		Code: CodeNotFound,
		What: "configuration file not found",
		Why:  fmt.Sprintf("%s does not exist yet", path),
		Fix:  "Defaults are used until the first save creates the file",
		Path: path,
	}
}

// ErrRead returns an error for a failed read.
func ErrRead(path string, cause error) *Error {
	return &Error{
		Code:  CodeIO,
		What:  "failed to read configuration",
		Why:   path,
		Path:  path,
		Cause: cause,
	}
}

// ErrWrite returns an error for a failed write or create.
func ErrWrite(path string, cause error) *Error {
	return &Error{
		Code:  CodeIO,
		What:  "failed to write configuration",
		Why:   path,
		Fix:   "Check that the directory exists and is writable",
		Path:  path,
		Cause: cause,
	}
}

// ErrParse returns an error for malformed persisted content.
func ErrParse(path string, cause error) *Error {
	return &Error{
		Code:  CodeParse,
		What:  "failed to parse configuration",
		Why:   path,
		Fix:   "Fix the file by hand or restore a previous revision with 'tilecfg history restore'",
		Path:  path,
		Cause: cause,
	}
}

// ErrWatch returns an error raised by the filesystem watch subsystem.
func ErrWatch(path string, cause error) *Error {
	return &Error{
		Code:  CodeWatch,
		What:  "file watch failed",
		Why:   path,
		Path:  path,
		Cause: cause,
	}
}

// ErrInvalidKey returns an error for an unknown configuration key.
func ErrInvalidKey(key, reason string) *Error {
	return &Error{
		Code: CodeInvalidKey,
		What: fmt.Sprintf("invalid configuration key: %s", key),
		Why:  reason,
		Fix:  "Run 'tilecfg keys <document>' to list available keys",
	}
}

// ErrInvalidValue returns an error for a value that does not fit its field.
func ErrInvalidValue(key, value string, cause error) *Error {
	return &Error{
		Code:  CodeInvalidValue,
		What:  fmt.Sprintf("invalid value %q for %s", value, key),
		Cause: cause,
	}
}

// ErrRevisionNotFound returns an error when a history revision doesn't exist.
func ErrRevisionNotFound(id int64) *Error {
	return &Error{
		Code: CodeRevisionNotFound,
		What: fmt.Sprintf("revision %d not found", id),
		Fix:  "Run 'tilecfg history list' to see recorded revisions",
	}
}

// AsError attempts to convert an error to an *Error.
// Returns nil if the error is not an *Error.
func AsError(err error) *Error {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

// HasCode reports whether err is an *Error carrying code.
func HasCode(err error, code Code) bool {
	e := AsError(err)
	return e != nil && e.Code == code
}

// IsNotFound reports whether err is the informational not-found error.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// Wrap wraps a generic error into an *Error with unknown code.
func Wrap(err error, what string) *Error {
	return &Error{
		Code:  Code("UNKNOWN"),
		What:  what,
		Cause: err,
	}
}
