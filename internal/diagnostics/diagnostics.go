// Package diagnostics defines the single fatal error kind raised by the engine.
//
// Every fault carries a Code from the catalogue in codes.go, a human-readable
// message and, when the caller supplied one, a source line and column.
package diagnostics

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a fatal engine fault.
type Error struct {
	Code    Code
	Message string
	Line    int
	Column  int
	Notes   []string
}

// New creates an error without a source position.
func New(code Code, format string, a ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

// Raise creates an error at a caller-supplied source position.
// A zero line means "no position".
func Raise(line, column int, code Code, format string, a ...interface{}) *Error {
	return New(code, format, a...).At(line, column)
}

// At attaches a position unless one is already set.
func (e *Error) At(line, column int) *Error {
	if e.Line == 0 && line > 0 {
		e.Line = line
		e.Column = column
	}
	return e
}

// WithNote appends a note rendered below the message.
func (e *Error) WithNote(format string, a ...interface{}) *Error {
	e.Notes = append(e.Notes, fmt.Sprintf(format, a...))
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "%d:%d: ", e.Line, e.Column)
	}
	b.WriteString(e.Code.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)
	for _, note := range e.Notes {
		b.WriteString("\n  ")
		b.WriteString(note)
	}
	return b.String()
}

// IsCode reports whether err is (or wraps) a diagnostics error with the given code.
func IsCode(err error, code Code) bool {
	var d *Error
	if errors.As(err, &d) {
		return d.Code.Code == code.Code
	}
	return false
}

// Locate attaches a position to err if it is a diagnostics error.
func Locate(err error, line, column int) error {
	var d *Error
	if errors.As(err, &d) {
		d.At(line, column)
	}
	return err
}
