// Package ophierr defines the typed error taxonomy shared by every
// component of the fragment reshape engine.
package ophierr

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Kind is one of the error kinds named by the engine's error handling
// design: every public entry point returns one of these, never a bare
// error.
type Kind string

const (
	NullParam   Kind = "NullParam"
	MemoryError Kind = "MemoryError"
	ParseError  Kind = "ParseError"
	ExecError   Kind = "ExecError"
	SourceError Kind = "SourceError"
	PluginError Kind = "PluginError"
)

// Error wraps an engine failure with its kind, a human message, and an
// optional chain of structured detail fields for logging. The
// underlying cause, if any, is preserved and retrievable with
// errors.Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a fresh Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches kind and message to an existing cause, preserving it
// the way the rest of the module wraps adapter and plugin failures.
func Wrap(cause error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: errors.Wrap(cause, message)}
}

// WithDetail attaches a structured field and returns the receiver for
// chaining at the construction site.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Is reports whether err is an *Error of the given kind, unwrapping
// through any errors.Wrap layers.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if oe, ok := err.(*Error); ok {
			e = oe
			break
		}
		err = errors.Unwrap(err)
	}
	return e != nil && e.Kind == kind
}

// NewMemoryBudget builds the MemoryError used when a fragment's
// projected footprint exceeds the configured budget, rendering both
// sides of the comparison in human-readable form.
func NewMemoryBudget(attempted, budget uint64) *Error {
	return New(MemoryError, fmt.Sprintf(
		"fragment exceeds memory budget: needs %s, budget is %s",
		humanize.Bytes(attempted), humanize.Bytes(budget),
	)).WithDetail("attempted_bytes", attempted).WithDetail("budget_bytes", budget)
}
