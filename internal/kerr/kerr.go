// Package kerr unifies the IO, format, resource-limit, invariant and syntax
// failures that can abort a compilation into one error type, so callers can
// propagate with a single early-exit instead of distinct return codes per
// subsystem (see Design Notes, spec.md §9).
package kerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a compilation step failed.
type Kind int

const (
	// IO covers file-not-found, short read/write, directory open failure.
	IO Kind = iota
	// Format covers bad GIF signature, malformed block, unsupported
	// interlace, invalid canvas dimensions.
	Format
	// Limit covers cell pool full, sprite table full, ROM buffer full,
	// LZW dictionary overflow.
	Limit
	// Invariant covers container validation failure at save.
	Invariant
	// Syntax covers unknown token, structural mismatch in the manifest.
	Syntax
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "io"
	case Format:
		return "format"
	case Limit:
		return "limit"
	case Invariant:
		return "invariant"
	case Syntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// Error names the component that failed, the kind of failure, and wraps the
// underlying cause.
type Error struct {
	Kind      Kind
	Component string
	cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Kind, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a Kind/Component-tagged error from a message.
func New(kind Kind, component, msg string) *Error {
	return &Error{Kind: kind, Component: component, cause: errors.New(msg)}
}

// Wrap tags an existing error with a Kind and the component that observed
// it, preserving the original cause via github.com/pkg/errors so %+v still
// prints a stack trace from the wrap site.
func Wrap(kind Kind, component string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Component: component, cause: errors.WithStack(cause)}
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
