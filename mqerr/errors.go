// Package mqerr defines the error kinds shared by the query and update
// engines.
//
// Every kind is a struct carrying a human readable Reason plus structured
// context, and wraps one of the package sentinels so callers may use either
// errors.Is or errors.As:
//
//	var ve *mqerr.ValidationError
//	if errors.As(err, &ve) {
//	    // ve.Kind is mqerr.QueryKind or mqerr.UpdateKind
//	}
//	if errors.Is(err, mqerr.ErrObjectMatch) { ... }
package mqerr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrObjectMatch = errors.New("object match error")
	ErrMissingVar  = errors.New("missing query var")
	ErrCompose     = errors.New("compose update error")
)

// Kind tells whether a ValidationError is about a query or an update.
type Kind int

const (
	QueryKind Kind = iota
	UpdateKind
)

func (k Kind) String() string {
	switch k {
	case QueryKind:
		return "query"
	case UpdateKind:
		return "update"
	}
	return "<unknown kind>"
}

// ValidationError reports a malformed query or update.
type ValidationError struct {
	Kind   Kind
	Reason string
	// Path is the field path or operator the error is about, if any.
	Path string
	// Value is the offending part of the query or update, if any.
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s validation error: %s", e.Kind, msg)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// ObjectMatchError reports a document whose shape does not fit an
// otherwise well formed query or update.
type ObjectMatchError struct {
	Reason string
	Path   string
	Value  any
}

func (e *ObjectMatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("object match error at %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("object match error: %s", e.Reason)
}

func (e *ObjectMatchError) Unwrap() error {
	return ErrObjectMatch
}

// MissingQueryVarError reports a $var reference with no value.
type MissingQueryVarError struct {
	Var string
}

func (e *MissingQueryVarError) Error() string {
	return fmt.Sprintf("missing query var %q", e.Var)
}

func (e *MissingQueryVarError) Unwrap() error {
	return ErrMissingVar
}

// ComposeUpdateError reports two updates which cannot be merged.
type ComposeUpdateError struct {
	Reason string
	Op     string
	Path   string
}

func (e *ComposeUpdateError) Error() string {
	switch {
	case e.Op != "" && e.Path != "":
		return fmt.Sprintf("cannot compose %s on %s: %s", e.Op, e.Path, e.Reason)
	case e.Path != "":
		return fmt.Sprintf("cannot compose updates on %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("cannot compose updates: %s", e.Reason)
}

func (e *ComposeUpdateError) Unwrap() error {
	return ErrCompose
}

// Query returns a query ValidationError.
func Query(reason, path string, value any) error {
	return &ValidationError{Kind: QueryKind, Reason: reason, Path: path, Value: value}
}

// Update returns an update ValidationError.
func Update(reason, path string, value any) error {
	return &ValidationError{Kind: UpdateKind, Reason: reason, Path: path, Value: value}
}

// ObjectMatch returns an ObjectMatchError.
func ObjectMatch(reason, path string, value any) error {
	return &ObjectMatchError{Reason: reason, Path: path, Value: value}
}

// IsObjectMatch reports whether err is or wraps an ObjectMatchError.
func IsObjectMatch(err error) bool {
	var om *ObjectMatchError
	return errors.As(err, &om)
}
