// Package errors defines the domain error taxonomy shared by services and handlers.
// Every failure that crosses a service boundary is a *DomainError carrying a stable
// Kind and Code plus a human-readable message.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a DomainError; handlers map kinds to transport status codes.
type Kind string

const (
	KindConflict     Kind = "conflict"
	KindRateLimited  Kind = "rate_limited"
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindUnauthorized Kind = "unauthorized"
	KindExpired      Kind = "expired"
	KindForbidden    Kind = "forbidden"
	KindValidation   Kind = "validation"
	KindInternal     Kind = "internal"
)

type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	// Fields holds per-field messages for KindValidation.
	Fields map[string]string
	cause  error
}

func (e *DomainError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Is matches on Code so that re-messaged copies of a sentinel still satisfy errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *DomainError) Unwrap() error {
	return e.cause
}

// WithMessage returns a copy of e with a different message.
func (e *DomainError) WithMessage(msg string) *DomainError {
	cp := *e
	cp.Message = msg
	return &cp
}

// Wrap returns a copy of e that records cause for logging.
func (e *DomainError) Wrap(cause error) *DomainError {
	cp := *e
	cp.cause = cause
	return &cp
}

func New(kind Kind, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

// Validation builds a KindValidation error from field messages.
func Validation(fields map[string]string) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Code:    "VALIDATION_ERROR",
		Message: "invalid input",
		Fields:  fields,
	}
}

// FieldError is shorthand for a single-field validation error.
func FieldError(field, message string) *DomainError {
	return Validation(map[string]string{field: message})
}

// Internal wraps an unexpected failure without exposing its text to callers.
func Internal(cause error) *DomainError {
	return ErrInternal.Wrap(cause)
}

// KindOf classifies any error; non-domain errors are internal.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// As extracts the DomainError from err, converting unknown errors to ErrInternal.
func As(err error) *DomainError {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de
	}
	return Internal(err)
}
