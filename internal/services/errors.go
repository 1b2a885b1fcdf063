package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrConflict marks a request that collides with existing state.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks an unknown resource, or one owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated marks a rejected credential.
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrEmailTaken         = wrapKind(ErrConflict, "email already registered")
	ErrInvalidCredentials = wrapKind(ErrUnauthenticated, "invalid credentials")
	ErrExpenseNotFound    = wrapKind(ErrNotFound, "expense not found")

	// ErrFutureDate is the business rule that expenses cannot be dated after now.
	ErrFutureDate = errors.New("expense date cannot be in the future")
)

// kindError carries a client-safe message and classifies it under a kind sentinel.
type kindError struct {
	kind error
	msg  string
}

func wrapKind(kind error, msg string) error { return &kindError{kind: kind, msg: msg} }

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// ValidationError reports malformed or missing input. Fields maps input
// names to the reason each one was rejected.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
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
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func invalid(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func invalidField(field, reason string) *ValidationError {
	return &ValidationError{Message: "validation failed", Fields: map[string]string{field: reason}}
}
