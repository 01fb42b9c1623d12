package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidAmount = errors.New("invalid amount")
)

// ValidationError reports malformed input with per-field messages, the shape
// forms need to render inline errors.
type ValidationError struct {
	Fields map[string][]string `json:"fieldErrors"`
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add appends a message for a field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// OrNil returns the error only when at least one field failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// DependencyError wraps a collaborator failure (store, blob store, identity
// provider) behind a stable message. The upstream cause stays reachable via
// Unwrap for logging but is not part of the user-visible text.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: dependency failure", e.Op)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Dependency wraps err as a DependencyError, passing nil through.
func Dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DependencyError{Op: op, Err: err}
}
