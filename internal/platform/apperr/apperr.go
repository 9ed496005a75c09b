// Package apperr defines the error kinds shared by every domain package.
// Transport code maps a kind to a status code; domain code only wraps.
package apperr

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error is a domain error with a stable machine-readable code.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects field issues. It is always returned before any
// write happens.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Add(field, reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	e.Issues = append(e.Issues, Issue{Field: strings.TrimSpace(field), Reason: reason})
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Field == "" {
			parts = append(parts, issue.Reason)
			continue
		}
		parts = append(parts, issue.Field+": "+issue.Reason)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// OrNil returns e when it holds issues, otherwise a nil error.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Issues) == 0 {
		return nil
	}
	sort.SliceStable(e.Issues, func(i, j int) bool {
		return e.Issues[i].Field < e.Issues[j].Field
	})
	return e
}

func Validation(field, reason string) error {
	v := &ValidationError{}
	v.Add(field, reason)
	return v
}

func NotFound(code, message string) *Error {
	return New(ErrNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(ErrConflict, code, message)
}

func Forbidden(code, message string) *Error {
	return New(ErrForbidden, code, message)
}

func Unauthenticated(code, message string) *Error {
	return New(ErrUnauthenticated, code, message)
}
