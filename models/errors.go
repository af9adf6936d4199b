package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindAuthenticationRequired ErrorKind = "AUTHENTICATION_REQUIRED"
	KindAuthorizationDenied    ErrorKind = "AUTHORIZATION_DENIED"
	KindValidationFailed       ErrorKind = "VALIDATION_FAILED"
	KindNotFound               ErrorKind = "NOT_FOUND"
	KindConflictFailed         ErrorKind = "CONFLICT_FAILED"
	KindTransientStoreFailure  ErrorKind = "TRANSIENT_STORE_FAILURE"
)

// Error is the structured error surfaced to API callers.
type Error struct {
	Kind    ErrorKind
	Message string
	// Fields holds per-field validation messages keyed by input name.
	Fields map[string][]string
	cause  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Extensions exposes the kind and field detail in GraphQL error payloads.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": string(e.Kind)}
	if len(e.Fields) > 0 {
		ext["fields"] = e.Fields
	}
	return ext
}

func NewAuthenticationError(message string) *Error {
	return &Error{Kind: KindAuthenticationRequired, Message: message}
}

func NewAuthorizationError(message string) *Error {
	return &Error{Kind: KindAuthorizationDenied, Message: message}
}

func NewValidationError(message string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidationFailed, Message: message, Fields: fields}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewConflictError(message string, cause error) *Error {
	return &Error{Kind: KindConflictFailed, Message: message, cause: cause}
}

func NewTransientError(message string, cause error) *Error {
	return &Error{Kind: KindTransientStoreFailure, Message: message, cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when
// there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
