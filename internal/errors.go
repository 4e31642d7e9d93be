package internal

import (
	"errors"
	"sort"
	"strings"
)

// Error kinds. Concrete errors wrap one of these so the HTTP layer can map
// them with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrLinkNotFound        = newError(ErrNotFound, "link not found")
	ErrUserNotFound        = newError(ErrNotFound, "user not found")
	ErrAliasTaken          = newError(ErrConflict, "alias is already taken")
	ErrShortCodeExhausted  = newError(ErrConflict, "could not allocate a unique short code")
	ErrUsernameTaken       = newError(ErrConflict, "username is already taken")
	ErrInvalidCredentials  = newError(ErrUnauthorized, "invalid username or password")
	ErrInvalidToken        = newError(ErrUnauthorized, "invalid or expired token")
	ErrUnauthorizedRequest = newError(ErrUnauthorized, "authentication required")
	ErrNotOwner            = newError(ErrForbidden, "you do not have access to this link")
)

type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// ValidationError reports malformed input per field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
