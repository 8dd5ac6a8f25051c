package apperror

import (
	"fmt"
	"net/http"
)

// Kind is the machine-readable class of a domain error.
type Kind string

const (
	Conflict     Kind = "CONFLICT"
	Unauthorized Kind = "UNAUTHORIZED"
	BadRequest   Kind = "BAD_REQUEST"
	NotFound     Kind = "NOT_FOUND"
	Internal     Kind = "INTERNAL"
)

// Error is a domain error carrying a stable kind and a message safe to show clients.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by kind and message so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// HTTPStatus maps a kind to the response status used by the handlers.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Conflict:
		return http.StatusConflict
	case Unauthorized:
		return http.StatusUnauthorized
	case BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
