// Package httperr is the taxonomy of domain errors spec.md §7 describes:
// each carries the HTTP status it maps to, used as the status line on the
// H1 path and as the `:status` on the H2 path. It is the Go analogue of
// original_source/server/message.py's BaseHTTPError subclasses.
package httperr

import (
	"errors"
	"net/http"
)

// Error is a domain error carrying the HTTP status it should produce.
type Error struct {
	Status int
	Reason string // optional extra detail appended to the status text
}

func (e *Error) Error() string {
	text := http.StatusText(e.Status)
	if e.Reason == "" {
		return text
	}
	return text + ": " + e.Reason
}

// StatusCode reports the HTTP status this error maps to.
func (e *Error) StatusCode() int { return e.Status }

// New builds a domain error with the given status and optional reason.
func New(status int, reason string) *Error {
	return &Error{Status: status, Reason: reason}
}

// Constructors for the taxonomy in spec.md §7.

func BadRequest(reason string) *Error            { return New(http.StatusBadRequest, reason) }
func Unauthorized(reason string) *Error          { return New(http.StatusUnauthorized, reason) }
func NotFound(reason string) *Error              { return New(http.StatusNotFound, reason) }
func MethodNotAllowed(reason string) *Error      { return New(http.StatusMethodNotAllowed, reason) }
func URITooLong(reason string) *Error            { return New(http.StatusRequestURITooLong, reason) }
func RequestEntityTooLarge(reason string) *Error { return New(http.StatusRequestEntityTooLarge, reason) }
func InternalServerError(reason string) *Error   { return New(http.StatusInternalServerError, reason) }
func NotImplemented(reason string) *Error        { return New(http.StatusNotImplemented, reason) }

// As reports whether err is (or wraps) an *Error, and returns it.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// StatusOf returns the HTTP status for err, defaulting to 500 for errors
// outside the taxonomy.
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}
