package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/example/bagswap/internal/store"
)

// ErrorKind classifies a rejected operation.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindForbidden  ErrorKind = "forbidden"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindUpstream   ErrorKind = "upstream"
	KindDuplicate  ErrorKind = "duplicate"
)

// Error is a structured service error. Data is merged into the response body.
type Error struct {
	Kind    ErrorKind
	Message string
	Data    map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func forbiddenError(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func notFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// statusConflict echoes the current status so the caller can refresh.
func statusConflict(msg string, current fmt.Stringer) *Error {
	return &Error{Kind: KindConflict, Message: msg, Data: map[string]any{"currentStatus": current.String()}}
}

func upstreamError(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// storeError converts a lookup failure into not found or upstream.
func storeError(what string, err error) *Error {
	if errors.Is(err, store.ErrNotFound) {
		return notFoundError(what + " not found")
	}
	return upstreamError("failed to load "+what, err)
}

// IsKind reports whether err is a service error of kind.
func IsKind(err error, kind ErrorKind) bool {
	var svcErr *Error
	return errors.As(err, &svcErr) && svcErr.Kind == kind
}
