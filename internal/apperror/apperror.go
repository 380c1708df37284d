// Package apperror defines the error kinds surfaced to API callers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so callers can branch on it.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindUnauthenticated Kind = "unauthenticated"
	KindValidation      Kind = "validation_error"
	KindUpstreamAuth    Kind = "upstream_auth_failure"
	KindStateMismatch   Kind = "state_mismatch"
	KindConflict        Kind = "conflict"
	KindUnavailable     Kind = "unavailable"
	KindInternal        Kind = "internal"
)

// Error carries a kind, a caller-safe detail and an optional cause.
// Detail is returned to clients and must never contain secrets.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, detail string) error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap returns an error of the given kind that wraps cause.
func Wrap(kind Kind, detail string, cause error) error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}

func NotFound(detail string) error        { return New(KindNotFound, detail) }
func Forbidden(detail string) error       { return New(KindForbidden, detail) }
func Unauthenticated(detail string) error { return New(KindUnauthenticated, detail) }
func Validation(detail string) error      { return New(KindValidation, detail) }
func StateMismatch(detail string) error   { return New(KindStateMismatch, detail) }
func Conflict(detail string) error        { return New(KindConflict, detail) }

// UpstreamAuth reports a failed call to the external provider.
func UpstreamAuth(detail string, cause error) error {
	return Wrap(KindUpstreamAuth, detail, cause)
}

// Internal hides cause from clients behind a generic detail.
func Internal(cause error) error {
	return Wrap(KindInternal, "internal server error", cause)
}

// KindOf reports the kind of err. Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// DetailOf returns the caller-safe message for err.
func DetailOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Detail != "" {
		return appErr.Detail
	}
	return "internal server error"
}

// HTTPStatus maps a kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindValidation, KindStateMismatch:
		return http.StatusBadRequest
	case KindUpstreamAuth:
		return http.StatusBadGateway
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
