package apperror

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind represents the category of an application error
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindValidation      Kind = "VALIDATION_ERROR"
	KindUploadFailure   Kind = "UPLOAD_FAILURE"
	KindStoreFailure    Kind = "STORE_FAILURE"
	KindInternal        Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindNotFound:        http.StatusNotFound,
	KindUnauthenticated: http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindValidation:      http.StatusBadRequest,
	KindUploadFailure:   http.StatusBadGateway,
	KindStoreFailure:    http.StatusServiceUnavailable,
	KindInternal:        http.StatusInternalServerError,
}

// StatusCode returns the HTTP status code for this kind
func (k Kind) StatusCode() int {
	if code, ok := statusByKind[k]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Error is an error carrying a Kind and a user-facing message
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause
func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so errors.Is(err, apperror.ErrNotFound) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is checks
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUploadFailure   = &Error{Kind: KindUploadFailure}
	ErrStoreFailure    = &Error{Kind: KindStoreFailure}
)

// NotFound creates a NOT_FOUND error for the named resource
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Unauthenticated creates an UNAUTHENTICATED error
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden creates a FORBIDDEN error
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Validation creates a VALIDATION_ERROR
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Upload wraps a media host failure
func Upload(err error, message string) *Error {
	return &Error{Kind: KindUploadFailure, Message: message, cause: err}
}

// Store wraps a database failure. A nil err yields nil.
func Store(err error, op string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindStoreFailure, Message: op, cause: errors.WithStack(err)}
}

// KindOf reports the kind of err, KindInternal when err is not an *Error
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// StatusOf returns the HTTP status matching err
func StatusOf(err error) int {
	return KindOf(err).StatusCode()
}

// MessageOf returns a message safe to show to a user
func MessageOf(err error) string {
	var appErr *Error
	if stderrors.As(err, &appErr) && appErr.Message != "" {
		if appErr.Kind == KindStoreFailure {
			return "storage is temporarily unavailable"
		}
		return appErr.Message
	}
	return "internal error"
}
