// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Kind classifies an application error independently of any transport.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalid
	KindUnauthenticated
	KindForbidden
	KindConflict
	KindDeadline
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalid:
		return "BAD_REQUEST"
	case KindUnauthenticated:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindConflict:
		return "CONFLICT"
	case KindDeadline:
		return "TIMEOUT"
	case KindCanceled:
		return "CANCELED"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error is the single error type returned by the service layer.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Kind.String()
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, errors.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is checks.
var (
	ErrNotFound  = &Error{Kind: KindNotFound}
	ErrInvalid   = &Error{Kind: KindInvalid}
	ErrForbidden = &Error{Kind: KindForbidden}
	ErrConflict  = &Error{Kind: KindConflict}
	ErrInternal  = &Error{Kind: KindInternal}
)

// Map converts repo/infra errors into application errors.
// Errors that already carry a Kind pass through untouched.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	switch {
	case errors.As(err, &appErr):
		return err

	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Msg: "record not found", Err: err}

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Msg: "record already exists", Err: err}

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindDeadline, Msg: "request timed out", Err: err}

	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCanceled, Msg: "request was canceled", Err: err}

	default:
		return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
	}
}

// KindOf reports the Kind of err after mapping.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(Map(err), &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Message is the client-facing text for err. Internal causes are not exposed.
func Message(err error) string {
	var appErr *Error
	if !errors.As(Map(err), &appErr) {
		return "internal error"
	}
	if appErr.Kind == KindInternal {
		return "internal error"
	}
	if appErr.Msg != "" {
		return appErr.Msg
	}
	return appErr.Error()
}

// NotFound is returned when a user, photo, tag or message does not exist.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// InvalidArgument creates a validation error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return &Error{Kind: KindInvalid, Msg: msg}
}

// AlreadyExists creates a conflict error.
func AlreadyExists(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

// Forbidden is returned when a caller acts on a resource it does not own.
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Msg: msg}
}

// Internal wraps a persistence or collaborator failure.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// HTTPStatus translates err into a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalid:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindDeadline:
		return http.StatusGatewayTimeout
	case KindCanceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// GRPCStatus converts err into a gRPC status error.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	var code codes.Code
	switch KindOf(err) {
	case KindNotFound:
		code = codes.NotFound
	case KindInvalid:
		code = codes.InvalidArgument
	case KindUnauthenticated:
		code = codes.Unauthenticated
	case KindForbidden:
		code = codes.PermissionDenied
	case KindConflict:
		code = codes.AlreadyExists
	case KindDeadline:
		code = codes.DeadlineExceeded
	case KindCanceled:
		code = codes.Canceled
	default:
		code = codes.Internal
	}
	return status.Error(code, Message(err))
}
