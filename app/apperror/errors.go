package apperror

import (
	"errors"
	"fmt"
)

// Kind is the stable, client-visible error category.
type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"
	KindRequestTimeout     Kind = "REQUEST_TIMEOUT"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindTransport          Kind = "TRANSPORT_ERROR"
	KindInvalidRequest     Kind = "INVALID_REQUEST"
	KindInternal           Kind = "INTERNAL"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrRequestTimeout     = errors.New("request timeout")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTransport          = errors.New("transport error")
	ErrInvalidRequest     = errors.New("invalid request")
)

var sentinels = map[Kind]error{
	KindNotFound:           ErrNotFound,
	KindPreconditionFailed: ErrPreconditionFailed,
	KindRequestTimeout:     ErrRequestTimeout,
	KindUnauthorized:       ErrUnauthorized,
	KindTransport:          ErrTransport,
	KindInvalidRequest:     ErrInvalidRequest,
}

// Error is a business or infrastructure failure with a human readable message.
// It matches its kind's sentinel through errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && sentinel == target
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func PreconditionFailed(format string, args ...interface{}) *Error {
	return New(KindPreconditionFailed, format, args...)
}

// KindOf returns the kind carried by err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
