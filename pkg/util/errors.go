package util

import (
	"errors"
	"fmt"
)

type ErrorCode uint

const (
	ErrUnknown ErrorCode = iota
	ErrNotFound
	ErrBadParamInput
	ErrInternalServerError
	ErrServiceUnavailable
	ErrTimeout
	ErrCanceled
	ErrNotImplemented
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not_found"
	case ErrBadParamInput:
		return "bad_param_input"
	case ErrInternalServerError:
		return "internal_server_error"
	case ErrServiceUnavailable:
		return "service_unavailable"
	case ErrTimeout:
		return "timeout"
	case ErrCanceled:
		return "canceled"
	case ErrNotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Error carries an ErrorCode next to the original error so the http layer can pick a status
// without knowing every engine error type.
type Error struct {
	orig error
	msg  string
	code ErrorCode
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Code() ErrorCode {
	return e.code
}

// Message returns the human readable message without the wrapped error.
func (e *Error) Message() string {
	return e.msg
}

func WrapErrorf(orig error, code ErrorCode, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

// ErrorCodeOf returns the code of the outermost *Error in err's chain, ErrUnknown otherwise.
func ErrorCodeOf(err error) ErrorCode {
	var uerr *Error
	if errors.As(err, &uerr) {
		return uerr.code
	}
	return ErrUnknown
}
