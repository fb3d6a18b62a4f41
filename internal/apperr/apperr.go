package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures so handlers can decide between a client-facing
// status, a degraded default, or a suppressed background warning.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: missing/invalid request fields. Always a 400, never retried.
	KindValidation
	// KindStorageUnavailable: ledger/registry store cannot be reached.
	KindStorageUnavailable
	// KindJobTimeout: the training process exceeded its wall-clock deadline.
	KindJobTimeout
	// KindJobFailure: the training process exited non-zero and left no artifact.
	KindJobFailure
	// KindMalformedOutput: the external process wrote unparseable output.
	KindMalformedOutput
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "application error"
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case KindMalformedOutput:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

func StorageUnavailable(err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Err: err}
}

func MalformedOutput(err error) *Error {
	return &Error{Kind: KindMalformedOutput, Err: err}
}

// KindOf unwraps err looking for an *Error and reports its Kind.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
