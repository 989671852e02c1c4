package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error for translation at the HTTP boundary
type Kind int

const (
	KindValidation Kind = iota + 1
	KindBusinessRule
	KindUnauthorized
	KindNotFound
	KindConflict
	KindExecution
)

// Status returns the HTTP status code for the kind
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "execution"
	}
}

// Error is a client-facing error. Message is safe to return to callers,
// Err carries the internal cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and message, so wrapped
// sentinels still compare equal with errors.Is.
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

func Validation(message string) *Error   { return New(KindValidation, message) }
func BusinessRule(message string) *Error { return New(KindBusinessRule, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }
func Execution(message string) *Error    { return New(KindExecution, message) }

// Wrap attaches cause to a copy of base.
func Wrap(base *Error, cause error) *Error {
	return &Error{Kind: base.Kind, Message: base.Message, Err: cause}
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
