package billing

import (
	"errors"
	"fmt"
)

// Kind classifies a billing error so the HTTP layer can pick a status code
// without string matching.
type Kind int

const (
	// KindValidation is malformed or out-of-range input; the caller can fix
	// the request and retry.
	KindValidation Kind = iota + 1

	// KindConflict means the operation is not allowed in the bill's current
	// state (editing a paid bill, overpaying). Not retried automatically.
	KindConflict

	// KindNotFound is an unknown bill or payment id.
	KindNotFound

	// KindSecurity is a failed gateway signature check. The payment must
	// never be applied; callers log these as security events.
	KindSecurity

	// KindExternal is a gateway transport failure. Order creation is safe to
	// retry; confirmations must go through the idempotency check first.
	KindExternal
)

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

func (e *Error) Unwrap() error { return e.Err }

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Securityf(format string, args ...any) *Error {
	return &Error{Kind: KindSecurity, Message: fmt.Sprintf(format, args...)}
}

// External wraps a gateway transport error.
func External(message string, err error) *Error {
	return &Error{Kind: KindExternal, Message: message, Err: err}
}

// IsKind reports whether err is (or wraps) a billing Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}
