package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies the failure modes a provisioning run can hit.
// Every fatal error produced by this module carries exactly one kind.
type ErrorKind string

const (
	ErrValidation     ErrorKind = "validation"
	ErrConfiguration  ErrorKind = "configuration"
	ErrTransport      ErrorKind = "transport"
	ErrStateConflict  ErrorKind = "state_conflict"
	ErrToolValidation ErrorKind = "tool_validation"
	ErrReload         ErrorKind = "reload"
)

type Error struct {
	Kind    ErrorKind
	Message string
	// Remediation is operator guidance printed alongside the failure,
	// e.g. the exact DNS records a domain is expected to carry.
	Remediation string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) WithRemediation(format string, args ...interface{}) *Error {
	e.Remediation = fmt.Sprintf(format, args...)
	return e
}

func NewError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

func Validationf(format string, args ...interface{}) *Error {
	return NewError(ErrValidation, nil, format, args...)
}

func Configurationf(format string, args ...interface{}) *Error {
	return NewError(ErrConfiguration, nil, format, args...)
}

func Transportf(cause error, format string, args ...interface{}) *Error {
	return NewError(ErrTransport, cause, format, args...)
}

func StateConflictf(format string, args ...interface{}) *Error {
	return NewError(ErrStateConflict, nil, format, args...)
}

func ToolValidationf(cause error, format string, args ...interface{}) *Error {
	return NewError(ErrToolValidation, cause, format, args...)
}

func Reloadf(cause error, format string, args ...interface{}) *Error {
	return NewError(ErrReload, cause, format, args...)
}

// KindOf reports the kind of err, or "" when err was not produced by
// this module.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
