package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Error codes. The HTTP layer maps each to a status; everything that is not
// an *Error counts as EINTERNAL.
const (
	EINVALID     = "invalid"     // bad input or a step the wizard cannot take now
	EFORBIDDEN   = "forbidden"   // failed token check
	ENOTFOUND    = "not_found"
	ECONFLICT    = "conflict"    // duplicate or in-flight submission
	ERATELIMIT   = "rate_limit"
	EUNAVAILABLE = "unavailable" // a collaborator failed, retrying is safe
	EINTERNAL    = "internal"
)

const (
	msgUnexpected  = "Er is een onverwachte fout opgetreden. Probeer het later opnieuw."
	msgRateLimited = "Te veel aanvragen. Probeer het later opnieuw."
)

// Error is an application error. Message is written for the visitor; Op
// names the operation ("wizard.select") for logs.
type Error struct {
	Code    string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Errorf(code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op, resource, id string) *Error {
	return Errorf(ENOTFOUND, op, "%s with ID %q not found", resource, id)
}

func Invalid(op, message string) *Error { return &Error{Code: EINVALID, Op: op, Message: message} }
func Forbidden(op, message string) *Error { return &Error{Code: EFORBIDDEN, Op: op, Message: message} }
func Conflict(op, message string) *Error { return &Error{Code: ECONFLICT, Op: op, Message: message} }
func RateLimit(op string) *Error { return &Error{Code: ERATELIMIT, Op: op, Message: msgRateLimited} }

// Unavailable wraps a collaborator failure behind a message safe to show.
func Unavailable(err error, op, message string) *Error {
	return &Error{Code: EUNAVAILABLE, Op: op, Message: message, Err: err}
}

func Internal(err error, op, message string) *Error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// ErrorCode returns the code of the first *Error in the chain. Validation
// errors are EINVALID and anything else EINTERNAL; nil has no code.
func ErrorCode(err error) string {
	var e *Error
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &e):
		return e.Code
	case errors.As(err, &ve):
		return EINVALID
	default:
		return EINTERNAL
	}
}

// ErrorMessage returns what the visitor may see. Internal details are
// replaced by a generic sentence.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return msgUnexpected
}

func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// ValidationError maps field names to Dutch messages.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed (%v)", e.Op, slices.Sorted(maps.Keys(e.Fields)))
}

// Add records a field error and returns e for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// FieldErrors returns the field map of a validation error in err's chain.
func FieldErrors(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
