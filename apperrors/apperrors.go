// Package apperrors defines the error taxonomy shared by all services and
// controllers. Every service failure is one of the sentinel kinds below; the
// controllers map the kind to an HTTP status and never leak raw database errors.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Sentinel kinds. Services wrap these; controllers classify with errors.Is.
var (
	ErrValidation           = errors.New("validation error")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrIllegalTransition    = errors.New("illegal status transition")
	ErrBookingLocked        = errors.New("booking locked")
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrGenerationExhausted  = errors.New("identifier generation exhausted")
	ErrForbidden            = errors.New("forbidden")
)

// Error carries a sentinel kind plus a human-readable message suitable for the
// API response body.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind error, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func Validation(format string, args ...interface{}) *Error {
	return New(ErrValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(ErrNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(ErrConflict, format, args...)
}

func IllegalTransition(format string, args ...interface{}) *Error {
	return New(ErrIllegalTransition, format, args...)
}

func BookingLocked(format string, args ...interface{}) *Error {
	return New(ErrBookingLocked, format, args...)
}

func ConfigurationMissing(format string, args ...interface{}) *Error {
	return New(ErrConfigurationMissing, format, args...)
}

func GenerationExhausted(format string, args ...interface{}) *Error {
	return New(ErrGenerationExhausted, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return New(ErrForbidden, format, args...)
}

// HTTPStatus maps an error to the response status code. Unknown errors are
// reported as 500 so nothing is silently swallowed.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrIllegalTransition):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrBookingLocked):
		return fiber.StatusLocked
	case errors.Is(err, ErrConfigurationMissing):
		return fiber.StatusPreconditionFailed
	case errors.Is(err, ErrGenerationExhausted):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// Message returns the user-facing message for an error. For taxonomy errors
// that is the carried message; anything else gets a generic one.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}
