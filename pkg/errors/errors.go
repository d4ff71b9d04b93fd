// Package errors defines the service error model: sentinel errors for
// errors.Is checks and AppError for carrying a wire code and HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels. Every AppError wraps one of these so callers can branch with
// errors.Is without caring which constructor produced it.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrPaymentFailed  = errors.New("payment failed")
	ErrGone           = errors.New("gone")
)

// AppError is an error with everything a handler needs to answer it: the
// machine-readable code, the client-safe message, and the HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(code string, status int, sentinel error, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound is a 404 for a missing resource.
func NotFound(resource, id string) *AppError {
	return newAppError("NOT_FOUND", http.StatusNotFound, ErrNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id))
}

// AlreadyExists is a 409 for a uniqueness violation.
func AlreadyExists(resource, field, value string) *AppError {
	return newAppError("ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// InvalidInput is a 400 for a request the client can fix.
func InvalidInput(message string) *AppError {
	return newAppError("INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput, message)
}

// Conflict is a 409 for a state conflict that is not a plain uniqueness
// violation, like an order that was already placed.
func Conflict(message string) *AppError {
	return newAppError("CONFLICT", http.StatusConflict, ErrConflict, message)
}

// Gone is a 410 for something that existed and will not come back, like an
// expired checkout session.
func Gone(message string) *AppError {
	return newAppError("GONE", http.StatusGone, ErrGone, message)
}

// PaymentFailed is a 422: the request was well-formed but the charge was
// declined.
func PaymentFailed(message string) *AppError {
	return newAppError("PAYMENT_FAILED", http.StatusUnprocessableEntity, ErrPaymentFailed, message)
}

// ServiceUnavailable is a 503 for a dependency of ours being down.
func ServiceUnavailable(message string) *AppError {
	return newAppError("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail, message)
}

// BadGateway is a 502 for an upstream provider failure. The code is
// caller-supplied so the client can tell an unreachable gateway from one that
// answered garbage.
func BadGateway(code, message string) *AppError {
	return newAppError(code, http.StatusBadGateway, ErrServiceUnavail, message)
}

// Internal is a 500 wrapping the underlying cause; the client only ever sees
// the generic message.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap adds context while keeping the chain intact for errors.Is/As.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus maps any error to a response status, preferring an AppError's
// own status over the sentinel mapping.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrPaymentFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrGone):
		return http.StatusGone
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
