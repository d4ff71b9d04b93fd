package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cases := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"NotFound", NotFound("order", "1000001"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"AlreadyExists", AlreadyExists("order", "number", "1000001"), "ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists},
		{"InvalidInput", InvalidInput("currency is required"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"Conflict", Conflict("order already placed"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"Gone", Gone("checkout session expired"), "GONE", http.StatusGone, ErrGone},
		{"PaymentFailed", PaymentFailed("card declined"), "PAYMENT_FAILED", http.StatusUnprocessableEntity, ErrPaymentFailed},
		{"ServiceUnavailable", ServiceUnavailable("redis down"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
		{"BadGateway", BadGateway("GATEWAY_UNREACHABLE", "no response"), "GATEWAY_UNREACHABLE", http.StatusBadGateway, ErrServiceUnavail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NotNil(t, tc.err)
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.status, tc.err.Status)
			assert.ErrorIs(t, tc.err, tc.sentinel)
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("order", "1000001")
	assert.Contains(t, err.Message, "order")
	assert.Contains(t, err.Message, "1000001")
}

func TestAlreadyExistsMessage(t *testing.T) {
	err := AlreadyExists("payment source", "reference", "pay-abc")
	assert.Contains(t, err.Message, "payment source")
	assert.Contains(t, err.Message, `reference "pay-abc"`)
}

func TestInternalHidesCause(t *testing.T) {
	err := Internal(fmt.Errorf("pq: deadlock detected"))
	assert.Equal(t, "INTERNAL_ERROR", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, "an internal error occurred", err.Message)
	// The cause stays on the chain for logging.
	assert.Contains(t, err.Error(), "deadlock")
}

func TestAppErrorString(t *testing.T) {
	plain := &AppError{Code: "NOT_FOUND", Message: "order not found"}
	assert.Equal(t, "NOT_FOUND: order not found", plain.Error())

	withCause := &AppError{Code: "INTERNAL_ERROR", Message: "broke", Err: errors.New("db gone")}
	assert.Contains(t, withCause.Error(), "db gone")
}

func TestAppErrorUnwrap(t *testing.T) {
	assert.ErrorIs(t, NotFound("order", "1"), ErrNotFound)
	assert.Nil(t, (&AppError{Code: "X", Message: "y"}).Unwrap())
}

func TestWrapKeepsChain(t *testing.T) {
	wrapped := Wrap(ErrGone, "load submission")
	assert.Contains(t, wrapped.Error(), "load submission")
	assert.ErrorIs(t, wrapped, ErrGone)
}

func TestWrapKeepsAppError(t *testing.T) {
	wrapped := Wrap(PaymentFailed("declined"), "submit payment")
	var appErr *AppError
	require.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, "PAYMENT_FAILED", appErr.Code)
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrPaymentFailed, http.StatusUnprocessableEntity},
		{ErrGone, http.StatusGone},
		{ErrServiceUnavail, http.StatusServiceUnavailable},
		{fmt.Errorf("load order: %w", ErrNotFound), http.StatusNotFound},
		{BadGateway("GATEWAY_PROTOCOL_ERROR", "bad body"), http.StatusBadGateway},
		{errors.New("mystery"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err), "error %v", tc.err)
	}
}
